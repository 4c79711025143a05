// Package tablemanager is a thin external-collaborator surface holding
// the tables a process is running, generalized from the teacher's
// internal/server.GameManager (a map[string]*GameInstance guarded by a
// sync.RWMutex) down to a pure map[TableID]*holdem.Table per design
// note 5 ("Global mutable managers holding tables") and the REDESIGN
// FLAG that trims the teacher's pool/bot-registration machinery out of
// it: Manager holds no hand state, no bot pools, and no network
// connections of its own.
package tablemanager

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	holdem "github.com/lox/holdem-engine"
)

// TableID names a table registered with a Manager.
type TableID string

// Manager tracks the tables a process is driving. It holds no poker
// state itself; each *holdem.Table owns its own seats and hand state.
type Manager struct {
	mu     sync.RWMutex
	tables map[TableID]*holdem.Table
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{tables: make(map[TableID]*holdem.Table)}
}

// Register adds tbl under id, replacing any table previously registered
// under the same ID without closing it — callers that want the old
// table closed must fetch it with Table or Unregister and close it
// themselves.
func (m *Manager) Register(id TableID, tbl *holdem.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[id] = tbl
}

// Unregister removes id from the manager and returns the table that was
// registered under it, if any. The caller owns closing it.
func (m *Manager) Unregister(id TableID) (*holdem.Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tbl, ok := m.tables[id]
	if ok {
		delete(m.tables, id)
	}
	return tbl, ok
}

// Table looks up a registered table by ID.
func (m *Manager) Table(id TableID) (*holdem.Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tbl, ok := m.tables[id]
	return tbl, ok
}

// IDs returns the currently registered table IDs in no particular order.
func (m *Manager) IDs() []TableID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]TableID, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	return ids
}

// Run drives every registered table's StartHand loop concurrently via
// errgroup. Each table's loop keeps calling StartHand until ctx is
// cancelled or the table reports it cannot start a hand with its
// current seating, at which point that table's goroutine exits without
// affecting the others. Any other failure to start (such as a cancelled
// hand) is returned as an error, which cancels the shared context and so
// stops every other table's loop as well; Run itself returns the first
// such error once every table's loop has exited.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	m.mu.RLock()
	tables := make(map[TableID]*holdem.Table, len(m.tables))
	for id, tbl := range m.tables {
		tables[id] = tbl
	}
	m.mu.RUnlock()

	for id, tbl := range tables {
		id, tbl := id, tbl
		g.Go(func() error {
			return runTableLoop(gctx, id, tbl)
		})
	}

	return g.Wait()
}

func runTableLoop(ctx context.Context, id TableID, tbl *holdem.Table) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := tbl.StartHand(ctx)
		if !result.Started {
			if result.Reason == "insufficientPlayers" || result.Reason == "missingEntropySource" {
				return nil
			}
			return fmt.Errorf("tablemanager: table %s: %s: %s", id, result.Reason, result.Details)
		}
	}
}
