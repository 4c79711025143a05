// Package holdem is the public facade of the engine: the only package
// external callers import. It generalizes the teacher's
// internal/game/table.go into a library surface built around the
// non-throwing StartResult sum type (design note "Exceptions for
// control flow in tryStartGame") instead of table.go's bool-returning
// AddPlayer/panicking style, and serializes every mutation through a
// single event-loop goroutine per spec §5's scheduling model, the same
// suspension-point discipline internal/game/tui_bridge_agent.go uses to
// bridge an asynchronous bubbletea program into a synchronous decision
// call.
package holdem

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-engine/internal/card"
	"github.com/lox/holdem-engine/internal/deck"
	"github.com/lox/holdem-engine/internal/engine"
	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/handid"
	"github.com/lox/holdem-engine/internal/pot"
	"github.com/lox/holdem-engine/internal/position"
)

// Re-exported library surface (spec §4.7, §6): callers only ever see
// these names, never the internal packages that implement them.
type (
	PlayerAgent = engine.Agent
	Prompt      = engine.Prompt
	Decision    = engine.Decision
	ActionType  = engine.ActionType
	Street      = engine.Street
	PublicSeat  = engine.PublicSeat
	Award       = pot.Award
	Card        = card.Card
	Summary     = engine.Summary
)

const (
	ActionFold  = engine.ActionFold
	ActionCheck = engine.ActionCheck
	ActionCall  = engine.ActionCall
	ActionBet   = engine.ActionBet
	ActionRaise = engine.ActionRaise
)

const (
	PreFlop = engine.PreFlop
	Flop    = engine.Flop
	Turn    = engine.Turn
	River   = engine.River
)

// Event re-exports (spec §4.8's payload-stability contract applies to
// these names and their fields, never to the internal event package).
type (
	Event            = events.Event
	Kind             = events.Kind
	HandStarted      = events.HandStarted
	RoundStarted     = events.RoundStarted
	PromptEvent      = events.Prompt
	PlayerAction     = events.PlayerAction
	PotUpdated       = events.PotUpdated
	StreetDealt      = events.StreetDealt
	ShowdownRevealed = events.ShowdownRevealed
	PotAwarded       = events.PotAwarded
	HandEnded        = events.HandEnded
	PlayerEliminated = events.PlayerEliminated
	GameStartFailed  = events.GameStartFailed
	HandCancelled    = events.HandCancelled
	ActionRejected   = events.ActionRejected
)

const (
	KindHandStarted      = events.KindHandStarted
	KindRoundStarted     = events.KindRoundStarted
	KindPrompt           = events.KindPrompt
	KindPlayerAction     = events.KindPlayerAction
	KindPotUpdated       = events.KindPotUpdated
	KindStreetDealt      = events.KindStreetDealt
	KindShowdownRevealed = events.KindShowdownRevealed
	KindPotAwarded       = events.KindPotAwarded
	KindHandEnded        = events.KindHandEnded
	KindPlayerEliminated = events.KindPlayerEliminated
	KindGameStartFailed  = events.KindGameStartFailed
	KindHandCancelled    = events.KindHandCancelled
	KindActionRejected   = events.KindActionRejected
)

// Handler receives every event a Table emits, in emission order.
type Handler func(Event)

// SeatID identifies a physical seat at the table, stable across hands
// (including through elimination and re-entry under a new SeatID).
type SeatID string

var (
	ErrTableFull            = errors.New("holdem: table is full")
	ErrUnknownSeat          = errors.New("holdem: unknown seat")
	ErrHandInProgress       = errors.New("holdem: a hand is already in progress")
	ErrBuyInOutOfRange      = errors.New("holdem: buy-in outside configured bounds")
	ErrSeatOccupiedMidHand  = errors.New("holdem: cannot remove a seat mid-hand")
	ErrInvalidConfig        = errors.New("holdem: invalid table configuration")
	ErrMissingEntropySource = errors.New("holdem: no shuffler or deck source configured")
	ErrTableClosed          = errors.New("holdem: table is closed")
)

// TableConfig configures a Table at construction, per spec §3's "Table
// configuration" data model.
type TableConfig struct {
	SmallBlind int
	BigBlind   int
	MinBuyIn   int
	MaxBuyIn   int
	MinPlayers int
	MaxPlayers int
	TimeoutMs  int

	// Shuffler supplies randomness for every hand's deck unless a test
	// deck is injected via SetDeck; per spec §6 the engine refuses to
	// start without one of the two.
	Shuffler deck.Shuffler

	Logger *log.Logger
	Clock  quartz.Clock
}

func (c TableConfig) validate() error {
	if c.SmallBlind <= 0 || c.BigBlind < c.SmallBlind {
		return fmt.Errorf("%w: big blind must be >= small blind > 0", ErrInvalidConfig)
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("%w: minPlayers must be >= 2", ErrInvalidConfig)
	}
	if c.MaxPlayers < c.MinPlayers || c.MaxPlayers > 10 {
		return fmt.Errorf("%w: maxPlayers must be between minPlayers and 10", ErrInvalidConfig)
	}
	if c.MinBuyIn <= 0 || c.MaxBuyIn < c.MinBuyIn {
		return fmt.Errorf("%w: maxBuyIn must be >= minBuyIn > 0", ErrInvalidConfig)
	}
	return nil
}

// StartResult is the non-throwing outcome of StartHand (design note
// "Exceptions for control flow in tryStartGame"): Started is true only
// once the hand has fully ended, including awards and eliminations.
type StartResult struct {
	Started bool
	Reason  string
	Details string
	Summary Summary
}

type tableSeat struct {
	id         SeatID
	agent      PlayerAgent
	chips      int
	sittingOut bool
}

// Table is one poker table: seats, configuration, and the single active
// hand it drives at a time. All exported methods are safe to call from
// multiple goroutines; internally at most one mutation is ever in
// flight, serialized through Table's own event-loop goroutine (spec
// §5).
type Table struct {
	cfg    TableConfig
	bus    *events.Bus
	clock  quartz.Clock
	logger *log.Logger
	idGen  *handid.Generator

	cmds   chan func()
	closed chan struct{}

	seatOrder []SeatID
	seats     map[SeatID]*tableSeat
	nextSeat  int

	prevHand       position.PreviousHand
	handInProgress bool

	testDeck   *deck.Deck
	testButton SeatID
}

// NewTable constructs a Table from cfg. An invalid cfg is rejected with
// an error wrapping ErrInvalidConfig; otherwise an unset Clock, Logger,
// or TimeoutMs is defaulted (real clock, discarded log output, 30000ms)
// and the Table's event-loop goroutine is started.
func NewTable(cfg TableConfig) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel + 1})
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 30000
	}

	t := &Table{
		cfg:    cfg,
		bus:    events.NewBus(cfg.Logger),
		clock:  cfg.Clock,
		logger: cfg.Logger,
		idGen:  handid.NewGenerator(nil),
		seats:  make(map[SeatID]*tableSeat),
		cmds:   make(chan func()),
		closed: make(chan struct{}),
	}
	go t.loop()
	return t, nil
}

func (t *Table) loop() {
	for {
		select {
		case cmd := <-t.cmds:
			cmd()
		case <-t.closed:
			return
		}
	}
}

// do runs fn on the Table's event-loop goroutine and waits for it to
// finish, giving every exported method the synchronous, serialized
// semantics spec §5 requires even when callers invoke them
// concurrently.
func (t *Table) do(fn func()) error {
	reply := make(chan struct{})
	select {
	case t.cmds <- func() { fn(); close(reply) }:
		<-reply
		return nil
	case <-t.closed:
		return ErrTableClosed
	}
}

// Close stops the Table's event loop; no further events are emitted
// after it returns. Close is queued on the event loop behind any hand
// already running, so that hand plays to completion first: Close does
// not cancel a hand mid-play or refund its committed chips.
func (t *Table) Close() {
	t.do(func() {
		if t.handInProgress {
			t.logger.Warn("closing table mid-hand")
		}
	})
	close(t.closed)
}

// AddSeat seats agent with the given starting chip stack, between hands
// only. It returns the assigned SeatID.
func (t *Table) AddSeat(agent PlayerAgent, buyIn int) (SeatID, error) {
	if agent == nil {
		return "", fmt.Errorf("%w: agent is required", ErrInvalidConfig)
	}
	var id SeatID
	var err error
	if doErr := t.do(func() {
		if t.handInProgress {
			err = ErrHandInProgress
			return
		}
		if len(t.seats) >= t.cfg.MaxPlayers {
			err = ErrTableFull
			return
		}
		if buyIn < t.cfg.MinBuyIn || buyIn > t.cfg.MaxBuyIn {
			err = ErrBuyInOutOfRange
			return
		}
		t.nextSeat++
		id = SeatID(fmt.Sprintf("seat-%d", t.nextSeat))
		t.seats[id] = &tableSeat{id: id, agent: agent, chips: buyIn}
		t.seatOrder = append(t.seatOrder, id)
	}); doErr != nil {
		return "", doErr
	}
	return id, err
}

// RemoveSeat removes a seat between hands. It cannot be called while a
// hand is in progress.
func (t *Table) RemoveSeat(id SeatID) error {
	var err error
	if doErr := t.do(func() {
		if t.handInProgress {
			err = ErrSeatOccupiedMidHand
			return
		}
		if _, ok := t.seats[id]; !ok {
			err = ErrUnknownSeat
			return
		}
		delete(t.seats, id)
		for i, sid := range t.seatOrder {
			if sid == id {
				t.seatOrder = append(t.seatOrder[:i], t.seatOrder[i+1:]...)
				break
			}
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// TopUp adds chips to an existing seat between hands, clamped to
// MaxBuyIn.
func (t *Table) TopUp(id SeatID, amount int) error {
	var err error
	if doErr := t.do(func() {
		if t.handInProgress {
			err = ErrHandInProgress
			return
		}
		s, ok := t.seats[id]
		if !ok {
			err = ErrUnknownSeat
			return
		}
		s.chips += amount
		if s.chips > t.cfg.MaxBuyIn {
			s.chips = t.cfg.MaxBuyIn
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// SetSittingOut marks a seat as sitting out (excluded from the next
// hand) or returns it to active play.
func (t *Table) SetSittingOut(id SeatID, sittingOut bool) error {
	var err error
	if doErr := t.do(func() {
		s, ok := t.seats[id]
		if !ok {
			err = ErrUnknownSeat
			return
		}
		s.sittingOut = sittingOut
	}); doErr != nil {
		return doErr
	}
	return err
}

// On subscribes handler to every future event this Table emits.
func (t *Table) On(handler Handler) {
	t.do(func() {
		t.bus.Subscribe(func(e events.Event) { handler(e) })
	})
}

// SetDeck injects a fixed card sequence for the next hand only, per
// spec §6's test-hook contract.
func (t *Table) SetDeck(cards []Card) {
	t.do(func() {
		t.testDeck = deck.NewOrdered(cards)
	})
}

// SetButton forces the button onto the given seat for the next hand
// only, per spec §6's test-hook contract.
func (t *Table) SetButton(id SeatID) {
	t.do(func() {
		t.testButton = id
	})
}

// IsHandInProgress reports whether a hand is currently running. It is
// guaranteed to flip false only strictly after the hand has fully
// ended, including awards and eliminations (spec §4.9).
func (t *Table) IsHandInProgress() bool {
	var in bool
	t.do(func() { in = t.handInProgress })
	return in
}

// StartHand begins a new hand and blocks until it has fully resolved.
// It never panics or returns a Go error for a structural failure to
// start (insufficient players, missing entropy source, table already in
// progress): those are reported via StartResult.Reason and a
// game.startFailed event instead, per spec §7's non-throwing contract.
func (t *Table) StartHand(ctx context.Context) StartResult {
	var result StartResult
	t.do(func() {
		result = t.startHandLocked(ctx)
	})
	return result
}

func (t *Table) startHandLocked(ctx context.Context) StartResult {
	if t.handInProgress {
		return t.failStart("tableInProgress", "a hand is already in progress")
	}

	eligible := 0
	for _, id := range t.seatOrder {
		if s := t.seats[id]; s != nil && !s.sittingOut && s.chips > 0 {
			eligible++
		}
	}
	if eligible < t.cfg.MinPlayers || eligible < 2 {
		return t.failStart("insufficientPlayers", fmt.Sprintf("need at least %d players with chips, have %d", max(2, t.cfg.MinPlayers), eligible))
	}
	if t.cfg.Shuffler == nil && t.testDeck == nil {
		return t.failStart("missingEntropySource", "no shuffler or injected deck configured")
	}

	posSeats := make([]position.Seat, 0, len(t.seatOrder))
	for _, id := range t.seatOrder {
		s := t.seats[id]
		elig := position.Empty
		switch {
		case s == nil:
			elig = position.Empty
		case s.sittingOut:
			elig = position.Empty
		case s.chips <= 0:
			elig = position.Eliminated
		default:
			elig = position.Eligible
		}
		posSeats = append(posSeats, position.Seat{ID: position.SeatID(id), Eligibility: elig})
	}

	prev := t.prevHand
	prev.ForcedButton = position.SeatID(t.testButton)
	posResult := position.Resolve(posSeats, prev)

	dealOrder := t.dealOrderFrom(posResult.FirstToActPostflop)
	if len(dealOrder) < 2 {
		return t.failStart("insufficientPlayers", "fewer than two seats resolved into this hand")
	}

	engineSeats := make([]*engine.Seat, 0, len(dealOrder))
	for _, id := range dealOrder {
		ts := t.seats[id]
		engineSeats = append(engineSeats, &engine.Seat{
			ID:                    engine.SeatID(id),
			Chips:                 ts.chips,
			State:                 engine.Active,
			StartingChipsThisHand: ts.chips,
			Agent:                 ts.agent,
		})
	}

	var d *deck.Deck
	if t.testDeck != nil {
		d = t.testDeck
		t.testDeck = nil
	} else {
		d = deck.New(t.cfg.Shuffler)
	}

	cfg := engine.Config{
		HandID:            t.idGen.Generate(),
		SmallBlind:        t.cfg.SmallBlind,
		BigBlind:          t.cfg.BigBlind,
		TimeoutMs:         t.cfg.TimeoutMs,
		Button:            engine.SeatID(posResult.Button),
		SmallBlindSeat:    engine.SeatID(posResult.SmallBlind),
		BigBlindSeat:      engine.SeatID(posResult.BigBlind),
		IsDeadSmallBlind:  posResult.IsDeadSmallBlind,
		FirstToActPreflop: engine.SeatID(posResult.FirstToActPreflop),
		DealOrder:         dealOrderToSeatIDs(dealOrder),
	}

	t.handInProgress = true
	ctrl := engine.NewController(cfg, engineSeats, d, t.bus, t.clock)
	summary, err := ctrl.Run(ctx)
	t.handInProgress = false

	for _, s := range engineSeats {
		t.seats[SeatID(s.ID)].chips = s.Chips
	}

	t.prevHand = position.PreviousHand{
		HasPlayed:    true,
		Button:       position.SeatID(posResult.Button),
		BigBlind:     position.SeatID(posResult.BigBlind),
		IsDeadButton: posResult.IsDeadButton,
	}
	t.testButton = ""

	if err != nil {
		return StartResult{Started: false, Reason: "handCancelled", Details: err.Error()}
	}
	return StartResult{Started: true, Summary: summary}
}

func (t *Table) failStart(reason, details string) StartResult {
	t.bus.Publish(events.NewGameStartFailed(t.clock.Now(), reason, details))
	return StartResult{Started: false, Reason: reason, Details: details}
}

// dealOrderFrom returns this hand's eligible seats in clockwise order
// starting from firstPostflop, wrapping around the table's fixed
// physical seat order.
func (t *Table) dealOrderFrom(firstPostflop position.SeatID) []SeatID {
	n := len(t.seatOrder)
	startIdx := -1
	for i, id := range t.seatOrder {
		if id == SeatID(firstPostflop) {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil
	}

	out := make([]SeatID, 0, n)
	for step := 0; step < n; step++ {
		idx := (startIdx + step) % n
		id := t.seatOrder[idx]
		if s := t.seats[id]; s != nil && !s.sittingOut && s.chips > 0 {
			out = append(out, id)
		}
	}
	return out
}

func dealOrderToSeatIDs(seats []SeatID) []engine.SeatID {
	out := make([]engine.SeatID, len(seats))
	for i, s := range seats {
		out[i] = engine.SeatID(s)
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
