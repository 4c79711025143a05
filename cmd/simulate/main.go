// Command simulate runs N hands at a single table against scripted
// agents and prints the resulting event stream, grounded on the
// teacher's cmd/simulate (kong-flagged CLI, per-hand RNG seeding,
// pass/fail-style summary) and cmd/testbot.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	holdem "github.com/lox/holdem-engine"
	"github.com/lox/holdem-engine/internal/deck"
)

type CLI struct {
	Hands      int    `default:"10" help:"Number of hands to simulate"`
	Players    int    `default:"4" help:"Number of seats (2-6)"`
	Opponent   string `default:"rand" help:"Opponent type: fold, call, rand"`
	SmallBlind int    `default:"10" help:"Small blind"`
	BigBlind   int    `default:"20" help:"Big blind"`
	BuyIn      int    `default:"1000" help:"Starting chips per seat"`
	Seed       int64  `default:"0" help:"RNG seed (0 for time-based)"`
	Quiet      bool   `help:"Suppress per-event output, print only the final summary"`
}

// styles mirrors the teacher's internal/game/interface.go
// InterfaceStyles, narrowed to the event kinds this CLI prints.
type styles struct {
	hand   lipgloss.Style
	action lipgloss.Style
	pot    lipgloss.Style
	win    lipgloss.Style
	warn   lipgloss.Style
}

func newStyles() styles {
	return styles{
		hand:   lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		action: lipgloss.NewStyle().Foreground(lipgloss.Color("#74B9FF")),
		pot:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		win:    lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli)

	if cli.Seed == 0 {
		cli.Seed = time.Now().UnixNano()
	}
	if cli.Players < 2 || cli.Players > 6 {
		fmt.Fprintln(os.Stderr, "players must be between 2 and 6")
		os.Exit(1)
	}

	st := newStyles()
	rng := rand.New(rand.NewSource(cli.Seed))

	tbl, err := holdem.NewTable(holdem.TableConfig{
		SmallBlind: cli.SmallBlind,
		BigBlind:   cli.BigBlind,
		MinBuyIn:   cli.BuyIn,
		MaxBuyIn:   cli.BuyIn,
		MinPlayers: 2,
		MaxPlayers: cli.Players,
		Shuffler:   deck.NewRandShuffler(rng),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, st.warn.Render(err.Error()))
		os.Exit(1)
	}
	defer tbl.Close()

	eliminations := 0
	if !cli.Quiet {
		tbl.On(func(e holdem.Event) { printEvent(st, e) })
	} else {
		tbl.On(func(e holdem.Event) {
			if e.Kind() == holdem.KindPlayerEliminated {
				eliminations++
			}
		})
	}

	for i := 0; i < cli.Players; i++ {
		agent := newOpponent(cli.Opponent, rng)
		if _, err := tbl.AddSeat(agent, cli.BuyIn); err != nil {
			fmt.Fprintln(os.Stderr, st.warn.Render(err.Error()))
			os.Exit(1)
		}
	}

	fmt.Printf("Starting simulation: %d hands, %d players, %s opponents (seed: %d)\n",
		cli.Hands, cli.Players, cli.Opponent, cli.Seed)

	played := 0
	start := time.Now()
	for played < cli.Hands {
		result := tbl.StartHand(context.Background())
		if !result.Started {
			fmt.Printf("stopped after %d hands: %s (%s)\n", played, result.Reason, result.Details)
			break
		}
		played++
	}
	duration := time.Since(start)

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Hands played: %d in %v (%.2f hands/sec)\n", played, duration.Round(time.Millisecond),
		float64(played)/duration.Seconds())
	if cli.Quiet {
		fmt.Printf("Eliminations: %d\n", eliminations)
	}

	kctx.Exit(0)
}

func printEvent(st styles, e holdem.Event) {
	switch ev := e.(type) {
	case holdem.HandStarted:
		fmt.Println(st.hand.Render(fmt.Sprintf("hand %s started: button=%s sb=%d bb=%d", ev.HandID, ev.Button, ev.SmallBlind, ev.BigBlind)))
	case holdem.RoundStarted:
		fmt.Println(st.hand.Render(fmt.Sprintf("-- %s --", ev.Street)))
	case holdem.PlayerAction:
		fmt.Println(st.action.Render(fmt.Sprintf("%s %s %d", ev.SeatID, ev.Action, ev.Amount)))
	case holdem.PotAwarded:
		fmt.Println(st.pot.Render(fmt.Sprintf("pot %d awarded %d to %s (%s)", ev.PotIndex, ev.Amount, strings.Join(ev.Winners, ","), ev.Reason)))
	case holdem.PlayerEliminated:
		fmt.Println(st.warn.Render(fmt.Sprintf("%s eliminated", ev.SeatID)))
	case holdem.HandEnded:
		fmt.Println(st.win.Render(fmt.Sprintf("hand %s ended", ev.HandID)))
	case holdem.GameStartFailed:
		fmt.Println(st.warn.Render(fmt.Sprintf("failed to start: %s (%s)", ev.Reason, ev.Details)))
	}
}
