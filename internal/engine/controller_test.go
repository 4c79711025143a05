package engine

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/holdem-engine/internal/card"
	"github.com/lox/holdem-engine/internal/deck"
	"github.com/lox/holdem-engine/internal/events"
)

// scriptedAgent returns a fixed sequence of decisions, falling back to
// defaultDecision once exhausted, matching the teacher's scripted test
// agents in internal/testing.
type scriptedAgent struct {
	decisions []Decision
	i         int
}

func (a *scriptedAgent) Decide(ctx context.Context, prompt Prompt) Decision {
	if a.i >= len(a.decisions) {
		return defaultDecision(prompt)
	}
	d := a.decisions[a.i]
	a.i++
	return d
}

func newSeat(id SeatID, chips int, agent Agent) *Seat {
	return &Seat{ID: id, Chips: chips, State: Active, StartingChipsThisHand: chips, Agent: agent}
}

// parseCard parses the canonical two-character form used throughout the
// engine's test suites, e.g. "As", "Th", "2c".
func parseCard(s string) card.Card {
	var rank card.Rank
	switch s[0] {
	case '2':
		rank = card.Two
	case '3':
		rank = card.Three
	case '4':
		rank = card.Four
	case '5':
		rank = card.Five
	case '6':
		rank = card.Six
	case '7':
		rank = card.Seven
	case '8':
		rank = card.Eight
	case '9':
		rank = card.Nine
	case 'T':
		rank = card.Ten
	case 'J':
		rank = card.Jack
	case 'Q':
		rank = card.Queen
	case 'K':
		rank = card.King
	case 'A':
		rank = card.Ace
	}
	var suit card.Suit
	switch s[1] {
	case 'c':
		suit = card.Clubs
	case 'd':
		suit = card.Diamonds
	case 'h':
		suit = card.Hearts
	case 's':
		suit = card.Spades
	}
	return card.New(rank, suit)
}

func mustOrderedDeck(specs ...string) *deck.Deck {
	cards := make([]card.Card, len(specs))
	for i, s := range specs {
		cards[i] = parseCard(s)
	}
	return deck.NewOrdered(cards)
}

func totalChips(seats []*Seat) int {
	total := 0
	for _, s := range seats {
		total += s.Chips + s.TotalCommitted
	}
	return total
}

// collectEvents captures every event a run published, for asserting order.
func collectEvents(bus *events.Bus) (*[]events.Event, func(events.Event)) {
	var out []events.Event
	return &out, func(e events.Event) { out = append(out, e) }
}

// TestControllerHeadsUpWalk covers spec scenario S1: heads-up, blinds
// 10/20, the small blind folds preflop. The big blind should end up
// exactly 10 chips ahead (the small blind's 10; its own uncalled 10 over
// the small blind comes back to it via the refund), and the reported
// total pot stays the gross 30 contributed before the refund is netted
// out.
func TestControllerHeadsUpWalk(t *testing.T) {
	sbAgent := &scriptedAgent{decisions: []Decision{{Action: ActionFold}}}
	bbAgent := &scriptedAgent{}

	sb := newSeat("sb", 1000, sbAgent)
	bb := newSeat("bb", 1000, bbAgent)
	seats := []*Seat{sb, bb}

	bus := events.NewBus(nil)
	evs, handler := collectEvents(bus)
	bus.Subscribe(handler)

	cfg := Config{
		HandID:            "h1",
		SmallBlind:        10,
		BigBlind:          20,
		TimeoutMs:         1000,
		Button:            "sb",
		SmallBlindSeat:    "sb",
		BigBlindSeat:      "bb",
		FirstToActPreflop: "sb",
		DealOrder:         []SeatID{"sb", "bb"},
	}

	c := NewController(cfg, seats, mustOrderedDeck("As", "Kd", "2c", "7h", "3s", "9d", "Jc"), bus, quartz.NewReal())
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if sb.Chips != 990 {
		t.Errorf("sb chips = %d, want 990", sb.Chips)
	}
	if bb.Chips != 1010 {
		t.Errorf("bb chips = %d, want 1010", bb.Chips)
	}
	if summary.TotalPot != 30 {
		t.Errorf("TotalPot = %d, want 30", summary.TotalPot)
	}
	if got := totalChips(seats); got != 2000 {
		t.Errorf("total chips = %d, want 2000 (conservation)", got)
	}
	if len(summary.Winners) != 1 || summary.Winners[0] != "bb" {
		t.Errorf("winners = %v, want [bb]", summary.Winners)
	}

	// Issue #33: pot.awarded* must precede hand.ended, which must
	// precede any player.eliminated.
	var sawAwarded, sawEnded bool
	for _, e := range *evs {
		switch e.Kind() {
		case events.KindPotAwarded:
			if sawEnded {
				t.Errorf("pot.awarded observed after hand.ended")
			}
			sawAwarded = true
		case events.KindHandEnded:
			sawEnded = true
		}
	}
	if !sawAwarded || !sawEnded {
		t.Errorf("expected both pot.awarded and hand.ended events, got %d events", len(*evs))
	}

	// Issue #18: the folded seat must receive exactly one prompt.
	prompts := 0
	for _, e := range *evs {
		if p, ok := e.(events.Prompt); ok && p.SeatID == "sb" {
			prompts++
		}
	}
	if prompts != 1 {
		t.Errorf("sb prompted %d times, want exactly 1", prompts)
	}
}

// TestControllerSidePotAward covers spec scenario S4: a short all-in
// stack can only win a main pot sized to what it contributed, and the
// remainder forms a side pot between the two deeper stacks.
func TestControllerSidePotAward(t *testing.T) {
	// big raises to 100, short calls all-in for 100 and mid calls; on the
	// flop big bets 100 and mid calls, then both check down. short has
	// the best hand (pocket aces vs weaker holdings) and wins only the
	// 300 main pot, while the 200 side pot goes to whichever deeper stack
	// has the better hand of the remaining two.
	shortAgent := &scriptedAgent{decisions: []Decision{{Action: ActionCall}}}
	midAgent := &scriptedAgent{decisions: []Decision{{Action: ActionCall, Amount: 100}, {Action: ActionCall}, {Action: ActionCheck}, {Action: ActionCheck}}}
	bigAgent := &scriptedAgent{decisions: []Decision{{Action: ActionRaise, Amount: 100}, {Action: ActionBet, Amount: 100}, {Action: ActionCheck}, {Action: ActionCheck}}}

	short := newSeat("short", 100, shortAgent)
	mid := newSeat("mid", 300, midAgent)
	big := newSeat("big", 300, bigAgent)
	seats := []*Seat{short, mid, big}

	bus := events.NewBus(nil)

	cfg := Config{
		HandID:            "h2",
		SmallBlind:        10,
		BigBlind:          20,
		TimeoutMs:         1000,
		Button:            "big",
		SmallBlindSeat:    "short",
		BigBlindSeat:      "mid",
		FirstToActPreflop: "big",
		DealOrder:         []SeatID{"big", "short", "mid"},
	}

	// Deal order is big, short, mid: pass one gives big/short/mid their
	// first hole card in that order, pass two their second. short gets
	// pocket aces (best hand), big a pair of kings, mid a pair of
	// queens; the board never pairs or straightens over them.
	d := mustOrderedDeck(
		"Kd", "As", "Qd", "Kc", "Ac", "Qc", // hole cards
		"2h", "3s", "7h", "9d", // flop burn + flop
		"2d", "4c", // turn burn + turn
		"2s", "5d", // river burn + river
	)
	c := NewController(cfg, seats, d, bus, quartz.NewReal())
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := totalChips(seats); got != 700 {
		t.Errorf("total chips = %d, want 700 (conservation)", got)
	}

	potTotal := 0
	for _, a := range summary.Awards {
		potTotal += a.Amount
	}
	if potTotal != summary.TotalPot {
		t.Errorf("sum of award amounts = %d, want equal to TotalPot %d", potTotal, summary.TotalPot)
	}

	// short can only have won up to what every seat matched of its
	// all-in (100*3 = 300); it cannot have been awarded more than that.
	shortAward := 0
	for _, a := range summary.Awards {
		if a.PlayerID == "short" {
			shortAward += a.Amount
		}
	}
	if shortAward > 300 {
		t.Errorf("short awarded %d, cannot exceed the 300 it could contest", shortAward)
	}
}

// TestControllerActionCountBound guards against the v4.0.1 infinite-loop
// regression: a fold must be followed by an immediate recheck of the
// round's completion state rather than looping on the folded seat.
func TestControllerActionCountBound(t *testing.T) {
	a1 := &scriptedAgent{decisions: []Decision{{Action: ActionFold}}}
	a2 := &scriptedAgent{}
	a3 := &scriptedAgent{}

	s1 := newSeat("p1", 500, a1)
	s2 := newSeat("p2", 500, a2)
	s3 := newSeat("p3", 500, a3)
	seats := []*Seat{s1, s2, s3}

	bus := events.NewBus(nil)
	evs, handler := collectEvents(bus)
	bus.Subscribe(handler)

	cfg := Config{
		HandID:            "h3",
		SmallBlind:        10,
		BigBlind:          20,
		TimeoutMs:         1000,
		Button:            "p3",
		SmallBlindSeat:    "p1",
		BigBlindSeat:      "p2",
		FirstToActPreflop: "p3",
		DealOrder:         []SeatID{"p3", "p1", "p2"},
	}

	d := mustOrderedDeck("As", "Kd", "2c", "7h", "3s", "9d", "Jc", "4h", "5s", "6d", "8c", "Th", "6h", "6s")
	c := NewController(cfg, seats, d, bus, quartz.NewReal())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Run did not terminate — suspected infinite loop on fold")
	}

	actions := 0
	for _, e := range *evs {
		if e.Kind() == events.KindPlayerAction {
			actions++
		}
	}
	if actions > 20 {
		t.Errorf("observed %d player actions for a 3-seat hand, suspiciously high", actions)
	}
}
