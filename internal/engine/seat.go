// Package engine implements HandController: the per-hand orchestration
// loop that deals cards, drives a BettingRound per street, settles pots
// between streets, runs showdown, and applies awards. It generalizes
// the teacher's GameEngine.PlayHand (internal/game/engine.go) and
// Hand's NewHand/postBlinds/dealHoleCards construction
// (internal/game/hand_options.go), replacing their mutate-in-place
// Agent.MakeDecision call with the PlayerAgent.Decide(ctx, Prompt)
// interface and wiring in the card/deck/evaluator/pot/betting/events
// packages it used to implement ad hoc.
package engine

import "github.com/lox/holdem-engine/internal/card"

// SeatID identifies a seat across a hand's lifetime.
type SeatID string

// State is a seat's standing in the table, broader than betting.State
// since it also covers seats not dealt into the current hand.
type State int

const (
	Waiting State = iota
	Active
	Folded
	AllIn
	SittingOut
	Eliminated
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Active:
		return "active"
	case Folded:
		return "folded"
	case AllIn:
		return "all-in"
	case SittingOut:
		return "sitting-out"
	case Eliminated:
		return "eliminated"
	default:
		return "unknown"
	}
}

// LastAction records the most recent action a seat took, for display
// and for the betting-history carried in prompts.
type LastAction int

const (
	NoAction LastAction = iota
	Checked
	Called
	Betted
	Raised
	FoldedAction
	AllInAction
)

func (a LastAction) String() string {
	switch a {
	case Checked:
		return "check"
	case Called:
		return "call"
	case Betted:
		return "bet"
	case Raised:
		return "raise"
	case FoldedAction:
		return "fold"
	case AllInAction:
		return "all-in"
	default:
		return "none"
	}
}

// Seat is one table seat as seen by the engine for the duration of a
// hand.
type Seat struct {
	ID                    SeatID
	Chips                 int
	Bet                   int
	TotalCommitted        int
	HoleCards             []card.Card
	State                 State
	LastAction            LastAction
	HasActedThisRound     bool
	StartingChipsThisHand int
	Agent                 Agent
}
