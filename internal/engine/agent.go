package engine

import (
	"context"

	"github.com/lox/holdem-engine/internal/betting"
	"github.com/lox/holdem-engine/internal/card"
)

// ActionType is the action a player agent can choose. It is the same
// closed set BettingRound validates against.
type ActionType = betting.ActionType

const (
	ActionFold  = betting.ActionFold
	ActionCheck = betting.ActionCheck
	ActionCall  = betting.ActionCall
	ActionBet   = betting.ActionBet
	ActionRaise = betting.ActionRaise
)

// Street names a betting round of the hand.
type Street string

const (
	PreFlop Street = "preflop"
	Flop    Street = "flop"
	Turn    Street = "turn"
	River   Street = "river"
)

// PublicSeat is the publicly observable slice of a seat's state handed
// to every agent in a Prompt; it never includes another seat's hole
// cards.
type PublicSeat struct {
	ID         SeatID
	Chips      int
	Bet        int
	State      State
	LastAction LastAction
}

// HistoryEntry is one resolved action taken earlier in the hand.
type HistoryEntry struct {
	SeatID SeatID
	Street Street
	Action ActionType
	Amount int
}

// Prompt is the validated-action snapshot an agent decides against. An
// agent can never be asked to guess wrong: ValidActions, ToCall,
// MinRaise, and MaxRaise are always consistent with what BettingRound
// will accept.
type Prompt struct {
	Street         Street
	CommunityCards []card.Card
	HoleCards      []card.Card
	SeatID         SeatID
	PublicSeats    []PublicSeat
	Pot            int
	CurrentBet     int
	ToCall         int
	MinRaise       int
	MaxRaise       int
	ValidActions   []ActionType
	BettingHistory []HistoryEntry
	TimeoutMs      int
}

// Decision is an agent's chosen response to a Prompt. Amount is the
// destination total bet for Bet/Raise ("raise to X"), as in betting.Action.
type Decision struct {
	Action ActionType
	Amount int
}

// Agent is the only way the engine ever touches a player's decision
// logic; it never reaches into agent internals or holds a back
// reference into the engine, matching the design note that replaces
// Player subclassing with a single-method interface. A synchronous
// implementation is permitted — it integrates at the same suspension
// point as an asynchronous one, since Decide is always invoked from its
// own goroutine.
type Agent interface {
	Decide(ctx context.Context, prompt Prompt) Decision
}

// legal reports whether d satisfies one of prompt's ValidActions.
func legal(prompt Prompt, d Decision) bool {
	for _, a := range prompt.ValidActions {
		if a == d.Action {
			return true
		}
	}
	return false
}

// defaultDecision substitutes Check if legal, else Fold, per the
// timeout/illegal-action fallback contract.
func defaultDecision(prompt Prompt) Decision {
	for _, a := range prompt.ValidActions {
		if a == ActionCheck {
			return Decision{Action: ActionCheck}
		}
	}
	return Decision{Action: ActionFold}
}
