package main

import (
	"context"
	"math/rand"

	holdem "github.com/lox/holdem-engine"
)

// foldAgent folds any bet and checks when free, grounded on the
// teacher's cmd/simulate "fold" opponent type.
type foldAgent struct{}

func (foldAgent) Decide(_ context.Context, prompt holdem.Prompt) holdem.Decision {
	if prompt.ToCall == 0 {
		return holdem.Decision{Action: holdem.ActionCheck}
	}
	return holdem.Decision{Action: holdem.ActionFold}
}

// callAgent always calls/checks, never folds or raises, grounded on
// the teacher's "call" opponent type.
type callAgent struct{}

func (callAgent) Decide(_ context.Context, prompt holdem.Prompt) holdem.Decision {
	if prompt.ToCall == 0 {
		return holdem.Decision{Action: holdem.ActionCheck}
	}
	return holdem.Decision{Action: holdem.ActionCall}
}

// randAgent picks uniformly among its legal actions, raising to a
// random point between MinRaise and MaxRaise when it raises, grounded
// on the teacher's "rand" opponent type.
type randAgent struct {
	rng *rand.Rand
}

func newRandAgent(rng *rand.Rand) *randAgent { return &randAgent{rng: rng} }

func (a *randAgent) Decide(_ context.Context, prompt holdem.Prompt) holdem.Decision {
	choice := prompt.ValidActions[a.rng.Intn(len(prompt.ValidActions))]
	switch choice {
	case holdem.ActionBet, holdem.ActionRaise:
		spread := prompt.MaxRaise - prompt.MinRaise
		amount := prompt.MinRaise
		if spread > 0 {
			amount += a.rng.Intn(spread + 1)
		}
		return holdem.Decision{Action: choice, Amount: amount}
	case holdem.ActionCall:
		return holdem.Decision{Action: holdem.ActionCall}
	default:
		return holdem.Decision{Action: choice}
	}
}

// newOpponent builds the agent named by kind, matching the teacher's
// createOpponent switch.
func newOpponent(kind string, rng *rand.Rand) holdem.PlayerAgent {
	switch kind {
	case "call":
		return callAgent{}
	case "rand":
		return newRandAgent(rng)
	case "fold":
		return foldAgent{}
	default:
		return foldAgent{}
	}
}
