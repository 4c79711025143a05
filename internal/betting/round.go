// Package betting implements one street's betting round: action
// legality, aggressor/reopening tracking, and the next-to-act scan. It
// generalizes the teacher's BettingRound/GetValidActions/
// IsBettingComplete, which tracked acted-state by slice index and
// needed the caller to remember to recheck after a fold — exactly the
// v4.0.1 infinite-loop bug this package's advance (run after every
// Apply) is written to avoid by being the single place that scan happens.
package betting

import (
	"errors"
	"math"
)

// SeatID identifies a seat within a betting round.
type SeatID string

// State is a seat's standing within the current hand.
type State int

const (
	Active State = iota
	Folded
	AllIn
	SittingOut
)

// ActionType is the kind of action a seat takes.
type ActionType int

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
)

func (a ActionType) String() string {
	switch a {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionBet:
		return "bet"
	case ActionRaise:
		return "raise"
	default:
		return "unknown"
	}
}

// Seat is a round participant in clockwise seating order.
type Seat struct {
	ID    SeatID
	Bet   int // chips committed to this street so far
	Chips int // chips remaining behind, not yet committed
	State State
}

// Action is a player's chosen move. Amount is the destination total bet
// for ActionBet/ActionRaise (i.e. "raise to X", not "raise by X");
// it is ignored for Fold/Check/Call.
type Action struct {
	Type   ActionType
	Amount int
}

// Snapshot is the validated-action payload computed for the seat about
// to act, so a player agent can never be prompted with an ambiguous or
// stale view of the round.
type Snapshot struct {
	ToCall     int
	MinRaiseTo int
	MaxRaiseTo int
	Legal      []ActionType
}

var (
	ErrIllegalAction  = errors.New("betting: illegal action")
	ErrNotActingSeat  = errors.New("betting: seat is not next to act")
	ErrRoundComplete  = errors.New("betting: round is already complete")
	ErrUnknownSeat    = errors.New("betting: unknown seat id")
)

// Round tracks one street's betting for a fixed seating order.
type Round struct {
	seats   []*Seat
	index   map[SeatID]int
	order   []SeatID // clockwise seating order, fixed for the round

	bigBlind            int
	currentBet          int
	minRaiseIncrement   int
	lastAggressor       SeatID
	actingIdx           int
	actedSinceLastRaise map[SeatID]bool
}

// New starts a betting round for the given seats (clockwise order,
// already carrying any posted blinds in Bet/Chips), with actingFirst
// the seat that acts first this street.
//
// actedSinceLastRaise always starts empty. This reproduces the
// preflop BB option without any special carve-out: the big blind is
// the one seat whose posted bet already equals currentBet before
// anyone has acted, so it is the only seat IsComplete can be satisfied
// on by bet-matching alone — and since it was never marked acted, the
// round stays open until BB explicitly checks or raises. Every other
// seat's bet still falls short of currentBet at this point, so it must
// act regardless of its acted-flag.
func New(seats []Seat, bigBlind int, actingFirst SeatID) *Round {
	r := &Round{
		bigBlind:            bigBlind,
		minRaiseIncrement:   bigBlind,
		actedSinceLastRaise: make(map[SeatID]bool),
	}

	currentBet := 0
	for i := range seats {
		s := seats[i]
		r.seats = append(r.seats, &s)
		r.order = append(r.order, s.ID)
		if s.Bet > currentBet {
			currentBet = s.Bet
		}
	}
	r.currentBet = currentBet

	r.index = make(map[SeatID]int, len(r.seats))
	for i, s := range r.seats {
		r.index[s.ID] = i
	}

	if idx, ok := r.index[actingFirst]; ok {
		r.actingIdx = idx
	}

	return r
}

func (r *Round) seatByID(id SeatID) (*Seat, bool) {
	idx, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.seats[idx], true
}

// ActingSeat returns the seat currently due to act, if any remain.
func (r *Round) ActingSeat() (SeatID, bool) {
	if r.IsComplete() {
		return "", false
	}
	return r.seats[r.actingIdx].ID, true
}

// Snapshot computes the validated-action payload for seatID.
func (r *Round) Snapshot(seatID SeatID) (Snapshot, error) {
	s, ok := r.seatByID(seatID)
	if !ok {
		return Snapshot{}, ErrUnknownSeat
	}

	toCall := r.currentBet - s.Bet
	maxRaiseTo := s.Bet + s.Chips

	snap := Snapshot{ToCall: toCall, MaxRaiseTo: maxRaiseTo}

	if toCall > 0 {
		snap.Legal = append(snap.Legal, ActionFold)
	}

	switch {
	case toCall == 0:
		snap.Legal = append(snap.Legal, ActionCheck)
		if s.Chips > 0 {
			snap.Legal = append(snap.Legal, ActionBet)
			minBet := max(r.bigBlind, r.minRaiseIncrement)
			if minBet > s.Chips {
				minBet = s.Chips
			}
			snap.MinRaiseTo = s.Bet + minBet
		}
	case toCall >= s.Chips:
		snap.Legal = append(snap.Legal, ActionCall) // all-in call, still classified Call
	default:
		snap.Legal = append(snap.Legal, ActionCall)
		if s.Chips > toCall {
			snap.Legal = append(snap.Legal, ActionRaise)
			minIncrement := r.minRaiseIncrement
			if minIncrement < r.bigBlind {
				minIncrement = r.bigBlind
			}
			want := r.currentBet + minIncrement
			if want > maxRaiseTo {
				want = maxRaiseTo
			}
			snap.MinRaiseTo = want
		}
	}

	return snap, nil
}

// Apply validates and applies seatID's action, advancing the acting
// pointer to the next eligible seat (or closing the round) afterward.
func (r *Round) Apply(seatID SeatID, action Action) error {
	acting, ok := r.ActingSeat()
	if !ok {
		return ErrRoundComplete
	}
	if acting != seatID {
		return ErrNotActingSeat
	}
	s, _ := r.seatByID(seatID)

	switch action.Type {
	case ActionFold:
		if r.currentBet <= s.Bet {
			return ErrIllegalAction
		}
		s.State = Folded

	case ActionCheck:
		if r.currentBet != s.Bet {
			return ErrIllegalAction
		}
		r.markActed(seatID)

	case ActionCall:
		if r.currentBet <= s.Bet {
			return ErrIllegalAction
		}
		amount := min(r.currentBet-s.Bet, s.Chips)
		s.Chips -= amount
		s.Bet += amount
		if s.Chips == 0 {
			s.State = AllIn
		}
		r.markActed(seatID)

	case ActionBet:
		if r.currentBet != 0 {
			return ErrIllegalAction
		}
		amount := action.Amount - s.Bet
		isShortAllIn := amount == s.Chips && amount < r.bigBlind
		if amount < r.bigBlind && !isShortAllIn {
			return ErrIllegalAction
		}
		if amount > s.Chips {
			return ErrIllegalAction
		}
		r.postRaiseOrBet(s, amount, action.Amount, isShortAllIn)

	case ActionRaise:
		if r.currentBet == 0 {
			return ErrIllegalAction
		}
		increment := action.Amount - r.currentBet
		amount := action.Amount - s.Bet
		isShortAllIn := amount == s.Chips && increment < r.minRaiseIncrement
		if increment < r.minRaiseIncrement && !isShortAllIn {
			return ErrIllegalAction
		}
		if amount > s.Chips {
			return ErrIllegalAction
		}
		r.postRaiseOrBet(s, amount, action.Amount, isShortAllIn)

	default:
		return ErrIllegalAction
	}

	r.advance()
	return nil
}

// postRaiseOrBet commits amount chips from s, updates currentBet, and
// handles the reopening rule: a full bet/raise resets
// actedSinceLastRaise to {aggressor}; a short all-in below the minimum
// increment does not reset it for seats that had already acted since
// the last full raise, but does for seats that had not yet acted.
func (r *Round) postRaiseOrBet(s *Seat, amount, newTotal int, isShortAllIn bool) {
	increment := newTotal - r.currentBet
	s.Chips -= amount
	s.Bet = newTotal
	if s.Chips == 0 {
		s.State = AllIn
	}
	r.currentBet = newTotal
	r.lastAggressor = s.ID

	if !isShortAllIn {
		r.minRaiseIncrement = increment
		r.actedSinceLastRaise = map[SeatID]bool{s.ID: true}
		return
	}

	// Short all-in: only seats that had not yet acted since the last
	// full raise get their action reopened.
	next := map[SeatID]bool{s.ID: true}
	for id, acted := range r.actedSinceLastRaise {
		if acted {
			next[id] = true
		}
	}
	r.actedSinceLastRaise = next
}

func (r *Round) markActed(seatID SeatID) {
	r.actedSinceLastRaise[seatID] = true
}

// advance moves actingIdx to the next seat clockwise that is Active,
// skipping Folded/AllIn/SittingOut. It is called after every Apply, so
// the round-end predicate below is always rechecked against the latest
// state rather than stale acted-flags from before the action.
func (r *Round) advance() {
	n := len(r.seats)
	for step := 1; step <= n; step++ {
		idx := (r.actingIdx + step) % n
		if r.seats[idx].State == Active {
			r.actingIdx = idx
			return
		}
	}
}

// IsComplete reports whether the round has ended: every non-folded,
// non-all-in seat has matched currentBet and has acted since the last
// raise.
func (r *Round) IsComplete() bool {
	for _, s := range r.seats {
		if s.State != Active {
			continue
		}
		if s.Bet != r.currentBet {
			return false
		}
		if !r.actedSinceLastRaise[s.ID] {
			return false
		}
	}
	return true
}

// Seats returns the round's current seat states in clockwise order.
func (r *Round) Seats() []Seat {
	out := make([]Seat, len(r.seats))
	for i, s := range r.seats {
		out[i] = *s
	}
	return out
}

// CurrentBet returns the chip amount every live seat must match to stay in.
func (r *Round) CurrentBet() int {
	return r.currentBet
}

// LastAggressor returns the seat that made the last bet or raise, or
// empty if no one has bet yet this street.
func (r *Round) LastAggressor() SeatID {
	return r.lastAggressor
}

// NormalizeAmount rounds a possibly-fractional chip amount to the
// nearest integer using round-half-to-even, and rejects negative or
// non-finite inputs by clamping to zero.
func NormalizeAmount(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return int(math.RoundToEven(x))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
