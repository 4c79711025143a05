package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/holdem-engine/internal/betting"
	"github.com/lox/holdem-engine/internal/card"
	"github.com/lox/holdem-engine/internal/deck"
	"github.com/lox/holdem-engine/internal/events"
	"github.com/lox/holdem-engine/internal/evaluator"
	"github.com/lox/holdem-engine/internal/pot"
)

// ErrHandCancelled wraps the reason a hand was aborted mid-play (deck
// exhaustion is the only such case the engine itself can hit).
var ErrHandCancelled = errors.New("engine: hand cancelled")

// Config carries everything about a single hand's setup that the
// Controller needs but does not compute itself: blind amounts, the
// seats PositionResolver assigned to the button and blinds for this
// hand, and the dealing order. DealOrder is the clockwise order of this
// hand's participants starting immediately left of the button,
// precomputed by the caller (the Table walks its full, possibly-sparse
// seat ring clockwise from the resolved first postflop actor) and reused
// here both for dealing and for finding each postflop street's first
// actor.
type Config struct {
	HandID            string
	SmallBlind        int
	BigBlind          int
	TimeoutMs         int
	Button            SeatID
	SmallBlindSeat    SeatID
	BigBlindSeat      SeatID
	IsDeadSmallBlind  bool
	FirstToActPreflop SeatID
	DealOrder         []SeatID
}

// Controller orchestrates one hand end to end: blinds, dealing, a
// BettingRound per street, pot settlement, showdown, and award
// application. It generalizes the teacher's HandState.NextStreet/
// ProcessAction merged with GameEngine.PlayHand into the single
// orchestration loop spec §4.6 describes.
type Controller struct {
	cfg      Config
	seats    []*Seat
	seatByID map[SeatID]*Seat

	deck   *deck.Deck
	potMgr *pot.Manager
	bus    *events.Bus
	clock  quartz.Clock

	community []card.Card
	history   []HistoryEntry
}

// NewController prepares a hand for the given seats (fixed clockwise
// table order; every seat must be Active and have
// StartingChipsThisHand already snapshotted by the caller).
func NewController(cfg Config, seats []*Seat, d *deck.Deck, bus *events.Bus, clock quartz.Clock) *Controller {
	byID := make(map[SeatID]*Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}
	return &Controller{
		cfg:      cfg,
		seats:    seats,
		seatByID: byID,
		deck:     d,
		potMgr:   pot.New(),
		bus:      bus,
		clock:    clock,
	}
}

// Run plays the hand to completion: blinds, streets, showdown, awards,
// and eliminations, emitting events throughout. It returns a non-nil
// error only when the hand was aborted (deck exhaustion); every other
// failure mode (illegal or absent agent decisions, timeouts) is
// substituted and logged via events rather than propagated.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	c.emitHandStarted()
	c.postBlinds()

	if err := c.dealHoleCards(); err != nil {
		return c.cancel(err)
	}

	streets := []Street{PreFlop, Flop, Turn, River}
	for _, street := range streets {
		if street != PreFlop {
			c.syncPotContributions()
			c.potMgr.SettleStreet()
			c.resetStreet()
			if err := c.dealCommunity(street); err != nil {
				return c.cancel(err)
			}
		}

		c.bus.Publish(events.NewRoundStarted(c.clock.Now(), string(street)))

		if c.countNonFolded() <= 1 {
			break
		}

		if c.canBet() {
			actingFirst := c.cfg.FirstToActPreflop
			if street != PreFlop {
				actingFirst = c.firstActiveInDealOrder()
			}
			if actingFirst != "" {
				c.runStreetBetting(ctx, street, actingFirst)
			}
		}

		if c.countNonFolded() <= 1 {
			break
		}
	}

	return c.settleAndAward()
}

// postBlinds commits the small and big blind, leaving a dead small
// blind (empty/eliminated seat) or a short all-in small blind (not
// enough chips to cover it) exactly as spec §4.4/§9 describe: in
// either case nothing special is required of the betting round itself,
// since a short blind's own Bet simply falls below whatever the big
// blind posts and BettingRound.Snapshot already charges it the
// difference as ToCall.
func (c *Controller) postBlinds() {
	if !c.cfg.IsDeadSmallBlind && c.cfg.SmallBlindSeat != "" {
		c.postOne(c.cfg.SmallBlindSeat, c.cfg.SmallBlind)
	}
	if c.cfg.BigBlindSeat != "" {
		c.postOne(c.cfg.BigBlindSeat, c.cfg.BigBlind)
	}
	c.emitPotUpdated()
}

func (c *Controller) postOne(id SeatID, amount int) {
	s, ok := c.seatByID[id]
	if !ok {
		return
	}
	if amount > s.Chips {
		amount = s.Chips
	}
	s.Chips -= amount
	s.Bet += amount
	s.TotalCommitted += amount
	if s.Chips == 0 {
		s.State = AllIn
	}
}

// dealHoleCards deals two cards to each seat in this hand, one card to
// every seat starting left of the button before the second pass, per
// spec §4.2's dealing-order contract.
func (c *Controller) dealHoleCards() error {
	order := c.dealOrderSeats()
	for pass := 0; pass < 2; pass++ {
		for _, s := range order {
			cd, err := c.deck.Draw()
			if err != nil {
				return err
			}
			s.HoleCards = append(s.HoleCards, cd)
		}
	}
	return nil
}

func (c *Controller) dealOrderSeats() []*Seat {
	out := make([]*Seat, 0, len(c.cfg.DealOrder))
	for _, id := range c.cfg.DealOrder {
		if s, ok := c.seatByID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Controller) firstActiveInDealOrder() SeatID {
	for _, id := range c.cfg.DealOrder {
		if s, ok := c.seatByID[id]; ok && s.State == Active {
			return id
		}
	}
	return ""
}

// dealCommunity burns one card then deals the street's community cards
// (3 for the flop, 1 each for turn/river), per spec §4.2.
func (c *Controller) dealCommunity(street Street) error {
	var n int
	switch street {
	case Flop:
		n = 3
	case Turn, River:
		n = 1
	default:
		return nil
	}

	if _, err := c.deck.Draw(); err != nil { // burn
		return err
	}
	cards, err := c.deck.DrawN(n)
	if err != nil {
		return err
	}
	c.community = append(c.community, cards...)

	strs := make([]string, len(cards))
	for i, cd := range cards {
		strs[i] = cd.String()
	}
	c.bus.Publish(events.NewStreetDealt(c.clock.Now(), string(street), strs))
	return nil
}

func (c *Controller) resetStreet() {
	for _, s := range c.seats {
		s.Bet = 0
		s.HasActedThisRound = false
	}
}

// canBet reports whether more than one seat can still voluntarily act
// this street; if at most one Active seat remains (the rest already
// folded or all-in) no further betting is possible and the engine just
// deals out the remaining streets.
func (c *Controller) canBet() bool {
	n := 0
	for _, s := range c.seats {
		if s.State == Active {
			n++
		}
	}
	return n >= 2
}

func (c *Controller) countNonFolded() int {
	n := 0
	for _, s := range c.seats {
		if s.State != Folded {
			n++
		}
	}
	return n
}

// runStreetBetting drives one street's BettingRound to completion,
// prompting each acting seat exactly once per decision (Issue #18) and
// rechecking the round's completion/next-to-act state after every
// single action (the recheck that the v4.0.1 infinite-loop regression
// skipped after a fold).
func (c *Controller) runStreetBetting(ctx context.Context, street Street, actingFirst SeatID) {
	bettingSeats := c.buildBettingSeats()
	round := betting.New(bettingSeats, c.cfg.BigBlind, betting.SeatID(actingFirst))

	preStreetBet := make(map[SeatID]int, len(bettingSeats))
	for _, bs := range bettingSeats {
		preStreetBet[SeatID(bs.ID)] = bs.Bet
	}

	for {
		actingID, ok := round.ActingSeat()
		if !ok {
			return
		}
		seatID := SeatID(actingID)
		seat := c.seatByID[seatID]

		snap, err := round.Snapshot(actingID)
		if err != nil {
			return
		}

		prompt := c.buildPrompt(street, seat, snap, round.CurrentBet())
		c.bus.Publish(events.NewPrompt(c.clock.Now(), string(seat.ID), actionStrings(snap.Legal), snap.ToCall, snap.MinRaiseTo, snap.MaxRaiseTo, prompt.TimeoutMs))

		decision := c.decide(ctx, seat, prompt)
		action := betting.Action{Type: decision.Action, Amount: decision.Amount}
		betBefore := seat.Bet

		if err := round.Apply(actingID, action); err != nil {
			c.bus.Publish(events.NewActionRejected(c.clock.Now(), string(seat.ID), err.Error()))
			fallback := defaultDecision(prompt)
			action = betting.Action{Type: fallback.Action, Amount: fallback.Amount}
			if err := round.Apply(actingID, action); err != nil {
				// Snapshot always offers at least one of Check/Fold as
				// legal, so a default built from it should never be
				// rejected; bail out rather than loop forever if it is.
				return
			}
		}

		c.syncSeatsFromRound(round, preStreetBet)

		committed := seat.Bet - betBefore
		last := classify(action.Type, seat.State == AllIn)
		seat.LastAction = last

		c.history = append(c.history, HistoryEntry{SeatID: seat.ID, Street: street, Action: action.Type, Amount: committed})
		c.bus.Publish(events.NewPlayerAction(c.clock.Now(), string(seat.ID), last.String(), committed))
		c.emitPotUpdated()

		if c.countNonFolded() <= 1 {
			return
		}
	}
}

func (c *Controller) buildBettingSeats() []betting.Seat {
	out := make([]betting.Seat, 0, len(c.cfg.DealOrder))
	for _, id := range c.cfg.DealOrder {
		s, ok := c.seatByID[id]
		if !ok || (s.State != Active && s.State != AllIn) {
			continue
		}
		st := betting.Active
		if s.State == AllIn {
			st = betting.AllIn
		}
		out = append(out, betting.Seat{ID: betting.SeatID(s.ID), Bet: s.Bet, Chips: s.Chips, State: st})
	}
	return out
}

func (c *Controller) syncSeatsFromRound(round *betting.Round, preStreetBet map[SeatID]int) {
	for _, bs := range round.Seats() {
		id := SeatID(bs.ID)
		s, ok := c.seatByID[id]
		if !ok {
			continue
		}
		delta := bs.Bet - preStreetBet[id]
		s.TotalCommitted += delta
		s.Chips = bs.Chips
		s.Bet = bs.Bet
		preStreetBet[id] = bs.Bet

		switch bs.State {
		case betting.Folded:
			s.State = Folded
		case betting.AllIn:
			s.State = AllIn
		}
	}
}

func classify(actionType betting.ActionType, becameAllIn bool) LastAction {
	switch actionType {
	case betting.ActionFold:
		return FoldedAction
	case betting.ActionCheck:
		return Checked
	case betting.ActionCall:
		if becameAllIn {
			return AllInAction
		}
		return Called
	case betting.ActionBet:
		if becameAllIn {
			return AllInAction
		}
		return Betted
	case betting.ActionRaise:
		if becameAllIn {
			return AllInAction
		}
		return Raised
	default:
		return NoAction
	}
}

func actionStrings(actions []betting.ActionType) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}

// buildPrompt assembles the validated-action snapshot an agent decides
// against, per spec §4.5's "validated action snapshot" contract.
func (c *Controller) buildPrompt(street Street, seat *Seat, snap betting.Snapshot, currentBet int) Prompt {
	return Prompt{
		Street:         street,
		CommunityCards: append([]card.Card(nil), c.community...),
		HoleCards:      append([]card.Card(nil), seat.HoleCards...),
		SeatID:         seat.ID,
		PublicSeats:    c.publicSeats(),
		Pot:            c.liveTotal(),
		CurrentBet:     currentBet,
		ToCall:         snap.ToCall,
		MinRaise:       snap.MinRaiseTo,
		MaxRaise:       snap.MaxRaiseTo,
		ValidActions:   append([]ActionType(nil), snap.Legal...),
		BettingHistory: append([]HistoryEntry(nil), c.history...),
		TimeoutMs:      c.cfg.TimeoutMs,
	}
}

func (c *Controller) publicSeats() []PublicSeat {
	out := make([]PublicSeat, 0, len(c.seats))
	for _, s := range c.seats {
		out = append(out, PublicSeat{ID: s.ID, Chips: s.Chips, Bet: s.Bet, State: s.State, LastAction: s.LastAction})
	}
	return out
}

func (c *Controller) liveTotal() int {
	total := 0
	for _, s := range c.seats {
		total += s.TotalCommitted
	}
	return total
}

func (c *Controller) deadMoney() int {
	total := 0
	for _, s := range c.seats {
		if s.State == Folded {
			total += s.TotalCommitted
		}
	}
	return total
}

func (c *Controller) emitPotUpdated() {
	c.bus.Publish(events.NewPotUpdated(c.clock.Now(), c.liveTotal(), c.deadMoney()))
}

func (c *Controller) emitHandStarted() {
	ids := make([]string, 0, len(c.seats))
	for _, s := range c.seats {
		ids = append(ids, string(s.ID))
	}
	c.bus.Publish(events.NewHandStarted(c.clock.Now(), c.cfg.HandID, ids, string(c.cfg.Button), c.cfg.SmallBlind, c.cfg.BigBlind))
}

func (c *Controller) syncPotContributions() {
	for _, s := range c.seats {
		c.potMgr.Contribute(pot.PlayerID(s.ID), s.TotalCommitted, s.State == Folded, s.State == AllIn)
	}
}

// settleAndAward closes out the hand: final settlement, the uncalled-bet
// refund (documented against Issue #11), showdown reveals, pot award,
// and elimination in the strict order spec §4.6 requires:
// pot.awarded* -> hand.ended -> player.eliminated* (Issue #33).
func (c *Controller) settleAndAward() (Summary, error) {
	c.syncPotContributions()
	grossTotal := c.liveTotal()

	// RefundUncalledBet must run before this street's final SettleStreet
	// so the rebuilt pots already reflect the reduced contribution; doing
	// it the other way around would let the refunded seat collect the
	// same chips twice, once back into its stack and once again as part
	// of a pot that still counted them.
	refund := c.potMgr.RefundUncalledBet()
	var refundSeat *Seat
	if refund > 0 {
		refundSeat = c.highestCommittedSeat()
	}

	c.potMgr.SettleStreet()

	if refundSeat != nil {
		refundSeat.Chips += refund
		refundSeat.TotalCommitted -= refund
	}

	nonFolded := c.nonFoldedSeats()
	if len(nonFolded) > 1 {
		c.revealShowdown(nonFolded)
	}

	rankFunc := func(id pot.PlayerID) pot.Ranking {
		s := c.seatByID[SeatID(id)]
		return handRanking{rank: evaluator.Rank(s.HoleCards, c.community)}
	}

	awards := c.potMgr.Award(rankFunc, c.buttonOrder())
	c.emitPotAwards(awards)

	winnerSet := make(map[SeatID]bool)
	for _, a := range awards {
		s := c.seatByID[SeatID(a.PlayerID)]
		s.Chips += a.Amount
		winnerSet[SeatID(a.PlayerID)] = true
	}

	// Every pot is paid out, so no chips remain in flight: Chips alone now
	// carries each seat's full stack.
	for _, s := range c.seats {
		s.TotalCommitted = 0
	}

	winners := make([]SeatID, 0, len(winnerSet))
	for id := range winnerSet {
		winners = append(winners, id)
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })

	winnerStrs := make([]string, len(winners))
	for i, w := range winners {
		winnerStrs[i] = string(w)
	}
	c.bus.Publish(events.NewHandEnded(c.clock.Now(), c.cfg.HandID, winnerStrs, grossTotal))

	eliminated := c.eliminateBustedSeats()

	return Summary{
		HandID:     c.cfg.HandID,
		Winners:    winners,
		TotalPot:   grossTotal,
		Awards:     awards,
		Eliminated: eliminated,
	}, nil
}

func (c *Controller) emitPotAwards(awards []pot.Award) {
	type aggregate struct {
		winners []string
		amount  int
		reason  string
	}
	agg := make(map[int]*aggregate)
	var order []int
	for _, a := range awards {
		g, ok := agg[a.PotIndex]
		if !ok {
			g = &aggregate{reason: string(a.Reason)}
			agg[a.PotIndex] = g
			order = append(order, a.PotIndex)
		}
		g.winners = append(g.winners, string(a.PlayerID))
		g.amount += a.Amount
	}
	sort.Ints(order)
	for _, idx := range order {
		g := agg[idx]
		c.bus.Publish(events.NewPotAwarded(c.clock.Now(), idx, g.winners, g.amount, g.reason))
	}
}

func (c *Controller) revealShowdown(seats []*Seat) {
	for _, s := range seats {
		rank := evaluator.Rank(s.HoleCards, c.community)
		holeStrs := make([]string, len(s.HoleCards))
		for i, cd := range s.HoleCards {
			holeStrs[i] = cd.String()
		}
		c.bus.Publish(events.NewShowdownRevealed(c.clock.Now(), string(s.ID), holeStrs, rank.String()))
	}
}

func (c *Controller) nonFoldedSeats() []*Seat {
	var out []*Seat
	for _, s := range c.seats {
		if s.State != Folded {
			out = append(out, s)
		}
	}
	return out
}

func (c *Controller) highestCommittedSeat() *Seat {
	var best *Seat
	for _, s := range c.seats {
		if best == nil || s.TotalCommitted > best.TotalCommitted {
			best = s
		}
	}
	return best
}

// buttonOrder returns this hand's participants starting from the seat
// closest left of the button, for split-pot remainder distribution.
func (c *Controller) buttonOrder() []pot.PlayerID {
	out := make([]pot.PlayerID, 0, len(c.cfg.DealOrder))
	for _, id := range c.cfg.DealOrder {
		out = append(out, pot.PlayerID(id))
	}
	return out
}

// eliminateBustedSeats marks every seat left with zero chips as
// Eliminated and emits player.eliminated in ascending
// startingChipsThisHand order, ties broken by seat order left of the
// button (Issue #28).
func (c *Controller) eliminateBustedSeats() []SeatID {
	var busted []*Seat
	for _, id := range c.cfg.DealOrder {
		s, ok := c.seatByID[id]
		if ok && s.Chips == 0 && s.State != Eliminated {
			busted = append(busted, s)
		}
	}
	sort.SliceStable(busted, func(i, j int) bool {
		return busted[i].StartingChipsThisHand < busted[j].StartingChipsThisHand
	})

	out := make([]SeatID, 0, len(busted))
	for _, s := range busted {
		s.State = Eliminated
		out = append(out, s.ID)
		c.bus.Publish(events.NewPlayerEliminated(c.clock.Now(), string(s.ID), s.Chips))
	}
	return out
}

// cancel aborts the hand: every seat's in-flight contribution returns
// to its chip stack so conservation holds even on a fatal deck error,
// and a hand.cancelled event replaces the normal awarded/ended
// sequence entirely.
func (c *Controller) cancel(err error) (Summary, error) {
	for _, s := range c.seats {
		s.Chips += s.TotalCommitted
		s.TotalCommitted = 0
		s.Bet = 0
	}
	c.bus.Publish(events.NewHandCancelled(c.clock.Now(), c.cfg.HandID, err.Error()))
	return Summary{HandID: c.cfg.HandID}, fmt.Errorf("%w: %v", ErrHandCancelled, err)
}

// decide invokes seat's agent for prompt, substituting the default
// legal action (Check if legal, else Fold) on timeout, panic, or an
// illegal response, per spec §7's non-fatal agent-failure policy. The
// timeout is driven by the injected clock so tests can exercise it
// deterministically with a quartz.Mock instead of real wall time.
func (c *Controller) decide(ctx context.Context, seat *Seat, prompt Prompt) Decision {
	deadline := time.Duration(prompt.TimeoutMs) * time.Millisecond
	decideCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	resultCh := make(chan Decision, 1)
	go func() {
		defer func() {
			if recover() != nil {
				resultCh <- Decision{}
			}
		}()
		resultCh <- seat.Agent.Decide(decideCtx, prompt)
	}()

	timedOut := make(chan struct{})
	timer := c.clock.AfterFunc(deadline, func() { close(timedOut) })
	defer timer.Stop()

	select {
	case d := <-resultCh:
		if !legal(prompt, d) {
			c.bus.Publish(events.NewActionRejected(c.clock.Now(), string(seat.ID), fmt.Sprintf("illegal action %s", d.Action)))
			return defaultDecision(prompt)
		}
		return d
	case <-timedOut:
		return defaultDecision(prompt)
	}
}
