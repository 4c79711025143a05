package engine

import "github.com/lox/holdem-engine/internal/pot"

// Summary is what Controller.Run returns once a hand has fully resolved: the
// event stream is the authoritative record, but callers driving a
// tournament loop (deciding whether to start another hand) need this
// without re-deriving it from events.
type Summary struct {
	HandID     string
	Winners    []SeatID
	TotalPot   int
	Awards     []pot.Award
	Eliminated []SeatID
}
