// Package deck provides an ordered source of cards for a hand, built
// either from an injected Shuffler or from a caller-provided fixed
// sequence for deterministic tests.
package deck

import (
	"errors"
	"math/rand"

	"github.com/lox/holdem-engine/internal/card"
)

// ErrInsufficientCards is returned by Draw when the deck is exhausted.
var ErrInsufficientCards = errors.New("deck: insufficient cards")

// Shuffler orders a slice of cards in place. The engine never generates
// randomness itself; every Deck is built from a Shuffler supplied by the
// caller (or from an explicit ordered sequence for tests), per the
// external entropy-source contract.
type Shuffler interface {
	Shuffle(cards []card.Card)
}

// RandShuffler is the default Fisher-Yates shuffler backed by math/rand.
// Callers that need reproducible randomized hands should seed it
// explicitly rather than rely on a package-level default.
type RandShuffler struct {
	rng *rand.Rand
}

// NewRandShuffler returns a Shuffler seeded with the given source.
func NewRandShuffler(rng *rand.Rand) *RandShuffler {
	return &RandShuffler{rng: rng}
}

// Shuffle performs an in-place Fisher-Yates shuffle.
func (s *RandShuffler) Shuffle(cards []card.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deck is an ordered sequence of cards consumed from the head by Draw.
type Deck struct {
	cards []card.Card
}

// standard52 returns a freshly built, canonically ordered 52-card deck.
func standard52() []card.Card {
	cards := make([]card.Card, 0, 52)
	for _, suit := range card.Suits {
		for _, rank := range card.Ranks {
			cards = append(cards, card.New(rank, suit))
		}
	}
	return cards
}

// New builds a standard 52-card deck and orders it with shuffler.
func New(shuffler Shuffler) *Deck {
	cards := standard52()
	shuffler.Shuffle(cards)
	return &Deck{cards: cards}
}

// NewOrdered builds a deck from a caller-provided sequence, used to make
// dealing order deterministic in tests. The sequence is copied and
// consumed exactly as given; it need not be a full 52-card deck.
func NewOrdered(sequence []card.Card) *Deck {
	cards := make([]card.Card, len(sequence))
	copy(cards, sequence)
	return &Deck{cards: cards}
}

// Draw removes and returns the card at the head of the deck.
func (d *Deck) Draw() (card.Card, error) {
	if len(d.cards) == 0 {
		return card.Card{}, ErrInsufficientCards
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

// DrawN draws n cards in order, or returns ErrInsufficientCards and draws
// nothing if fewer than n remain.
func (d *Deck) DrawN(n int) ([]card.Card, error) {
	if n > len(d.cards) {
		return nil, ErrInsufficientCards
	}
	out := make([]card.Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
