package deck

import (
	"math/rand"
	"testing"

	"github.com/lox/holdem-engine/internal/card"
)

func TestNewProducesFullDeck(t *testing.T) {
	d := New(NewRandShuffler(rand.New(rand.NewSource(1))))
	if d.Remaining() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Remaining())
	}

	seen := make(map[card.Card]bool)
	for d.Remaining() > 0 {
		c, err := d.Draw()
		if err != nil {
			t.Fatalf("unexpected draw error: %v", err)
		}
		if seen[c] {
			t.Fatalf("duplicate card drawn: %v", c)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Fatalf("expected 52 unique cards, saw %d", len(seen))
	}
}

func TestDrawExhaustion(t *testing.T) {
	d := NewOrdered([]card.Card{card.New(card.Ace, card.Spades)})
	if _, err := d.Draw(); err != nil {
		t.Fatalf("unexpected error on first draw: %v", err)
	}
	if _, err := d.Draw(); err != ErrInsufficientCards {
		t.Fatalf("expected ErrInsufficientCards, got %v", err)
	}
}

func TestDrawNFailsAtomically(t *testing.T) {
	d := NewOrdered([]card.Card{card.New(card.Two, card.Clubs), card.New(card.Three, card.Clubs)})
	if _, err := d.DrawN(3); err != ErrInsufficientCards {
		t.Fatalf("expected ErrInsufficientCards, got %v", err)
	}
	if d.Remaining() != 2 {
		t.Fatalf("a failed DrawN must not consume cards, remaining=%d", d.Remaining())
	}
}

func TestNewOrderedDealingOrder(t *testing.T) {
	seq := []card.Card{
		card.New(card.Ace, card.Spades),
		card.New(card.King, card.Hearts),
		card.New(card.Queen, card.Diamonds),
	}
	d := NewOrdered(seq)
	for _, want := range seq {
		got, err := d.Draw()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("dealt %v, want %v", got, want)
		}
	}
}
