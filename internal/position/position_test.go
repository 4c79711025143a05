package position

import "testing"

func seats(elig ...Eligibility) []Seat {
	out := make([]Seat, len(elig))
	for i, e := range elig {
		out[i] = Seat{ID: SeatID(rune('A' + i)), Eligibility: e}
	}
	return out
}

func TestHeadsUpButtonIsSmallBlindAndActsFirstPreflop(t *testing.T) {
	s := seats(Eligible, Eligible)
	r := Resolve(s, PreviousHand{})

	if r.Button != r.SmallBlind {
		t.Fatalf("heads-up button must coincide with SB")
	}
	if r.FirstToActPreflop != r.Button {
		t.Fatalf("heads-up button must act first preflop")
	}
	if r.FirstToActPostflop != r.BigBlind {
		t.Fatalf("heads-up BB must act first postflop")
	}
}

func TestMultiwaySBBetweenButtonAndBB(t *testing.T) {
	s := seats(Eligible, Eligible, Eligible)
	r := Resolve(s, PreviousHand{})

	order := map[SeatID]int{s[0].ID: 0, s[1].ID: 1, s[2].ID: 2}
	buttonPos := order[r.Button]
	sbPos := order[r.SmallBlind]
	bbPos := order[r.BigBlind]

	if (buttonPos+1)%3 != sbPos {
		t.Fatalf("SB must be immediately clockwise of button")
	}
	if (sbPos+1)%3 != bbPos {
		t.Fatalf("BB must be immediately clockwise of SB")
	}
}

func TestButtonAdvancesToNextEligibleSeat(t *testing.T) {
	// Previous hand: button A, SB B, BB C.
	s := seats(Eligible, Eligible, Eligible)
	prev := PreviousHand{HasPlayed: true, Button: s[0].ID, BigBlind: s[2].ID}

	r := Resolve(s, prev)
	if r.Button != s[1].ID {
		t.Fatalf("button should advance to seat B, got %v", r.Button)
	}
}

func TestDeadButtonWhenSeatEliminated(t *testing.T) {
	// Previous hand: button A, SB B, BB C, D under the gun; B has since
	// busted, leaving three live seats so the hand is still multiway.
	s := seats(Eligible, Eliminated, Eligible, Eligible)
	prev := PreviousHand{HasPlayed: true, Button: s[0].ID, BigBlind: s[2].ID}

	r := Resolve(s, prev)
	if r.Button != s[1].ID {
		t.Fatalf("button designation should remain on the eliminated seat, got %v", r.Button)
	}
	if !r.IsDeadButton {
		t.Fatalf("expected dead button flag")
	}
}

func TestDeadSmallBlindWhenSBSeatEmpty(t *testing.T) {
	// Previous hand: button D, SB A, BB B; C's seat is empty.
	s := seats(Eligible, Eligible, Empty, Eligible)
	prev := PreviousHand{HasPlayed: true, Button: s[3].ID, BigBlind: s[1].ID}

	r := Resolve(s, prev)
	if r.Button != s[1].ID {
		t.Fatalf("expected button to land on seat B, got %v", r.Button)
	}
	if !r.IsDeadSmallBlind {
		t.Fatalf("expected dead small blind when the seat clockwise of button is empty")
	}
	if r.SmallBlind != s[2].ID {
		t.Fatalf("SB designation should remain on the empty seat, got %v", r.SmallBlind)
	}
}

func TestBigBlindNeverPostsTwiceInARow(t *testing.T) {
	s := seats(Eligible, Eligible, Eligible)
	prev := PreviousHand{HasPlayed: true, Button: s[0].ID, BigBlind: s[2].ID}

	r := Resolve(s, prev)
	if r.BigBlind == prev.BigBlind {
		t.Fatalf("BB must not repeat across consecutive hands in a stable 3-handed table")
	}
}

func TestHeadsUpAfterThreeHandedBustNeverRepeatsBBOrDeadens(t *testing.T) {
	// 3-handed A(button)/B(SB)/C(BB); B busts mid-hand, collapsing the
	// table to heads-up A/C for the next hand. The BB must still strictly
	// advance from C (never repeat), and since only two players remain
	// live the button/SB must land on one of them, never on B's now-dead
	// seat, per §4.4's heads-up rule.
	s := seats(Eligible, Eliminated, Eligible)
	prev := PreviousHand{HasPlayed: true, Button: s[0].ID, BigBlind: s[2].ID}

	r := Resolve(s, prev)

	if r.BigBlind == prev.BigBlind {
		t.Fatalf("BB must not repeat across the 3-handed-to-heads-up collapse")
	}
	if r.Button != r.SmallBlind {
		t.Fatalf("heads-up button must coincide with SB")
	}
	if r.Button == s[1].ID || r.BigBlind == s[1].ID {
		t.Fatalf("heads-up button/SB/BB must never land on the eliminated seat, got button=%v bb=%v", r.Button, r.BigBlind)
	}
	if r.IsDeadButton || r.IsDeadSmallBlind {
		t.Fatalf("heads-up can never have a dead button or dead SB")
	}
}
