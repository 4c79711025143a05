package events

import (
	"testing"
	"time"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := NewBus(nil)
	var order []int

	b.Subscribe(func(Event) { order = append(order, 1) })
	b.Subscribe(func(Event) { order = append(order, 2) })
	b.Subscribe(func(Event) { order = append(order, 3) })

	b.Publish(NewHandStarted(time.Now(), "h1", nil, "", 0, 0))

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("handlers fired out of registration order: %v", order)
	}
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	b := NewBus(nil)
	secondRan := false

	b.Subscribe(func(Event) { panic("boom") })
	b.Subscribe(func(Event) { secondRan = true })

	b.Publish(NewHandStarted(time.Now(), "h1", nil, "", 0, 0))

	if !secondRan {
		t.Fatalf("a panicking handler must not prevent later handlers from running")
	}
}

func TestEventKindsAreStable(t *testing.T) {
	cases := []struct {
		event Event
		want  Kind
	}{
		{NewHandStarted(time.Now(), "h1", nil, "", 0, 0), KindHandStarted},
		{NewPotAwarded(time.Now(), 0, []string{"a"}, 10, ""), KindPotAwarded},
		{NewHandEnded(time.Now(), "h1", []string{"a"}, 10), KindHandEnded},
		{NewPlayerEliminated(time.Now(), "a", 0), KindPlayerEliminated},
	}
	for _, tc := range cases {
		if tc.event.Kind() != tc.want {
			t.Errorf("got kind %v, want %v", tc.event.Kind(), tc.want)
		}
	}
}
