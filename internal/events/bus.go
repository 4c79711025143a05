package events

import (
	"io"

	"github.com/charmbracelet/log"
)

// Handler receives every event published to a Bus.
type Handler func(Event)

// Bus fans an event out to every registered handler, synchronously and
// in registration order, from the goroutine that calls Publish. A
// panicking handler is recovered and logged rather than propagated, so
// one misbehaving subscriber cannot abort the hand for the others.
type Bus struct {
	handlers []Handler
	logger   *log.Logger
}

// NewBus returns an empty Bus. logger may be nil, in which case a
// silent logger is used.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel + 1})
	}
	return &Bus{logger: logger}
}

// Subscribe registers handler to receive every future Publish call.
func (b *Bus) Subscribe(handler Handler) {
	b.handlers = append(b.handlers, handler)
}

// Publish delivers event to every registered handler in registration
// order, on the calling goroutine.
func (b *Bus) Publish(event Event) {
	for _, h := range b.handlers {
		b.deliver(h, event)
	}
}

func (b *Bus) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "kind", event.Kind(), "recovered", r)
		}
	}()
	h(event)
}
