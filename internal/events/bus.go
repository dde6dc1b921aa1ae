package events

import "sync"

// Handler consumes a published event
type Handler func(Event)

// Bus is a synchronous in-process event bus. Publish runs every handler
// subscribed to the event's type, in subscription order, on the caller's
// goroutine. Handlers must not block.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for the given event type
func (b *Bus) Subscribe(eventType string, h Handler) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[eventType] = append(b.subs[eventType], h)
}

// Publish delivers the event to every subscriber of its type before
// returning
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.subs[e.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Clear removes every subscriber for the given event type
func (b *Bus) Clear(eventType string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, eventType)
}
