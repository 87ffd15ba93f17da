package state

import "sync"

// EventType classifies auth-state-change notifications.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is an auth-state-change notification. Subject names the affected
// user for sign-in and refresh events; it is empty for sign-out. Listeners
// re-derive state from their own source rather than trusting the payload.
type Event struct {
	Type    EventType
	Subject string
}

// Bus is a minimal in-process publisher for auth-state changes. The OAuth
// completion and sign-out handlers publish; auth states subscribe for their
// mount lifetime.
type Bus struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for every subsequent event. The returned cancel
// detaches the listener; it must be called on unmount or the listener leaks
// across navigations.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers e to every current subscriber. Delivery is synchronous and
// in indeterminate order; subscribers must not block.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
