package identity

import (
	"sync"
	"time"
)

// EventKind names an auth-state change.
type EventKind string

const (
	EventSignedUp  EventKind = "signed_up"
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// Event is published whenever an account signs up, in or out.
type Event struct {
	Kind      EventKind `json:"kind"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider,omitempty"`
	At        time.Time `json:"at"`
}

// bus fans auth events out to SSE subscribers.
type bus struct {
	mu   sync.RWMutex
	subs map[<-chan Event]chan Event
}

func newBus() *bus {
	return &bus{subs: make(map[<-chan Event]chan Event)}
}

func (b *bus) subscribe() <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = ch
	b.mu.Unlock()
	return ch
}

func (b *bus) unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(c)
	}
}

// publish never blocks; slow subscribers miss events.
func (b *bus) publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
