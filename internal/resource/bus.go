package resource

import (
	"sync"
	"time"
)

// EventKind names a store transition.
type EventKind string

const (
	EventPending EventKind = "pending"
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventLoaded  EventKind = "loaded"
	EventFailed  EventKind = "failed"
	EventStale   EventKind = "stale"
)

// Event describes one store transition. It carries the store's counters,
// not the items; subscribers read a Snapshot when they need them.
type Event struct {
	Resource  string    `json:"resource"`
	Kind      EventKind `json:"kind"`
	ID        int       `json:"id,omitempty"`
	Error     string    `json:"error,omitempty"`
	IsLoading bool      `json:"is_loading"`
	Count     int       `json:"count"`
	At        time.Time `json:"at"`
}

// Bus fans out store events to subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[<-chan Event]chan Event
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[<-chan Event]chan Event)}
}

// Subscribe registers a listener. The caller must call Unsubscribe when done.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[ch] = ch
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	if send, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(send)
	}
	b.mu.Unlock()
}

// Publish sends evt to every subscriber without blocking; slow consumers
// miss events.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
