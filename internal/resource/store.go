package resource

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Entity is a record with a server-assigned integer id.
type Entity interface {
	EntityID() int
}

// State is a point-in-time copy of a store.
type State[T Entity] struct {
	Items     []T    `json:"items"`
	IsLoading bool   `json:"is_loading"`
	Error     string `json:"error,omitempty"`
}

// Store is the authoritative in-memory collection for one resource kind.
// Readers get copies; only the Dispatcher in this package mutates it.
type Store[T Entity] struct {
	name      string
	logger    *slog.Logger
	bus       *Bus
	strictIDs bool

	mu      sync.RWMutex
	items   []T
	pending int
	errMsg  string
}

// NewStore creates an empty store. name labels log lines and events.
func NewStore[T Entity](name string, opts ...Option) *Store[T] {
	o := buildOptions(opts)
	return &Store[T]{
		name:      name,
		logger:    o.logger,
		bus:       o.bus,
		strictIDs: o.strictIDs,
		items:     []T{},
	}
}

// Name returns the resource name.
func (s *Store[T]) Name() string { return s.name }

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State[T]{
		Items:     slices.Clone(s.items),
		IsLoading: s.pending > 0,
		Error:     s.errMsg,
	}
}

// Items returns a copy of the collection in store order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Get returns the first item with the given id.
func (s *Store[T]) Get(id int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Loading reports whether any request is outstanding.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

// Err returns the message of the most recent failure, or "".
func (s *Store[T]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Len returns the number of items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store[T]) indexOf(id int) int {
	return slices.IndexFunc(s.items, func(it T) bool { return it.EntityID() == id })
}

// settle must be called with mu held.
func (s *Store[T]) settle() {
	if s.pending > 0 {
		s.pending--
	}
}

func (s *Store[T]) event(kind EventKind, id int) Event {
	return Event{
		Resource:  s.name,
		Kind:      kind,
		ID:        id,
		Error:     s.errMsg,
		IsLoading: s.pending > 0,
		Count:     len(s.items),
		At:        time.Now().UTC(),
	}
}

func (s *Store[T]) onRequestStarted() {
	s.mu.Lock()
	s.pending++
	evt := s.event(EventPending, 0)
	s.mu.Unlock()
	s.bus.Publish(evt)
}

// onCreateSucceeded appends e. With strict ids a duplicate is recorded as
// a failure and ErrDuplicateID is returned.
func (s *Store[T]) onCreateSucceeded(e T) error {
	id := e.EntityID()
	s.mu.Lock()
	s.settle()
	if s.indexOf(id) >= 0 {
		if s.strictIDs {
			s.errMsg = fmt.Sprintf("%s %d already exists", s.name, id)
			evt := s.event(EventFailed, id)
			s.mu.Unlock()
			s.logger.Warn("create rejected: duplicate id", "resource", s.name, "id", id)
			s.bus.Publish(evt)
			return fmt.Errorf("%s %d: %w", s.name, id, ErrDuplicateID)
		}
		s.logger.Warn("create returned an id already in the store", "resource", s.name, "id", id)
	}
	s.items = append(s.items, e)
	s.errMsg = ""
	evt := s.event(EventCreated, id)
	s.mu.Unlock()
	s.bus.Publish(evt)
	return nil
}

// onUpdateSucceeded replaces the first item with e's id in place. An id
// the store does not hold leaves the items unchanged.
func (s *Store[T]) onUpdateSucceeded(e T) bool {
	id := e.EntityID()
	s.mu.Lock()
	s.settle()
	i := s.indexOf(id)
	if i >= 0 {
		s.items[i] = e
	}
	s.errMsg = ""
	evt := s.event(EventUpdated, id)
	s.mu.Unlock()
	if i < 0 {
		s.logger.Warn("update for unknown id dropped", "resource", s.name, "id", id)
	}
	s.bus.Publish(evt)
	return i >= 0
}

// onDeleteSucceeded removes every item with the id and returns how many
// were removed.
func (s *Store[T]) onDeleteSucceeded(id int) int {
	s.mu.Lock()
	s.settle()
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(it T) bool { return it.EntityID() == id })
	removed := before - len(s.items)
	s.errMsg = ""
	evt := s.event(EventDeleted, id)
	s.mu.Unlock()
	s.bus.Publish(evt)
	return removed
}

// onListSucceeded replaces the collection with items.
func (s *Store[T]) onListSucceeded(items []T) {
	s.mu.Lock()
	s.settle()
	s.items = slices.Clone(items)
	if s.items == nil {
		s.items = []T{}
	}
	s.errMsg = ""
	evt := s.event(EventLoaded, 0)
	s.mu.Unlock()
	s.bus.Publish(evt)
}

// onRequestFailed records msg and leaves the items unchanged.
func (s *Store[T]) onRequestFailed(msg string) {
	s.mu.Lock()
	s.settle()
	s.errMsg = msg
	evt := s.event(EventFailed, 0)
	s.mu.Unlock()
	s.bus.Publish(evt)
}

// onRequestDiscarded settles a completion that arrived after a newer one
// for the same id. Items and the error slot are unchanged.
func (s *Store[T]) onRequestDiscarded(id int) {
	s.mu.Lock()
	s.settle()
	evt := s.event(EventStale, id)
	s.mu.Unlock()
	s.bus.Publish(evt)
}
