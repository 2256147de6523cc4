// Package store holds the in-memory enumeration catalog and notifies
// subscribers whenever it is replaced.
//
// The Store is the single source of truth for the catalog of one configured
// client. Loaders replace the catalog wholesale through SetCatalog; consumers
// read it through State or register a Subscriber. Subscribers are invoked
// synchronously, in registration order, with their own copy of the new state.
// A new subscriber is invoked once with the current state before Subscribe
// returns, so it never waits for the next change to learn the current value.
//
// The store never logs and never returns errors.
package store

import (
	"slices"
	"sync"
	"time"

	"github.com/c360studio/semenums/enum"
	"github.com/google/uuid"
)

// State is an immutable snapshot of the catalog.
type State struct {
	// Enums is the catalog at this revision.
	Enums enum.Catalog `json:"enums"`

	// Revision increases by one on every SetCatalog. The initial empty
	// state has revision 0.
	Revision uint64 `json:"revision"`

	// UpdatedAt is when the catalog was installed. Zero for the initial state.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Enums = s.Enums.Clone()
	return s
}

// Subscriber receives the state after every catalog replacement.
type Subscriber func(State)

// Subscription is the handle returned by Subscribe. Subscribing the same
// function twice yields two distinct subscriptions.
type Subscription struct {
	id uuid.UUID
	fn Subscriber
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() string {
	return s.id.String()
}

// Store holds the current catalog and the ordered subscriber list.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers []*Subscription

	now func() time.Time
}

// New creates a store with an empty catalog.
func New() *Store {
	return &Store{
		state: State{Enums: enum.Catalog{}},
		now:   time.Now,
	}
}

// State returns a copy of the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	return state.Clone()
}

// SetCatalog replaces the catalog and notifies every subscriber registered
// at the time of the call, in registration order, before returning.
// The catalog is copied; later changes to the argument are not observed.
func (s *Store) SetCatalog(catalog enum.Catalog) {
	s.mu.Lock()
	s.state = State{
		Enums:     catalog.Clone(),
		Revision:  s.state.Revision + 1,
		UpdatedAt: s.now(),
	}
	state := s.state
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, sub := range subscribers {
		sub.fn(state.Clone())
	}
}

// Subscribe registers fn and immediately invokes it once with the current
// state. The returned handle is used to unsubscribe.
//
// The replay runs outside the store lock, so a concurrent SetCatalog may
// deliver a newer state before the replay arrives. Subscribers that need
// ordered delivery compare State.Revision and drop anything not newer than
// what they already hold; the highest revision a subscriber sees is always
// the store's latest.
func (s *Store) Subscribe(fn Subscriber) *Subscription {
	sub := &Subscription{id: uuid.New(), fn: fn}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	state := s.state
	s.mu.Unlock()

	fn(state.Clone())
	return sub
}

// Unsubscribe removes the subscription. Unknown or nil handles are ignored.
func (s *Store) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = slices.DeleteFunc(s.subscribers, func(existing *Subscription) bool {
		return existing == sub
	})
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
