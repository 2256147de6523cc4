// Package binding gives a consumer a live view of a catalog store.
//
// A Binding subscribes once and keeps the latest snapshot, so reads never
// touch the store. Consumers that need to react to changes drain Updates.
package binding

import (
	"sync"

	"github.com/c360studio/semenums/enum"
	"github.com/c360studio/semenums/paging"
	"github.com/c360studio/semenums/store"
)

// Binding holds the latest catalog snapshot of a store.
type Binding struct {
	store *store.Store
	sub   *store.Subscription

	mu       sync.RWMutex
	state    store.State
	received bool
	closed   bool
	updates  chan store.State
}

// Bind subscribes to s. The store replays its current state during the
// subscription, so the binding is populated when Bind returns.
func Bind(s *store.Store) *Binding {
	b := &Binding{
		store:   s,
		updates: make(chan store.State, 1),
	}
	b.sub = s.Subscribe(b.receive)
	return b
}

// receive installs st unless it is older than what the binding already
// holds. Concurrent catalog updates may deliver out of order.
func (b *Binding) receive(st store.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || (b.received && st.Revision <= b.state.Revision) {
		return
	}
	b.state = st
	b.received = true

	// latest wins
	select {
	case <-b.updates:
	default:
	}
	select {
	case b.updates <- st:
	default:
	}
}

// State returns the latest snapshot. Treat it as read-only.
func (b *Binding) State() store.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Enums returns the latest catalog. Treat it as read-only.
func (b *Binding) Enums() enum.Catalog {
	return b.State().Enums
}

// Enum returns the values of the named enum. A name missing from the catalog
// yields a *enum.MissingEnumError.
func (b *Binding) Enum(name string) (enum.Values, error) {
	return b.Enums().Lookup(name)
}

// Page filters and paginates the values of the named enum.
func (b *Binding) Page(name string, req paging.Request) (paging.Page[enum.Value], error) {
	values, err := b.Enum(name)
	if err != nil {
		return paging.Page[enum.Value]{}, err
	}
	return paging.PageOf(values, req, nil)
}

// Updates delivers new snapshots. It buffers one snapshot; a consumer that
// falls behind only sees the latest. The channel is closed by Close.
func (b *Binding) Updates() <-chan store.State {
	return b.updates
}

// Close unsubscribes from the store and closes Updates. It is safe to call
// more than once.
func (b *Binding) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.updates)
	b.mu.Unlock()

	b.store.Unsubscribe(b.sub)
}
