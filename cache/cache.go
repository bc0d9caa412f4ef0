// Package cache holds the client's in-memory view of server-owned
// collections. Each store partitions entities into scopes ("all boards",
// "tasks of board X") and keeps every scope as an ordered, id-keyed
// collection. Stores never return errors; failure handling belongs to
// the mutation coordinator.
package cache

import (
	"sync"
	"time"
)

// Entity is anything a store can index.
type Entity interface {
	EntityID() string
}

// Store is a scope-partitioned entity cache. All operations are atomic
// with respect to one another; readers always observe a fully applied
// write.
type Store[T Entity] struct {
	mu       sync.Mutex
	scopes   map[string]*collection[T]
	watchers []func()
	now      func() time.Time
}

type collection[T Entity] struct {
	items     []T
	index     map[string]int
	fetchedAt time.Time
}

// NewStore creates an empty store.
func NewStore[T Entity]() *Store[T] {
	return &Store[T]{
		scopes: make(map[string]*collection[T]),
		now:    time.Now,
	}
}

// Get returns a copy of the scope's collection in order. A scope that
// was never loaded yields an empty slice.
func (s *Store[T]) Get(scope string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.scopes[scope]
	if !ok {
		return []T{}
	}
	out := make([]T, len(col.items))
	copy(out, col.items)
	return out
}

// Set replaces the scope's collection wholesale and marks it freshly
// fetched. A duplicate id later in items replaces the earlier entry in
// place.
func (s *Store[T]) Set(scope string, items []T) {
	s.mu.Lock()
	col := &collection[T]{
		items:     make([]T, 0, len(items)),
		index:     make(map[string]int, len(items)),
		fetchedAt: s.now(),
	}
	for _, item := range items {
		if i, ok := col.index[item.EntityID()]; ok {
			col.items[i] = item
			continue
		}
		col.index[item.EntityID()] = len(col.items)
		col.items = append(col.items, item)
	}
	s.scopes[scope] = col
	s.notifyLocked()
}

// Upsert inserts the item at the tail of the scope, or replaces its
// value in place when the id already exists, preserving its position.
func (s *Store[T]) Upsert(scope string, item T) {
	s.mu.Lock()
	col, ok := s.scopes[scope]
	if !ok {
		col = &collection[T]{index: make(map[string]int)}
		s.scopes[scope] = col
	}
	if i, ok := col.index[item.EntityID()]; ok {
		col.items[i] = item
	} else {
		col.index[item.EntityID()] = len(col.items)
		col.items = append(col.items, item)
	}
	s.notifyLocked()
}

// Remove deletes the entity with the given id from the scope. Removing
// an absent id is a no-op.
func (s *Store[T]) Remove(scope, id string) {
	s.mu.Lock()
	col, ok := s.scopes[scope]
	if !ok {
		s.mu.Unlock()
		return
	}
	i, ok := col.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	col.items = append(col.items[:i], col.items[i+1:]...)
	delete(col.index, id)
	for j := i; j < len(col.items); j++ {
		col.index[col.items[j].EntityID()] = j
	}
	s.notifyLocked()
}

// Drop evicts the whole scope, as if it was never loaded.
func (s *Store[T]) Drop(scope string) {
	s.mu.Lock()
	if _, ok := s.scopes[scope]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.scopes, scope)
	s.notifyLocked()
}

// Loaded reports whether the scope has ever been populated.
func (s *Store[T]) Loaded(scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scopes[scope]
	return ok
}

// Stale reports whether the scope's last full fetch is older than the
// window. Scopes seeded from a persisted snapshot have no fetch time
// and are always stale; unloaded scopes are not.
func (s *Store[T]) Stale(scope string, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.scopes[scope]
	if !ok {
		return false
	}
	if col.fetchedAt.IsZero() {
		return true
	}
	return s.now().Sub(col.fetchedAt) >= window
}

// Scopes returns the keys of every loaded scope.
func (s *Store[T]) Scopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		out = append(out, scope)
	}
	return out
}

// Watch registers an observer invoked after every mutation. Observers
// run outside the store's lock and may read the store.
func (s *Store[T]) Watch(fn func()) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// Snapshot returns a deep copy of every scope's collection.
func (s *Store[T]) Snapshot() map[string][]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]T, len(s.scopes))
	for scope, col := range s.scopes {
		items := make([]T, len(col.items))
		copy(items, col.items)
		out[scope] = items
	}
	return out
}

// Restore seeds the store from a snapshot. Restored scopes carry no
// fetch time, so they are immediately eligible for refresh. Watchers
// are not notified; restore is not a mutation worth persisting again.
func (s *Store[T]) Restore(snapshot map[string][]T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for scope, items := range snapshot {
		col := &collection[T]{
			items: make([]T, 0, len(items)),
			index: make(map[string]int, len(items)),
		}
		for _, item := range items {
			if i, ok := col.index[item.EntityID()]; ok {
				col.items[i] = item
				continue
			}
			col.index[item.EntityID()] = len(col.items)
			col.items = append(col.items, item)
		}
		s.scopes[scope] = col
	}
}

// notifyLocked snapshots the watcher list, releases the lock and runs
// the watchers. Callers must hold s.mu and must not use it afterwards.
func (s *Store[T]) notifyLocked() {
	watchers := make([]func(), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}
