package session

import "sync"

// Store is a process-wide keyed session map. All read-modify-write access to
// one key is serialized by a per-key mutex, so duplicate webhook deliveries
// for the same identifier cannot interleave. Callers must never nest Update
// calls for different keys of the same or another store from inside fn; run
// cross-session effects after the owning Update returns.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	create  func(id string) *T
}

type entry[T any] struct {
	mu   sync.Mutex
	val  *T
	gone bool // set by Delete; holders of a stale entry must retry
}

// NewStore builds a store with a factory for absent keys.
func NewStore[T any](create func(id string) *T) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		create:  create,
	}
}

func (s *Store[T]) entryFor(id string, createMissing bool) *entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		if !createMissing {
			return nil
		}
		e = &entry[T]{val: s.create(id)}
		s.entries[id] = e
	}
	return e
}

// Update runs fn on the session for id, creating it when absent, with the
// per-key lock held. A concurrent Delete can invalidate the entry between the
// map lookup and the lock; the loop retries against a fresh entry so the
// mutation is never lost on an orphan.
func (s *Store[T]) Update(id string, fn func(*T)) {
	for {
		e := s.entryFor(id, true)
		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		fn(e.val)
		e.mu.Unlock()
		return
	}
}

// With runs fn only when a session for id exists. Returns whether it ran.
func (s *Store[T]) With(id string, fn func(*T)) bool {
	for {
		e := s.entryFor(id, false)
		if e == nil {
			return false
		}
		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		fn(e.val)
		e.mu.Unlock()
		return true
	}
}

// Reset replaces the session for id with a fresh one. Returns false when no
// session existed.
func (s *Store[T]) Reset(id string) bool {
	for {
		e := s.entryFor(id, false)
		if e == nil {
			return false
		}
		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		e.val = s.create(id)
		e.mu.Unlock()
		return true
	}
}

// Delete removes the session for id entirely. The entry is marked stale under
// its own lock, which waits out any in-flight mutation and sends later
// holders of the old entry back through the map.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.gone = true
	e.mu.Unlock()
	return true
}

// Keys returns the identifiers of all live sessions.
func (s *Store[T]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Range runs fn for every live session, holding one per-key lock at a time.
// fn must not call back into the store.
func (s *Store[T]) Range(fn func(id string, v *T)) {
	for _, id := range s.Keys() {
		s.With(id, func(v *T) { fn(id, v) })
	}
}

// Len reports the number of live sessions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
