// Package darkmode holds the reader's light/dark preference. A Store is the
// in-memory state; SessionPreference persists it in a cookie session, and
// Script keeps it in localStorage when pages are served statically.
package darkmode

import (
	_ "embed"
	"sync"
)

// Body classes applied by Script, matching use-dark-mode's defaults.
const (
	ClassDark  = "dark-mode"
	ClassLight = "light-mode"
)

// Script is the client-side toggle for static hosting.
//
//go:embed darkmode.js
var Script []byte

// Preference is a persisted boolean with a toggle.
type Preference interface {
	Value() bool
	Toggle()
}

// Static is a fixed Preference, used when rendering pages ahead of time.
type Static bool

func (s Static) Value() bool { return bool(s) }

// Toggle is a no-op; static pages flip the preference client-side.
func (Static) Toggle() {}

// Store is a Preference that notifies subscribers on change.
type Store struct {
	mu     sync.RWMutex
	value  bool
	subs   map[int]func(bool)
	nextID int
}

// NewStore returns a Store holding initial.
func NewStore(initial bool) *Store {
	return &Store{value: initial, subs: make(map[int]func(bool))}
}

func (s *Store) Value() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Store) Toggle() {
	s.mu.Lock()
	s.value = !s.value
	v := s.value
	subs := s.snapshot()
	s.mu.Unlock()
	notify(subs, v)
}

// Set stores v. Subscribers are only called when the value changes.
func (s *Store) Set(v bool) {
	s.mu.Lock()
	if s.value == v {
		s.mu.Unlock()
		return
	}
	s.value = v
	subs := s.snapshot()
	s.mu.Unlock()
	notify(subs, v)
}

// Subscribe registers fn for changes and returns a function removing it.
func (s *Store) Subscribe(fn func(bool)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// snapshot must be called with mu held.
func (s *Store) snapshot() []func(bool) {
	out := make([]func(bool), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(subs []func(bool), v bool) {
	for _, fn := range subs {
		fn(v)
	}
}
