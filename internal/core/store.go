package core

import (
	"sync"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// MaxHistory is the number of prior tables a Store keeps for undo.
const MaxHistory = 5

// Store holds the authoritative working table of a session together with
// the table as loaded and a bounded undo history.
//
// Tables are immutable once built, so the store keeps references rather
// than copies; origin is cloned on the way in and the way out so no caller
// can reach its storage.
type Store struct {
	mu      sync.RWMutex
	origin  *table.Table
	current *table.Table
	history []*table.Table
	version uint64
}

// NewStore starts a store from a freshly loaded table.
func NewStore(t *table.Table) *Store {
	return &Store{origin: t.Clone(), current: t}
}

// Current returns the working table.
func (s *Store) Current() *table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Origin returns a copy of the table as loaded.
func (s *Store) Origin() *table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin.Clone()
}

// Version increases on every change to the working table.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Depth returns the number of undo steps available.
func (s *Store) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Commit installs t as the working table and records the previous one in
// the history, evicting the oldest entry beyond MaxHistory. A table equal to
// the current one is not committed and Commit reports false.
func (s *Store) Commit(t *table.Table) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table.Equal(s.current, t) {
		return false
	}
	if len(s.history) == MaxHistory {
		copy(s.history, s.history[1:])
		s.history = s.history[:MaxHistory-1]
	}
	s.history = append(s.history, s.current)
	s.current = t
	s.version++
	return true
}

// Undo restores the most recent history entry. It reports false when there
// is nothing to undo. Undo cannot itself be undone.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	if n == 0 {
		return false
	}
	s.current = s.history[n-1]
	s.history[n-1] = nil
	s.history = s.history[:n-1]
	s.version++
	return true
}

// Reset restores the table as loaded and clears the history.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.origin.Clone()
	s.history = nil
	s.version++
}
