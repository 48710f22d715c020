package state

import (
	"sync"

	"github.com/wippyai/libstate"
)

// Slot owns the process-canonical reference to the bound library table.
// Records keep a pointer to the slot they were initialized from so reload
// logic can find and overwrite the canonical reference; a record never owns
// its slot.
type Slot struct {
	table libstate.APITable
	mu    sync.RWMutex
}

// Canonical is the process-wide slot used when Env.Slot is nil.
var Canonical = &Slot{}

// NewSlot creates a slot holding t, which may be nil.
func NewSlot(t libstate.APITable) *Slot {
	return &Slot{table: t}
}

// Load returns the current table, or nil if none is bound.
func (s *Slot) Load() libstate.APITable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Store replaces the current table.
func (s *Slot) Store(t libstate.APITable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

// Swap replaces the current table and returns the previous one.
func (s *Slot) Swap(t libstate.APITable) libstate.APITable {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.table
	s.table = t
	return old
}
