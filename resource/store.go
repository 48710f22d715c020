package resource

import (
	"sync"

	"github.com/wippyai/libstate/errors"
)

// store is the slot array behind a Table. Freed handles are reused
// last-in first-out.
type store struct {
	entries  []entry
	freeList []Handle
	capacity int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	valid bool
}

func newStore(capacity int) *store {
	return &store{
		entries:  make([]entry, 0, 16),
		freeList: make([]Handle, 0, 4),
		capacity: capacity,
	}
}

func (s *store) create(value any) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.AllocationFailed(errors.PhaseLoad, "handle in closed table")
	}
	if s.capacity > 0 && s.live >= s.capacity {
		return 0, errors.New(errors.PhaseLoad, errors.KindAllocation).
			Detail("handle table full (capacity %d)", s.capacity).
			Build()
	}

	e := entry{value: value, valid: true}
	s.live++

	if len(s.freeList) > 0 {
		handle := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[handle-1] = e
		return handle, nil
	}

	s.entries = append(s.entries, e)
	return Handle(len(s.entries)), nil
}

func (s *store) get(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := int(handle - 1)
	if idx >= len(s.entries) || !s.entries[idx].valid {
		return nil, false
	}
	return s.entries[idx].value, true
}

func (s *store) drop(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := int(handle - 1)
	if idx >= len(s.entries) || !s.entries[idx].valid {
		return nil, false
	}

	value := s.entries[idx].value
	s.entries[idx] = entry{}
	s.freeList = append(s.freeList, handle)
	s.live--
	return value, true
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// each calls fn for live entries until fn returns false. fn must not call
// back into the store.
func (s *store) each(fn func(Handle, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, e := range s.entries {
		if e.valid && !fn(Handle(i+1), e.value) {
			return
		}
	}
}

// close marks the store closed and returns the entries that were live.
func (s *store) close() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var live []Event
	for i, e := range s.entries {
		if e.valid {
			live = append(live, Event{Type: EventDropped, Handle: Handle(i + 1), Value: e.value})
		}
	}
	s.entries = nil
	s.freeList = nil
	s.live = 0
	return live
}
