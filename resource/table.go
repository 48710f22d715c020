package resource

import (
	"sync"
)

// Table maps opaque handles to values. It is safe for concurrent use.
type Table struct {
	store     *store
	observers map[int]Observer
	nextObs   int
	obsMu     sync.RWMutex
}

// Option configures a Table.
type Option func(*Table)

// WithCapacity bounds the number of live handles. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(t *Table) {
		t.store.capacity = n
	}
}

// NewTable creates an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{
		store:     newStore(0),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Insert adds a value and returns its handle. It fails with an allocation
// error when the table is closed or full.
func (t *Table) Insert(value any) (Handle, error) {
	handle, err := t.store.create(value)
	if err != nil {
		return 0, err
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Value:  value,
	})

	return handle, nil
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.store.get(handle)
}

// Remove drops a handle and returns (value, true) if it was live.
func (t *Table) Remove(handle Handle) (any, bool) {
	value, ok := t.store.drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Value:  value,
	})

	return value, true
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.store.len()
}

// Each iterates over live handles until fn returns false.
// fn must not modify the table.
func (t *Table) Each(fn func(Handle, any) bool) {
	t.store.each(fn)
}

// Handles returns a snapshot of the live handles.
func (t *Table) Handles() []Handle {
	var handles []Handle
	t.store.each(func(h Handle, _ any) bool {
		handles = append(handles, h)
		return true
	})
	return handles
}

// Subscribe adds an observer for lifecycle events and returns a function
// that removes it.
func (t *Table) Subscribe(o Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()

	id := t.nextObs
	t.nextObs++
	t.observers[id] = o

	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		delete(t.observers, id)
	}
}

// Close drops every live value and stops accepting inserts.
func (t *Table) Close() error {
	for _, e := range t.store.close() {
		if d, ok := e.Value.(Dropper); ok {
			d.Drop()
		}
		t.notify(e)
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Typed is a type-safe view over a Table holding values of type T.
type Typed[T any] struct {
	*Table
}

// NewTyped creates a typed table.
func NewTyped[T any](opts ...Option) Typed[T] {
	return Typed[T]{Table: NewTable(opts...)}
}

// Insert adds a value and returns its handle.
func (t Typed[T]) Insert(value T) (Handle, error) {
	return t.Table.Insert(value)
}

// Get retrieves a value by handle. It reports false for unknown handles and
// for values of another type.
func (t Typed[T]) Get(handle Handle) (T, bool) {
	v, ok := t.Table.Get(handle)
	if !ok {
		var zero T
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}

// Remove drops a handle and returns its value.
func (t Typed[T]) Remove(handle Handle) (T, bool) {
	v, ok := t.Table.Remove(handle)
	if !ok {
		var zero T
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}
