package resource

import (
	"sync"
)

// UnifiedTable implements the Table interface on top of an Arena.
type UnifiedTable struct {
	arena     *Arena
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new unified table with an empty Arena.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		arena: NewArena(),
	}
}

// Insert adds a value with one reference and returns its handle.
func (t *UnifiedTable) Insert(typeID uint32, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.arena.Create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
		Refs:   1,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.arena.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *UnifiedTable) GetTyped(handle Handle, typeID uint32) (any, bool) {
	actualTypeID, ok := t.arena.TypeID(handle)
	if !ok || actualTypeID != typeID {
		return nil, false
	}
	return t.arena.Get(handle)
}

// Valid reports whether the handle refers to a live object.
func (t *UnifiedTable) Valid(handle Handle) bool {
	return t.arena.Valid(handle)
}

// Refs returns the reference count of a live object.
func (t *UnifiedTable) Refs(handle Handle) (uint32, bool) {
	return t.arena.Refs(handle)
}

// TypeID returns the type ID of a live object.
func (t *UnifiedTable) TypeID(handle Handle) (uint32, bool) {
	return t.arena.TypeID(handle)
}

// Retain adds a reference to a live object.
func (t *UnifiedTable) Retain(handle Handle) bool {
	typeID, _ := t.arena.TypeID(handle)
	refs, ok := t.arena.Retain(handle)
	if !ok {
		return false
	}

	t.notify(Event{
		Type:   EventRetained,
		Handle: handle,
		TypeID: typeID,
		Refs:   refs,
	})
	return true
}

// Release drops a reference. On the last reference the value's Dropper runs
// and EventDestroyed is emitted.
func (t *UnifiedTable) Release(handle Handle) bool {
	typeID, _ := t.arena.TypeID(handle)
	value, refs, destroyed, ok := t.arena.Release(handle)
	if !ok {
		return false
	}

	if !destroyed {
		t.notify(Event{
			Type:   EventReleased,
			Handle: handle,
			TypeID: typeID,
			Value:  value,
			Refs:   refs,
		})
		return true
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDestroyed,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *UnifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live objects.
func (t *UnifiedTable) Len() int {
	return t.arena.Len()
}

// Each iterates over all live objects.
func (t *UnifiedTable) Each(fn func(Handle, uint32, any) bool) {
	t.arena.Each(fn)
}

// Close destroys every object and stops accepting operations.
func (t *UnifiedTable) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.arena.Close()
}

// Arena returns the underlying arena.
func (t *UnifiedTable) Arena() *Arena {
	return t.arena
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
