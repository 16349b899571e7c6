package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("native arena closed")

// Arena is an in-memory, intrusively reference counted handle store.
// Implements Store.
type Arena struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value      any
	typeID     uint32
	refs       uint32
	generation uint32
	valid      bool
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value with one reference and returns its handle.
func (a *Arena) Create(typeID uint32, value any) (Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, ErrClosed
	}

	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		e := &a.entries[idx]
		e.generation++
		e.value = value
		e.typeID = typeID
		e.refs = 1
		e.valid = true
		return makeHandle(idx, e.generation), nil
	}

	a.entries = append(a.entries, entry{
		typeID: typeID,
		value:  value,
		refs:   1,
		valid:  true,
	})
	return makeHandle(uint32(len(a.entries)-1), 0), nil
}

// lookup returns the live entry for handle. Caller holds the lock.
func (a *Arena) lookup(handle Handle) *entry {
	idx, ok := handle.index()
	if !ok || int(idx) >= len(a.entries) {
		return nil
	}
	e := &a.entries[idx]
	if !e.valid || e.generation != handle.generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (a *Arena) Get(handle Handle) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e := a.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Valid reports whether handle refers to a live entry.
func (a *Arena) Valid(handle Handle) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lookup(handle) != nil
}

// Retain increments the reference count and returns the new count.
func (a *Arena) Retain(handle Handle) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := a.lookup(handle)
	if e == nil {
		return 0, false
	}
	e.refs++
	return e.refs, true
}

// Release decrements the reference count. The slot is freed when the count
// reaches zero and the stored value is handed back for destruction.
func (a *Arena) Release(handle Handle) (any, uint32, bool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := a.lookup(handle)
	if e == nil {
		return nil, 0, false, false
	}

	e.refs--
	if e.refs > 0 {
		return e.value, e.refs, false, true
	}

	value := e.value
	e.valid = false
	e.value = nil
	idx, _ := handle.index()
	a.freeList = append(a.freeList, idx)
	return value, 0, true, true
}

// Refs returns the current reference count for handle.
func (a *Arena) Refs(handle Handle) (uint32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e := a.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.refs, true
}

// TypeID returns the type ID for a handle.
func (a *Arena) TypeID(handle Handle) (uint32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e := a.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// Close destroys every live entry regardless of reference count.
func (a *Arena) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true

	var droppers []Dropper
	for i := range a.entries {
		if a.entries[i].valid {
			if d, ok := a.entries[i].value.(Dropper); ok {
				droppers = append(droppers, d)
			}
			a.entries[i].valid = false
			a.entries[i].value = nil
		}
	}
	a.entries = nil
	a.freeList = nil
	a.mu.Unlock()

	for _, d := range droppers {
		d.Drop()
	}
	return nil
}

// Len returns the number of live entries.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	count := 0
	for _, e := range a.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live entries.
func (a *Arena) Each(fn func(Handle, uint32, any) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i, e := range a.entries {
		if e.valid {
			if !fn(makeHandle(uint32(i), e.generation), e.typeID, e.value) {
				break
			}
		}
	}
}
