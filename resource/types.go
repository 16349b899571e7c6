package resource

import "fmt"

// Handle is an opaque reference to a native object in an Arena.
// Handle 0 is reserved and always invalid.
//
// The low 32 bits hold the slot index plus one, the high 32 bits the slot
// generation. A freed slot is reissued with a bumped generation, so a stale
// handle never aliases a newer object.
type Handle uint64

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index+1))
}

func (h Handle) index() (uint32, bool) {
	lo := uint32(h)
	if lo == 0 {
		return 0, false
	}
	return lo - 1, true
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

// String renders the handle the way diagnostics print native addresses.
func (h Handle) String() string {
	if h == 0 {
		return "0x0"
	}
	return fmt.Sprintf("0x%016x", uint64(h))
}

// Event types for native object lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	case EventDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Event represents a native object lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Refs   uint32
	Type   EventType
}

// Observer receives notifications about native object lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Store provides the underlying storage for reference counted objects.
type Store interface {
	// Create stores a value with a reference count of one.
	Create(typeID uint32, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Retain adds a reference to a live handle.
	Retain(handle Handle) (uint32, bool)

	// Release drops one reference. When the count reaches zero the slot is
	// freed and the value is returned with destroyed set.
	Release(handle Handle) (value any, refs uint32, destroyed bool, ok bool)

	// Close releases all objects held by the store.
	Close() error
}

// Table manages native objects with type information and observer support.
type Table interface {
	// Insert adds a value with one reference and returns its handle.
	Insert(typeID uint32, value any) Handle

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// GetTyped retrieves a value only if it matches the expected type.
	GetTyped(handle Handle, typeID uint32) (any, bool)

	// Valid reports whether the handle refers to a live object.
	Valid(handle Handle) bool

	// Retain adds a reference.
	Retain(handle Handle) bool

	// Release drops a reference, destroying the object on the last one.
	Release(handle Handle) bool

	// Subscribe adds an observer for lifecycle events.
	Subscribe(Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(Observer)

	// Len returns the number of live objects.
	Len() int

	// Close destroys all objects and stops accepting operations.
	Close() error
}

// Dropper is optionally implemented by values that need cleanup when their
// last reference goes away.
type Dropper interface {
	Drop()
}
