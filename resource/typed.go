package resource

// Typed is a type-safe view over the objects of one type ID in a table.
type Typed[T any] struct {
	table  *UnifiedTable
	typeID uint32
}

// NewTyped creates a typed view of table for typeID.
func NewTyped[T any](table *UnifiedTable, typeID uint32) *Typed[T] {
	return &Typed[T]{table: table, typeID: typeID}
}

// Insert adds a value and returns its handle.
func (t *Typed[T]) Insert(value T) Handle {
	return t.table.Insert(t.typeID, value)
}

// Get retrieves a value if the handle is live and of this view's type.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	value, ok := t.table.GetTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	v, ok := value.(T)
	return v, ok
}

// Len returns the number of live objects of this type.
func (t *Typed[T]) Len() int {
	count := 0
	t.Each(func(Handle, T) bool {
		count++
		return true
	})
	return count
}

// Each iterates over all live objects of this type.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.Each(func(h Handle, typeID uint32, value any) bool {
		if typeID != t.typeID {
			return true
		}
		v, ok := value.(T)
		if !ok {
			return true
		}
		return fn(h, v)
	})
}

// TypeID returns the type ID of this view.
func (t *Typed[T]) TypeID() uint32 {
	return t.typeID
}
