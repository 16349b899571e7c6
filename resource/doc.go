// Package resource provides the native handle arena that sits at the
// boundary between host objects and the simulation engine.
//
// Native objects are never addressed by pointer from host code. The engine
// stores each object in an Arena slot and hands out an opaque Handle:
//
//	table := resource.NewTable()
//
//	// Insert a value with one reference, get a handle
//	h := table.Insert(typeID, body)
//
//	// Additional holders take their own reference
//	table.Retain(h)
//
//	// Each holder drops its reference; the last one destroys the object
//	table.Release(h)
//	table.Release(h)
//
// # Handle Validity
//
// A Handle encodes the slot index and a generation counter. When a slot is
// freed and later reused, the generation is bumped, so an old handle held by
// a stale owner fails Valid and Get instead of silently addressing the new
// object. Handle 0 is always invalid.
//
// # Reference Counting
//
// The arena is intrusively reference counted, mirroring how the engine's own
// object graph keeps objects alive: a shape retains its body, a constraint
// retains both of its bodies. A host Barrier releasing its reference does not
// imply the native object is destroyed.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(observer)
//
//	func (o *observer) OnResourceEvent(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventCreated:
//	    case resource.EventDestroyed:
//	    }
//	}
//
// Observers run synchronously on the goroutine performing the operation.
// Each callbacks run under the arena read lock and must not mutate the table.
package resource
