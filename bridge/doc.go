// Package bridge mediates between host scene objects and the native engine.
//
// A Barrier owns at most one native handle. It allocates through a
// caller-supplied CreateFunc, releases through the engine's reference
// counting, and accepts adopted handles only while empty. Typed barriers add
// accessors that forward to native.Engine; Read and Write give scene objects
// dual storage, preferring the native value while one exists.
//
// Reconstruction moves handles between incarnations of a logical slot:
//
//	rc := bridge.NewReconstructionContext(eng.Release)
//	_, err := old.Destroy(rc, slot, ownerType) // handle captured, not released
//	fresh.Construct(rc, slot)                  // state AwaitingRestore
//	err = fresh.Restore(rc, slot, host)        // snapshot applied, state Live
//	err = rc.Finish()                          // unclaimed handles reported and released
//
// old and fresh are the Barriers of two incarnations of the same slot; host
// is the new owner, resolved through the downcast registered for ownerType.
//
// Contract violations panic unless the binary is built with -tags release
// or SetStrict(false) was called; they are always logged.
package bridge
