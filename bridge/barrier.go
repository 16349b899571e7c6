package bridge

import (
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

// Runtime is the part of the native engine a Barrier needs to manage a
// handle it does not otherwise understand.
type Runtime interface {
	Release(h resource.Handle) error
	Valid(h resource.Handle) bool
}

// TypedRuntime is a Runtime that can report the native type of a handle.
// Barriers expecting a type refuse to adopt handles of another type.
type TypedRuntime interface {
	Runtime
	TypeID(h resource.Handle) (uint32, bool)
}

// Dependency is a collaborator whose native object must exist before this
// barrier can allocate, such as the body a shape is attached to.
type Dependency interface {
	HasNative() bool
	NativeAddress() resource.Handle
}

// CreateFunc creates the native object given the handles of the
// dependencies passed to Allocate, in order.
type CreateFunc func(deps ...resource.Handle) (resource.Handle, error)

// Barrier owns zero or one native handle. It is the only place a scene
// object's handle changes hands, and it carries the owner's lifecycle state.
//
// The zero Barrier is unbound: it can hold shadow state but cannot allocate
// until Bind is called. Barriers are not safe for concurrent use.
type Barrier struct {
	rt       Runtime
	native   string
	handle   resource.Handle
	typeID   uint32
	state    State
	released bool
}

// Bind attaches the barrier to an engine. native names the object kind in
// diagnostics. Binding an allocated barrier is ignored.
func (b *Barrier) Bind(rt Runtime, native string) {
	if b.handle != 0 {
		Logger().Warn("bind ignored on allocated barrier")
		return
	}
	b.rt = rt
	b.native = native
}

// Expect restricts adoption to handles of typeID when the runtime reports
// types. Zero accepts any type.
func (b *Barrier) Expect(typeID uint32) {
	b.typeID = typeID
}

// Bound reports whether the barrier has an engine.
func (b *Barrier) Bound() bool {
	return b.rt != nil
}

// Native returns the diagnostic name of the wrapped object kind.
func (b *Barrier) Native() string {
	return b.native
}

// HasNative reports whether the barrier holds a handle.
func (b *Barrier) HasNative() bool {
	return b.handle != 0
}

// NativeAddress returns the held handle, or 0.
func (b *Barrier) NativeAddress() resource.Handle {
	return b.handle
}

// State returns the owner's lifecycle state.
func (b *Barrier) State() State {
	return b.state
}

// Released reports whether the barrier gave its handle back to the engine
// at least once.
func (b *Barrier) Released() bool {
	return b.released
}

// Allocate creates the native object. It fails with a violation when the
// barrier already holds a handle or is awaiting a snapshot, and with an
// environmental error when a dependency is unallocated or creation fails.
// create runs at most once per call.
func (b *Barrier) Allocate(create CreateFunc, deps ...Dependency) error {
	if err := b.guard(errors.PhaseAllocate); err != nil {
		return err
	}
	if b.handle != 0 {
		return Violation(errors.AlreadyAllocated(errors.PhaseAllocate, b.native, b.handle))
	}
	if b.rt == nil {
		return Violation(b.unbound(errors.PhaseAllocate))
	}

	handles := make([]resource.Handle, len(deps))
	for i, d := range deps {
		if d == nil || !d.HasNative() {
			return Environmental(errors.DependencyNotReady(b.native, i))
		}
		handles[i] = d.NativeAddress()
	}

	h, err := create(handles...)
	if err != nil {
		return Environmental(errors.AllocationFailed(b.native, err))
	}
	if h == 0 {
		return Environmental(errors.AllocationFailed(b.native, nil))
	}

	b.handle = h
	b.state = Live
	return nil
}

// Release gives the handle back to the engine. The native object may live
// on while the engine's own graph references it. Releasing an empty barrier
// is a violation.
func (b *Barrier) Release() error {
	if b.handle == 0 {
		return Violation(errors.NotAllocated(errors.PhaseRelease, b.native))
	}
	if b.state == Live {
		b.state = Fresh
	}
	return b.releaseHandle(nil)
}

// SetNativeAddress adopts h. The barrier takes over the engine reference
// that came with h. Adoption is only legal on an empty barrier and only for
// a live handle of the expected type.
func (b *Barrier) SetNativeAddress(h resource.Handle) error {
	if b.handle != 0 {
		return Violation(errors.AlreadyAllocated(errors.PhaseAdopt, b.native, b.handle))
	}
	if b.rt == nil {
		return Violation(b.unbound(errors.PhaseAdopt))
	}
	if h == 0 || !b.rt.Valid(h) {
		return Violation(errors.InvalidHandle(errors.PhaseAdopt, b.native, h))
	}
	if !b.accepts(h) {
		return Violation(errors.New(errors.PhaseAdopt, errors.KindInvalidHandle).
			Native(b.native).
			Value(h).
			Detail("handle %v is not a %s", h, b.native).
			Build())
	}

	b.handle = h
	b.state = Live
	return nil
}

func (b *Barrier) accepts(h resource.Handle) bool {
	if b.typeID == 0 {
		return true
	}
	tr, ok := b.rt.(TypedRuntime)
	if !ok {
		return true
	}
	id, ok := tr.TypeID(h)
	return ok && id == b.typeID
}

// Detach gives up the handle without releasing it. The caller takes over
// the engine reference.
func (b *Barrier) Detach() resource.Handle {
	h := b.handle
	b.handle = 0
	return h
}

// CheckWritable refuses mutation while a snapshot is pending.
func (b *Barrier) CheckWritable() error {
	return b.guard(errors.PhaseAccess)
}

func (b *Barrier) guard(phase errors.Phase) error {
	switch b.state {
	case AwaitingRestore:
		return Violation(errors.ReconstructionInFlight(phase, nil, b.native))
	case Destroyed:
		if phase == errors.PhaseAllocate {
			return Violation(errors.New(phase, errors.KindUnbound).
				Native(b.native).
				Detail("owner destroyed").
				Build())
		}
	}
	return nil
}

func (b *Barrier) unbound(phase errors.Phase) *errors.Error {
	return errors.New(phase, errors.KindUnbound).
		Native(b.native).
		Detail("barrier has no engine").
		Build()
}
