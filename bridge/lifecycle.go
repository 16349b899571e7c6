package bridge

import "go.uber.org/zap"

// State is the position of a native owner in its reconstruction lifecycle.
type State uint8

const (
	// Fresh owners were constructed normally and hold no pending snapshot.
	Fresh State = iota
	// AwaitingRestore owners replace a reconstructed object whose snapshot
	// has not been applied yet. Native access is refused in this state.
	AwaitingRestore
	// Live owners hold their native handle normally.
	Live
	// CapturingSnapshot owners are moving their handle into a snapshot.
	CapturingSnapshot
	// ReleasingNative owners are giving their handle back to the engine.
	ReleasingNative
	// Destroyed owners are gone. Their barrier holds no handle.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case AwaitingRestore:
		return "awaiting_restore"
	case Live:
		return "live"
	case CapturingSnapshot:
		return "capturing_snapshot"
	case ReleasingNative:
		return "releasing_native"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Construct runs when the owner is constructed. With a context holding a
// pending snapshot for slot the owner waits for Restore before it may touch
// its native object.
func (b *Barrier) Construct(rc *ReconstructionContext, slot string) {
	if b.state != Fresh || rc == nil {
		return
	}
	if rc.Pending(slot) {
		b.state = AwaitingRestore
	}
}

// Restore applies the snapshot held for slot to host, the owner's outer
// object. It is called from the owner's first post-construction hook and is
// a no-op without a context or snapshot.
//
// On failure the owner falls back to Fresh without a native object; the
// snapshot stays with the context and its handle is released by Finish.
func (b *Barrier) Restore(rc *ReconstructionContext, slot string, host any) error {
	if rc == nil {
		return nil
	}
	err := rc.Restore(slot, host)
	if err != nil {
		if b.state == AwaitingRestore {
			b.state = Fresh
		}
		return err
	}
	if b.state == AwaitingRestore && b.handle == 0 {
		b.state = Fresh
	}
	return nil
}

// Destroy ends the owner's lifetime. With a context the handle moves into a
// snapshot for slot and moved is true; the engine reference travels with it.
// Without a context the handle is released.
func (b *Barrier) Destroy(rc *ReconstructionContext, slot, ownerType string) (moved bool, err error) {
	defer func() { b.state = Destroyed }()

	if b.handle == 0 {
		return false, nil
	}

	if rc != nil {
		b.state = CapturingSnapshot
		err := rc.Capture(slot, ownerType, b.handle)
		if err == nil {
			b.handle = 0
			return true, nil
		}
		Logger().Warn("snapshot capture failed, releasing native", zap.String("slot", slot), zap.Error(err))
		b.state = ReleasingNative
		return false, b.releaseHandle(err)
	}

	b.state = ReleasingNative
	return false, b.releaseHandle(nil)
}

func (b *Barrier) releaseHandle(prior error) error {
	h := b.handle
	b.handle = 0
	b.released = true
	if err := b.rt.Release(h); err != nil {
		return err
	}
	return prior
}
