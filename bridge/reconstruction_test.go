package bridge

import (
	"testing"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

type testOwner struct {
	Barrier
}

type otherOwner struct {
	Barrier
}

const testOwnerType = "bridge.testOwner"

func init() {
	RegisterOwnerType(testOwnerType, DowncastTo[*testOwner]())
}

func newTestOwner(rt Runtime, rc *ReconstructionContext, slot string) *testOwner {
	o := &testOwner{}
	o.Bind(rt, "body")
	o.Construct(rc, slot)
	return o
}

func TestReconstructionRoundTrip(t *testing.T) {
	rt := newFakeRuntime()
	old := newTestOwner(rt, nil, "actor/components[0]")
	if err := old.Allocate(rt.create); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	h := old.NativeAddress()

	rc := NewReconstructionContext(rt.Release)
	moved, err := old.Destroy(rc, "actor/components[0]", testOwnerType)
	if err != nil || !moved {
		t.Fatalf("Destroy: moved=%v err=%v", moved, err)
	}
	if old.State() != Destroyed || old.HasNative() {
		t.Fatal("old owner should be destroyed without a handle")
	}
	if len(rt.released) != 0 {
		t.Fatal("captured handle must not be released")
	}

	fresh := newTestOwner(rt, rc, "actor/components[0]")
	if fresh.State() != AwaitingRestore {
		t.Fatalf("expected awaiting restore, got %s", fresh.State())
	}
	if err := fresh.Restore(rc, "actor/components[0]", fresh); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if fresh.NativeAddress() != h || !fresh.HasNative() || fresh.State() != Live {
		t.Fatalf("expected handle %v restored, got %v (%s)", h, fresh.NativeAddress(), fresh.State())
	}

	// second application is a no-op
	if err := fresh.Restore(rc, "actor/components[0]", fresh); err != nil {
		t.Fatalf("second Restore: %v", err)
	}
	if fresh.NativeAddress() != h {
		t.Fatal("handle changed on re-application")
	}

	if err := rc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	st := rc.Stats()
	if st.Captured != 1 || st.Restored != 1 || st.Orphaned != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestSnapshotApplyIdempotent(t *testing.T) {
	rt := newFakeRuntime()
	h, _ := rt.create()
	s := &Snapshot{Slot: "s", OwnerType: testOwnerType, Handle: h}

	o := newTestOwner(rt, nil, "s")
	if err := s.Apply(o); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Apply(o); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if o.NativeAddress() != h {
		t.Fatalf("expected %v, got %v", h, o.NativeAddress())
	}
}

func TestDestroyWithoutContextReleases(t *testing.T) {
	rt := newFakeRuntime()
	o := newTestOwner(rt, nil, "s")
	_ = o.Allocate(rt.create)
	h := o.NativeAddress()

	moved, err := o.Destroy(nil, "s", testOwnerType)
	if err != nil || moved {
		t.Fatalf("Destroy: moved=%v err=%v", moved, err)
	}
	if rt.Valid(h) {
		t.Fatal("expected handle released")
	}
	if o.State() != Destroyed {
		t.Fatalf("expected destroyed, got %s", o.State())
	}
}

func TestDestroyedOwnerCannotAllocate(t *testing.T) {
	nonStrict(t)
	rt := newFakeRuntime()
	o := newTestOwner(rt, nil, "s")
	_, _ = o.Destroy(nil, "s", testOwnerType)

	if err := o.Allocate(rt.create); err == nil {
		t.Fatal("expected error allocating a destroyed owner")
	}
}

func TestAwaitingRestoreRefusesAccess(t *testing.T) {
	nonStrict(t)
	rt := newFakeRuntime()
	rc := NewReconstructionContext(rt.Release)
	h, _ := rt.create()
	_ = rc.Capture("s", testOwnerType, h)

	o := newTestOwner(rt, rc, "s")
	if o.State() != AwaitingRestore {
		t.Fatalf("expected awaiting restore, got %s", o.State())
	}

	err := o.Allocate(rt.create)
	if !errors.Is(err, errors.ErrReconstructionInFlight) {
		t.Fatalf("expected reconstruction in flight, got %v", err)
	}
	if rt.created != 1 {
		t.Fatal("allocation must be refused")
	}

	var shadow float64
	err = Write(&o.Barrier, &shadow, 1.0, func(float64) error { return nil })
	if !errors.Is(err, errors.ErrReconstructionInFlight) {
		t.Fatalf("expected reconstruction in flight on write, got %v", err)
	}
	if shadow != 0 {
		t.Fatal("refused write must not touch the shadow")
	}
}

func TestAwaitingRestorePanicsWhenStrict(t *testing.T) {
	prev := Strict()
	SetStrict(true)
	defer SetStrict(prev)

	rt := newFakeRuntime()
	rc := NewReconstructionContext(rt.Release)
	h, _ := rt.create()
	_ = rc.Capture("s", testOwnerType, h)

	o := newTestOwner(rt, rc, "s")
	expectPanic(t, func() { _ = o.Allocate(rt.create) })
}

func TestIncompatibleOwnerFallsBackToFresh(t *testing.T) {
	rt := newFakeRuntime()
	rc := NewReconstructionContext(rt.Release)
	h, _ := rt.create()
	_ = rc.Capture("s", testOwnerType, h)

	o := &otherOwner{}
	o.Bind(rt, "shape")
	o.Construct(rc, "s")

	err := o.Restore(rc, "s", o)
	if !errors.Is(err, errors.ErrIncompatibleOwner) {
		t.Fatalf("expected incompatible owner, got %v", err)
	}
	if o.State() != Fresh || o.HasNative() {
		t.Fatalf("expected fresh without native, got %s", o.State())
	}

	// the owner is usable again
	if err := o.Allocate(rt.create); err != nil {
		t.Fatalf("Allocate after fallback: %v", err)
	}

	err = rc.Finish()
	if !errors.Is(err, errors.ErrSlotUnresolved) {
		t.Fatalf("expected unresolved slot, got %v", err)
	}
	if rt.Valid(h) {
		t.Fatal("orphaned handle should be released on finish")
	}
}

func TestSlotConflict(t *testing.T) {
	rt := newFakeRuntime()
	rc := NewReconstructionContext(rt.Release)
	h, _ := rt.create()
	_ = rc.Capture("s", testOwnerType, h)

	first := newTestOwner(rt, rc, "s")
	second := newTestOwner(rt, rc, "s")

	if err := first.Restore(rc, "s", first); err != nil {
		t.Fatalf("first Restore: %v", err)
	}
	err := second.Restore(rc, "s", second)
	if !errors.Is(err, errors.ErrSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	if second.HasNative() || second.State() != Fresh {
		t.Fatal("second owner must stay fresh")
	}
	if first.NativeAddress() != h {
		t.Fatal("first owner keeps the handle")
	}
	if rc.Stats().Conflicts != 1 {
		t.Errorf("expected 1 conflict, got %d", rc.Stats().Conflicts)
	}
}

func TestCaptureTwiceConflicts(t *testing.T) {
	rt := newFakeRuntime()
	rc := NewReconstructionContext(rt.Release)

	a := newTestOwner(rt, nil, "s")
	b := newTestOwner(rt, nil, "s")
	_ = a.Allocate(rt.create)
	_ = b.Allocate(rt.create)
	hb := b.NativeAddress()

	if moved, _ := a.Destroy(rc, "s", testOwnerType); !moved {
		t.Fatal("expected first capture")
	}
	moved, err := b.Destroy(rc, "s", testOwnerType)
	if moved || !errors.Is(err, errors.ErrSlotConflict) {
		t.Fatalf("expected conflict and release, moved=%v err=%v", moved, err)
	}
	if rt.Valid(hb) {
		t.Fatal("conflicting handle should be released")
	}
}

func TestFinishWithoutOrphanHook(t *testing.T) {
	rc := NewReconstructionContext(nil)
	_ = rc.Capture("s", testOwnerType, resource.Handle(5))
	if err := rc.Finish(); !errors.Is(err, errors.ErrSlotUnresolved) {
		t.Fatalf("expected unresolved, got %v", err)
	}
	if err := rc.Finish(); err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	if err := rc.Capture("t", testOwnerType, resource.Handle(6)); err == nil {
		t.Fatal("expected capture after finish to fail")
	}
}

func TestNoSnapshotIsNoop(t *testing.T) {
	rt := newFakeRuntime()
	rc := NewReconstructionContext(rt.Release)
	o := newTestOwner(rt, rc, "s")
	if o.State() != Fresh {
		t.Fatalf("expected fresh, got %s", o.State())
	}
	if err := o.Restore(rc, "s", o); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := o.Restore(nil, "s", o); err != nil {
		t.Fatalf("Restore nil: %v", err)
	}
}

func TestSnapshotEncoding(t *testing.T) {
	rt := newFakeRuntime()
	h, _ := rt.create()
	rc := NewReconstructionContext(rt.Release)
	_ = rc.Capture("actor/components[1]", testOwnerType, h)

	bz, err := EncodeSnapshots(rc.Snapshots())
	if err != nil {
		t.Fatalf("EncodeSnapshots: %v", err)
	}

	snaps, err := DecodeSnapshots(bz)
	if err != nil {
		t.Fatalf("DecodeSnapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
	s := snaps[0]
	if s.Slot != "actor/components[1]" || s.OwnerType != testOwnerType || s.Handle != h {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.Downcast == nil {
		t.Fatal("expected downcast resolved from owner type")
	}

	o := newTestOwner(rt, nil, "actor/components[1]")
	if err := s.Apply(o); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if o.NativeAddress() != h {
		t.Fatal("round trip lost the handle")
	}
}

func TestDecodeSnapshotsRejectsBadData(t *testing.T) {
	if _, err := DecodeSnapshots([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := DecodeSnapshots([]byte(`[{"slot":"","handle":1}]`)); err == nil {
		t.Fatal("expected error for empty slot")
	}
}
