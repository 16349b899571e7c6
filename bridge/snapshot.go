package bridge

import (
	"github.com/goccy/go-json"

	simbridge "github.com/wippyai/sim-bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

// Downcast views a replacement host object as the NativeOwner a snapshot
// was captured from.
type Downcast func(host any) (simbridge.NativeOwner, bool)

var downcasts = make(map[string]Downcast)

// RegisterOwnerType binds an owner type name to its downcast. Owner packages
// register their types from init.
func RegisterOwnerType(name string, fn Downcast) {
	downcasts[name] = fn
}

// LookupOwnerType returns the downcast registered for name.
func LookupOwnerType(name string) (Downcast, bool) {
	fn, ok := downcasts[name]
	return fn, ok
}

// DowncastTo returns a downcast that accepts hosts of type T.
func DowncastTo[T simbridge.NativeOwner]() Downcast {
	return func(host any) (simbridge.NativeOwner, bool) {
		owner, ok := host.(T)
		if !ok {
			return nil, false
		}
		return owner, true
	}
}

// Snapshot carries a native handle across the destruction and
// reconstruction of its owner. It is bound to the owner's logical slot,
// not to any object.
type Snapshot struct {
	Downcast  Downcast        `json:"-"`
	Slot      string          `json:"slot"`
	OwnerType string          `json:"owner_type"`
	Handle    resource.Handle `json:"handle"`
}

// Resolve views host through the snapshot's downcast, falling back to the
// one registered for OwnerType.
func (s *Snapshot) Resolve(host any) (simbridge.NativeOwner, error) {
	fn := s.Downcast
	if fn == nil {
		var ok bool
		if fn, ok = LookupOwnerType(s.OwnerType); !ok {
			return nil, errors.IncompatibleOwner([]string{s.Slot}, s.OwnerType, host)
		}
	}
	owner, ok := fn(host)
	if !ok {
		return nil, errors.IncompatibleOwner([]string{s.Slot}, s.OwnerType, host)
	}
	return owner, nil
}

// Apply hands the snapshot's handle to host. Applying to an owner that
// already holds the handle is a no-op.
func (s *Snapshot) Apply(host any) error {
	owner, err := s.Resolve(host)
	if err != nil {
		return err
	}
	return adopt(owner, s.Handle)
}

func adopt(owner simbridge.NativeOwner, h resource.Handle) error {
	if owner.HasNative() && owner.NativeAddress() == h {
		return nil
	}
	return owner.SetNativeAddress(h)
}

// EncodeSnapshots serialises snapshots. Downcasts are not encoded; they are
// resolved again by owner type on decode.
func EncodeSnapshots(snaps []*Snapshot) ([]byte, error) {
	bz, err := json.Marshal(snaps)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCapture, errors.KindInvalidData, err, "encode snapshots")
	}
	return bz, nil
}

// DecodeSnapshots restores snapshots produced by EncodeSnapshots.
func DecodeSnapshots(bz []byte) ([]*Snapshot, error) {
	var snaps []*Snapshot
	if err := json.Unmarshal(bz, &snaps); err != nil {
		return nil, errors.Wrap(errors.PhaseRestore, errors.KindInvalidData, err, "decode snapshots")
	}
	for _, s := range snaps {
		if s == nil || s.Slot == "" || s.Handle == 0 {
			return nil, errors.InvalidData(errors.PhaseRestore, nil, "snapshot needs a slot and a handle")
		}
		s.Downcast, _ = LookupOwnerType(s.OwnerType)
	}
	return snaps, nil
}
