package bridge

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

// ReconstructionContext is threaded through the destruction of the old
// objects and the construction of their replacements during one
// reconstruction event. A nil context means no reconstruction is in flight.
//
// Each captured snapshot is consumed at most once. Snapshots left over when
// the context finishes are reported and their handles are passed to the
// orphan function, which normally releases them.
type ReconstructionContext struct {
	pending  map[string]*Snapshot
	restored map[string]resource.Handle
	orphan   func(resource.Handle) error
	stats    ReconstructionStats
	finished bool
}

// ReconstructionStats counts what happened during one reconstruction.
type ReconstructionStats struct {
	Captured  int `json:"captured"`
	Restored  int `json:"restored"`
	Orphaned  int `json:"orphaned"`
	Conflicts int `json:"conflicts"`
}

// NewReconstructionContext starts a reconstruction. orphan may be nil, in
// which case unclaimed handles are only reported.
func NewReconstructionContext(orphan func(resource.Handle) error) *ReconstructionContext {
	return &ReconstructionContext{
		pending:  make(map[string]*Snapshot),
		restored: make(map[string]resource.Handle),
		orphan:   orphan,
	}
}

// Capture records h for slot. The context takes over the engine reference.
func (rc *ReconstructionContext) Capture(slot, ownerType string, h resource.Handle) error {
	if rc.finished {
		return errors.New(errors.PhaseCapture, errors.KindNotInitialized).
			Path(slot).
			Detail("reconstruction already finished").
			Build()
	}
	if _, ok := rc.pending[slot]; ok {
		rc.stats.Conflicts++
		return errors.SlotConflict(errors.PhaseCapture, slot, "slot captured twice")
	}
	fn, _ := LookupOwnerType(ownerType)
	delete(rc.restored, slot)
	rc.pending[slot] = &Snapshot{
		Slot:      slot,
		OwnerType: ownerType,
		Handle:    h,
		Downcast:  fn,
	}
	rc.stats.Captured++
	Logger().Debug("snapshot captured", zap.String("slot", slot), zap.Stringer("handle", h))
	return nil
}

// Add queues a snapshot produced elsewhere, for example decoded from a
// previous process.
func (rc *ReconstructionContext) Add(s *Snapshot) error {
	if _, ok := rc.pending[s.Slot]; ok {
		rc.stats.Conflicts++
		return errors.SlotConflict(errors.PhaseCapture, s.Slot, "slot captured twice")
	}
	rc.pending[s.Slot] = s
	rc.stats.Captured++
	return nil
}

// Pending reports whether a snapshot waits for slot.
func (rc *ReconstructionContext) Pending(slot string) bool {
	_, ok := rc.pending[slot]
	return ok
}

// Snapshot returns the snapshot waiting for slot.
func (rc *ReconstructionContext) Snapshot(slot string) (*Snapshot, bool) {
	s, ok := rc.pending[slot]
	return s, ok
}

// Snapshots returns the waiting snapshots ordered by slot.
func (rc *ReconstructionContext) Snapshots() []*Snapshot {
	out := make([]*Snapshot, 0, len(rc.pending))
	for _, s := range rc.pending {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Restore hands the snapshot for slot to host. Without a snapshot it does
// nothing. Restoring again into the owner that already holds the handle is a
// no-op; a different owner claiming a consumed slot gets a slot conflict.
func (rc *ReconstructionContext) Restore(slot string, host any) error {
	if h, ok := rc.restored[slot]; ok {
		owner, ok := host.(interface{ NativeAddress() resource.Handle })
		if ok && owner.NativeAddress() == h {
			return nil
		}
		rc.stats.Conflicts++
		err := errors.SlotConflict(errors.PhaseRestore, slot, "slot already restored into another owner")
		Logger().Error("snapshot restore refused", zap.String("slot", slot), zap.Error(err))
		return err
	}

	s, ok := rc.pending[slot]
	if !ok {
		return nil
	}
	if err := s.Apply(host); err != nil {
		Logger().Error("snapshot restore failed", zap.String("slot", slot), zap.Error(err))
		return err
	}

	delete(rc.pending, slot)
	rc.restored[slot] = s.Handle
	rc.stats.Restored++
	return nil
}

// Stats returns the counters of this reconstruction.
func (rc *ReconstructionContext) Stats() ReconstructionStats {
	return rc.stats
}

// Finish closes the context. Every snapshot still waiting is reported as
// unresolved and its handle goes to the orphan function.
func (rc *ReconstructionContext) Finish() error {
	if rc.finished {
		return nil
	}
	rc.finished = true

	var errs []error
	for _, s := range rc.Snapshots() {
		errs = append(errs, errors.SlotUnresolved(s.Slot, s.OwnerType, s.Handle))
		rc.stats.Orphaned++
		if rc.orphan != nil {
			if err := rc.orphan(s.Handle); err != nil {
				errs = append(errs, err)
			}
		}
		delete(rc.pending, s.Slot)
	}
	if len(errs) > 0 {
		Logger().Warn("reconstruction left unresolved slots", zap.Int("count", rc.stats.Orphaned))
	}
	return errors.Join(errs...)
}
