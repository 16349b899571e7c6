// Package registry tracks the native owners of one simulation session so
// they can be stepped and torn down together.
package registry

import (
	"go.uber.org/zap"

	simbridge "github.com/wippyai/sim-bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

// Engine is the simulation stepped by the registry.
type Engine interface {
	Step(dt float64) error
}

// PreStepper owners push host state into the engine before a step.
type PreStepper interface {
	PreStep(dt float64)
}

// PostStepper owners pull engine state into their shadow fields after a
// step.
type PostStepper interface {
	PostStep(dt float64)
}

// Stats counts registry traffic over its lifetime.
type Stats struct {
	Live     int
	Added    uint64
	Rebound  uint64
	Removed  uint64
	Released uint64
	Skipped  uint64
	Steps    uint64
}

// Teardown is the outcome of TeardownAll.
type Teardown struct {
	Released int
	Skipped  int
}

// Registry is the set of live owners keyed by native handle. Keying by
// handle lets a reconstructed owner take over the entry of the incarnation
// it replaced.
//
// Registry is not safe for concurrent use.
type Registry struct {
	engine  Engine
	entries map[resource.Handle]simbridge.Releaser
	order   []resource.Handle
	stats   Stats
	active  bool
}

// New creates an inactive registry stepping engine.
func New(engine Engine) *Registry {
	return &Registry{
		engine:  engine,
		entries: make(map[resource.Handle]simbridge.Releaser),
	}
}

// Activate marks the start of a session.
func (r *Registry) Activate() {
	r.active = true
}

// Active reports whether a session is running.
func (r *Registry) Active() bool {
	return r.active
}

// Add records owner under its current handle. Adding an owner whose handle
// is already present rebinds the entry to owner. Unallocated owners are
// ignored.
func (r *Registry) Add(owner simbridge.Releaser) {
	if owner == nil || !owner.HasNative() {
		return
	}
	h := owner.NativeAddress()
	if _, ok := r.entries[h]; ok {
		r.entries[h] = owner
		r.stats.Rebound++
		Logger().Debug("registry entry rebound", zap.Stringer("handle", h))
		return
	}
	r.entries[h] = owner
	r.order = append(r.order, h)
	r.stats.Added++
}

// Remove forgets owner's current handle. It is a no-op for unknown handles.
func (r *Registry) Remove(owner simbridge.NativeOwner) {
	if owner == nil {
		return
	}
	r.RemoveHandle(owner.NativeAddress())
}

// RemoveHandle forgets h.
func (r *Registry) RemoveHandle(h resource.Handle) {
	if _, ok := r.entries[h]; !ok {
		return
	}
	delete(r.entries, h)
	for i, v := range r.order {
		if v == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.stats.Removed++
}

// Contains reports whether h is registered.
func (r *Registry) Contains(h resource.Handle) bool {
	_, ok := r.entries[h]
	return ok
}

// Owner returns the owner registered under h.
func (r *Registry) Owner(h resource.Handle) (simbridge.Releaser, bool) {
	o, ok := r.entries[h]
	return o, ok
}

// Len returns the number of registered owners.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Each visits owners in registration order until fn returns false.
func (r *Registry) Each(fn func(resource.Handle, simbridge.Releaser) bool) {
	for _, h := range r.order {
		if !fn(h, r.entries[h]) {
			return
		}
	}
}

// Stats returns lifetime counters.
func (r *Registry) Stats() Stats {
	s := r.stats
	s.Live = len(r.entries)
	return s
}

// Step runs PreStep hooks, advances the engine by dt and runs PostStep
// hooks.
func (r *Registry) Step(dt float64) error {
	if !r.active {
		return errors.NotInitialized(errors.PhaseStep, "session")
	}

	owners := r.snapshot()
	for _, o := range owners {
		if p, ok := o.(PreStepper); ok {
			p.PreStep(dt)
		}
	}
	if err := r.engine.Step(dt); err != nil {
		return err
	}
	for _, o := range owners {
		if p, ok := o.(PostStepper); ok {
			p.PostStep(dt)
		}
	}
	r.stats.Steps++
	return nil
}

// TeardownAll drains the registry at session end. An owner is released only
// while it still holds the handle it was registered under; entries whose
// handle moved into a reconstruction snapshot are skipped.
func (r *Registry) TeardownAll() (Teardown, error) {
	var (
		res  Teardown
		errs []error
	)

	order := r.order
	entries := r.entries
	r.order = nil
	r.entries = make(map[resource.Handle]simbridge.Releaser)
	r.active = false

	for _, h := range order {
		owner := entries[h]
		if !owner.HasNative() || owner.NativeAddress() != h {
			res.Skipped++
			continue
		}
		if err := owner.ReleaseNative(); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Released++
	}

	r.stats.Released += uint64(res.Released)
	r.stats.Skipped += uint64(res.Skipped)
	Logger().Debug("registry torn down",
		zap.Int("released", res.Released),
		zap.Int("skipped", res.Skipped))

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

func (r *Registry) snapshot() []simbridge.Releaser {
	out := make([]simbridge.Releaser, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.entries[h])
	}
	return out
}
