package scene

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/registry"
	"github.com/wippyai/sim-bridge/resource"
)

// Runtime is the session context a scene allocates natives in.
type Runtime struct {
	Engine   *native.Engine
	Registry *registry.Registry
	Scope    *asset.Scope
}

// ReconstructStats accumulates the outcome of every reconstruction.
type ReconstructStats struct {
	Events int
	bridge.ReconstructionStats
}

// Scene holds actors. Without a runtime it is a design-time scene: objects
// keep their configuration in shadow fields and never allocate.
//
// Scene is not safe for concurrent use.
type Scene struct {
	rt      *Runtime
	actors  map[string]*Actor
	order   []string
	rebuild ReconstructStats
	live    bool
}

// New creates a scene. rt may be nil.
func New(rt *Runtime) *Scene {
	return &Scene{
		rt:     rt,
		actors: make(map[string]*Actor),
	}
}

// Runtime returns the scene's session context, or nil.
func (s *Scene) Runtime() *Runtime {
	return s.rt
}

// Live reports whether play has begun.
func (s *Scene) Live() bool {
	return s.live
}

// Spawn builds a new actor from bp. During play its natives are allocated
// immediately.
func (s *Scene) Spawn(name string, bp Blueprint) (*Actor, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "actor name is empty")
	}
	if _, ok := s.actors[name]; ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path(name).
			Detail("actor already exists").
			Build()
	}

	a := &Actor{name: name, scene: s, blueprint: bp}
	s.actors[name] = a
	s.order = append(s.order, name)

	if err := a.build(nil); err != nil {
		return a, err
	}
	if s.live {
		return a, a.allocate()
	}
	return a, nil
}

// Actor returns the named actor.
func (s *Scene) Actor(name string) (*Actor, bool) {
	a, ok := s.actors[name]
	return a, ok
}

// Actors returns actors in spawn order.
func (s *Scene) Actors() []*Actor {
	out := make([]*Actor, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.actors[name])
	}
	return out
}

// Destroy removes an actor and releases its natives.
func (s *Scene) Destroy(name string) error {
	a, ok := s.actors[name]
	if !ok {
		return errors.NotFound(errors.PhaseTeardown, "actor", name)
	}
	delete(s.actors, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return a.teardown(nil)
}

// Reconstruct destroys and rebuilds an actor from its blueprint. Native
// objects move from each old component to its replacement in the same slot.
func (s *Scene) Reconstruct(name string) (bridge.ReconstructionStats, error) {
	a, ok := s.actors[name]
	if !ok {
		return bridge.ReconstructionStats{}, errors.NotFound(errors.PhaseRestore, "actor", name)
	}
	return s.ReconstructWith(name, a.blueprint)
}

// ReconstructWith rebuilds an actor from a replacement blueprint, as after
// a script edit. Slots missing from bp lose their natives when the
// reconstruction finishes; slots bp adds are allocated fresh.
func (s *Scene) ReconstructWith(name string, bp Blueprint) (bridge.ReconstructionStats, error) {
	a, ok := s.actors[name]
	if !ok {
		return bridge.ReconstructionStats{}, errors.NotFound(errors.PhaseRestore, "actor", name)
	}

	rc := bridge.NewReconstructionContext(s.orphan)
	var errs []error

	if err := a.teardown(rc); err != nil {
		errs = append(errs, err)
	}
	a.blueprint = bp
	if err := a.build(rc); err != nil {
		errs = append(errs, err)
	}
	if s.live {
		if err := a.allocate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := rc.Finish(); err != nil {
		errs = append(errs, err)
	}

	st := rc.Stats()
	s.rebuild.Events++
	s.rebuild.Captured += st.Captured
	s.rebuild.Restored += st.Restored
	s.rebuild.Orphaned += st.Orphaned
	s.rebuild.Conflicts += st.Conflicts

	Logger().Info("actor reconstructed",
		zap.String("actor", name),
		zap.Int("captured", st.Captured),
		zap.Int("restored", st.Restored),
		zap.Int("orphaned", st.Orphaned))
	return st, errors.Join(errs...)
}

// ReconstructStats returns totals over all reconstructions.
func (s *Scene) ReconstructStats() ReconstructStats {
	return s.rebuild
}

// BeginPlay allocates the natives of every actor. Environmental failures
// are collected; affected components retry on their next request.
func (s *Scene) BeginPlay() error {
	if s.rt == nil {
		return errors.New(errors.PhaseAllocate, errors.KindNoSession).
			Detail("scene has no runtime").
			Build()
	}
	s.live = true

	var errs []error
	for _, a := range s.Actors() {
		if err := a.allocate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EndPlay marks play as over. Natives are released by the registry and the
// asset scope, not here.
func (s *Scene) EndPlay() {
	s.live = false
}

// Components returns every component sorted by slot.
func (s *Scene) Components() []Component {
	var out []Component
	for _, a := range s.Actors() {
		out = append(out, a.Components()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot() < out[j].Slot() })
	return out
}

func (s *Scene) orphan(h resource.Handle) error {
	if s.rt == nil {
		return nil
	}
	s.rt.Registry.RemoveHandle(h)
	return s.rt.Engine.Release(h)
}
