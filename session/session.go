// Package session drives one simulation session: it owns the engine, the
// registry of live owners, the asset scope and the scene, and turns the
// begin and end signals into allocation and teardown.
package session

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/registry"
	"github.com/wippyai/sim-bridge/scene"
)

// Summary is the outcome of End.
type Summary struct {
	Steps     uint64
	Released  int
	Skipped   int
	Instances int
}

// Session is not safe for concurrent use.
type Session struct {
	id     uuid.UUID
	cfg    Config
	eng    *native.Engine
	reg    *registry.Registry
	scope  *asset.Scope
	scene  *scene.Scene
	steps  uint64
	live   bool
	closed bool
}

// New creates a session with an empty scene.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.StrictContracts != nil {
		bridge.SetStrict(*cfg.StrictContracts)
	}

	eng, err := native.New(cfg.Engine())
	if err != nil {
		return nil, err
	}
	reg := registry.New(eng)
	scope := asset.NewScope(eng)

	s := &Session{
		id:    uuid.New(),
		cfg:   cfg,
		eng:   eng,
		reg:   reg,
		scope: scope,
	}
	s.scene = scene.New(&scene.Runtime{Engine: eng, Registry: reg, Scope: scope})
	return s, nil
}

func (s *Session) ID() uuid.UUID                { return s.id }
func (s *Session) Config() Config               { return s.cfg }
func (s *Session) Engine() *native.Engine       { return s.eng }
func (s *Session) Registry() *registry.Registry { return s.reg }
func (s *Session) Scope() *asset.Scope          { return s.scope }
func (s *Session) Scene() *scene.Scene          { return s.scene }
func (s *Session) Live() bool                   { return s.live }
func (s *Session) Steps() uint64                { return s.steps }

// Begin starts play: the registry and asset scope go live and every actor
// allocates its natives. Environmental allocation failures are returned but
// do not stop the session from beginning.
func (s *Session) Begin() error {
	if s.closed {
		return errors.NotInitialized(errors.PhaseAllocate, "session")
	}
	if s.live {
		return errors.New(errors.PhaseAllocate, errors.KindInvalidInput).
			Detail("session already live").
			Build()
	}
	if err := s.scope.Begin(); err != nil {
		return err
	}
	s.reg.Activate()
	s.live = true

	err := s.scene.BeginPlay()
	Logger().Info("session begun",
		zap.Stringer("session", s.id),
		zap.Int("registered", s.reg.Len()))
	return err
}

// Step advances the simulation by the configured time step.
func (s *Session) Step() error {
	return s.StepDelta(s.cfg.TimeStep)
}

// StepDelta advances the simulation by dt seconds.
func (s *Session) StepDelta(dt float64) error {
	if !s.live {
		return errors.NotInitialized(errors.PhaseStep, "session")
	}
	if err := s.reg.Step(dt); err != nil {
		return err
	}
	s.steps++
	return nil
}

// StepN runs n fixed steps.
func (s *Session) StepN(n int) error {
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reconstruct rebuilds an actor, carrying its natives across.
func (s *Session) Reconstruct(name string) (bridge.ReconstructionStats, error) {
	return s.scene.Reconstruct(name)
}

// End tears the session down: every registered owner releases its native,
// then every promoted instance. The scene keeps its objects, which fall
// back to their shadow fields.
func (s *Session) End() (Summary, error) {
	if !s.live {
		return Summary{}, errors.NotInitialized(errors.PhaseTeardown, "session")
	}

	var errs []error
	td, err := s.reg.TeardownAll()
	if err != nil {
		errs = append(errs, err)
	}
	instances, err := s.scope.End()
	if err != nil {
		errs = append(errs, err)
	}
	s.scene.EndPlay()
	s.live = false

	sum := Summary{
		Steps:     s.steps,
		Released:  td.Released,
		Skipped:   td.Skipped,
		Instances: instances,
	}
	Logger().Info("session ended",
		zap.Stringer("session", s.id),
		zap.Uint64("steps", sum.Steps),
		zap.Int("released", sum.Released),
		zap.Int("skipped", sum.Skipped),
		zap.Int("instances", sum.Instances))
	return sum, errors.Join(errs...)
}

// Close ends a live session and destroys the engine.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var errs []error
	if s.live {
		if _, err := s.End(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closed = true
	if err := s.eng.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
