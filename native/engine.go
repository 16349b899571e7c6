package native

import (
	"math"

	"github.com/ByteArena/box2d"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

// Engine is the external simulation. Host code never sees engine objects
// directly: every object lives in the handle table and is addressed by a
// resource.Handle.
//
// Engine is not thread-safe. All calls must come from the simulation
// goroutine; only the handle table may be read concurrently.
type Engine struct {
	table       *resource.UnifiedTable
	bodies      *resource.Typed[*body]
	shapes      *resource.Typed[*shape]
	materials   *resource.Typed[*material]
	properties  *resource.Typed[*properties]
	constraints *resource.Typed[*constraint]
	world       box2d.B2World
	cfg         Config
	steps       uint64
	closed      bool
}

// Stats is a point-in-time count of live native objects.
type Stats struct {
	Bodies      int
	Shapes      int
	Materials   int
	Properties  int
	Constraints int
	Steps       uint64
}

// New creates an engine with its own world and handle table.
func New(cfg Config) (*Engine, error) {
	if cfg.VelocityIterations <= 0 || cfg.PositionIterations <= 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "solver iterations must be positive")
	}
	if !validVec(cfg.Gravity) {
		return nil, errors.InvalidInput(errors.PhaseConfig, "gravity must be finite")
	}

	table := resource.NewTable()
	e := &Engine{
		table:       table,
		bodies:      resource.NewTyped[*body](table, TypeBody),
		shapes:      resource.NewTyped[*shape](table, TypeShape),
		materials:   resource.NewTyped[*material](table, TypeMaterial),
		properties:  resource.NewTyped[*properties](table, TypeProperties),
		constraints: resource.NewTyped[*constraint](table, TypeConstraint),
		world:       box2d.MakeB2World(cfg.Gravity),
		cfg:         cfg,
	}
	e.world.SetContactListener(&contactListener{engine: e})
	return e, nil
}

// Table returns the engine's handle table.
func (e *Engine) Table() *resource.UnifiedTable {
	return e.table
}

// Valid reports whether h refers to a live native object.
func (e *Engine) Valid(h resource.Handle) bool {
	return e.table.Valid(h)
}

// TypeID returns the native type of a live object.
func (e *Engine) TypeID(h resource.Handle) (uint32, bool) {
	return e.table.TypeID(h)
}

// Retain adds a reference to a live native object.
func (e *Engine) Retain(h resource.Handle) error {
	if !e.table.Retain(h) {
		return errors.InvalidHandle(errors.PhaseAccess, e.typeName(h), h)
	}
	return nil
}

// Release drops a reference. The object is destroyed when the engine graph
// and every host holder have released it.
func (e *Engine) Release(h resource.Handle) error {
	name := e.typeName(h)
	if !e.table.Release(h) {
		return errors.InvalidHandle(errors.PhaseRelease, name, h)
	}
	return nil
}

// Refs returns the current reference count of h.
func (e *Engine) Refs(h resource.Handle) (uint32, bool) {
	return e.table.Refs(h)
}

// Gravity returns the world gravity.
func (e *Engine) Gravity() box2d.B2Vec2 {
	return e.world.GetGravity()
}

// SetGravity changes the world gravity.
func (e *Engine) SetGravity(g box2d.B2Vec2) error {
	if !validVec(g) {
		return errors.InvalidInput(errors.PhaseAccess, "gravity must be finite")
	}
	e.world.SetGravity(g)
	return nil
}

// Step advances the simulation by dt seconds.
func (e *Engine) Step(dt float64) error {
	if e.closed {
		return errors.NotInitialized(errors.PhaseStep, "engine")
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return errors.InvalidInput(errors.PhaseStep, "time step must be positive and finite")
	}

	e.solveConstraints()
	e.world.Step(dt, e.cfg.VelocityIterations, e.cfg.PositionIterations)
	e.steps++
	return nil
}

// Stats counts live native objects.
func (e *Engine) Stats() Stats {
	s := Stats{Steps: e.steps}
	e.table.Each(func(_ resource.Handle, typeID uint32, _ any) bool {
		switch typeID {
		case TypeBody:
			s.Bodies++
		case TypeShape:
			s.Shapes++
		case TypeMaterial:
			s.Materials++
		case TypeProperties:
			s.Properties++
		case TypeConstraint:
			s.Constraints++
		}
		return true
	})
	return s
}

// Close destroys every native object regardless of outstanding references.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	live := e.table.Len()
	if err := e.table.Close(); err != nil {
		return err
	}
	Logger().Debug("engine closed", zap.Int("live", live), zap.Uint64("steps", e.steps))
	return nil
}

func (e *Engine) typeName(h resource.Handle) string {
	typeID, ok := e.table.TypeID(h)
	if !ok {
		return "object"
	}
	return TypeName(typeID)
}

func (e *Engine) insert(typeID uint32, value any) (resource.Handle, error) {
	h := e.table.Insert(typeID, value)
	if h == 0 {
		return 0, errors.AllocationFailed(TypeName(typeID), resource.ErrClosed)
	}
	return h, nil
}

func (e *Engine) checkWritable(native string) error {
	if e.closed {
		return errors.AllocationFailed(native, resource.ErrClosed)
	}
	if e.world.IsLocked() {
		return errors.New(errors.PhaseAllocate, errors.KindAllocation).
			Native(native).
			Detail("world is locked during step").
			Build()
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validVec(v box2d.B2Vec2) bool {
	return finite(v.X) && finite(v.Y)
}
