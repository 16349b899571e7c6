package scene

import (
	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	simbridge "github.com/wippyai/sim-bridge"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

// Owner type names used in reconstruction snapshots.
const (
	TypeRigidBody  = "scene.RigidBody"
	TypeShape      = "scene.Shape"
	TypeConstraint = "scene.DistanceConstraint"
)

func init() {
	bridge.RegisterOwnerType(TypeRigidBody, bridge.DowncastTo[*RigidBody]())
	bridge.RegisterOwnerType(TypeShape, bridge.DowncastTo[*Shape]())
	bridge.RegisterOwnerType(TypeConstraint, bridge.DowncastTo[*DistanceConstraint]())
}

// Component is a native-backed part of an actor.
type Component interface {
	simbridge.Releaser
	// Slot names the component's logical position, stable across
	// reconstruction.
	Slot() string
	OwnerType() string
	State() bridge.State
	Actor() *Actor
	// GetOrCreateNative allocates the native object on first use during a
	// live session.
	GetOrCreateNative() (resource.Handle, error)
}

// Allocation order within an actor: dependencies first.
const (
	stageBody = iota
	stageShape
	stageConstraint
)

type component interface {
	Component
	core() *bridge.Barrier
	stage() int
	bind(rt *Runtime)
}

type base struct {
	actor *Actor
	slot  string
}

func (c *base) Slot() string  { return c.slot }
func (c *base) Actor() *Actor { return c.actor }

func (c *base) runtime() *Runtime {
	if c.actor == nil || c.actor.scene == nil {
		return nil
	}
	return c.actor.scene.rt
}

func (c *base) live() bool {
	return c.actor != nil && c.actor.scene != nil && c.actor.scene.Live()
}

// deferred is returned by GetOrCreateNative outside a live session.
func (c *base) deferred() error {
	return errors.New(errors.PhaseAllocate, errors.KindNoSession).
		Path(c.slot).
		Detail("no live session").
		Build()
}

// register runs as the first post-construction hook. It applies a pending
// snapshot and records restored owners with the registry.
func register(c component, rc *bridge.ReconstructionContext) error {
	b := c.core()
	err := b.Restore(rc, c.Slot(), c)
	if b.HasNative() {
		if rt := c.Actor().scene.rt; rt != nil {
			rt.Registry.Add(c)
		}
	}
	return err
}

// destroy ends a component. With a context the handle moves into a
// snapshot and the registry entry stays for the replacement to take over.
func destroy(c component, rc *bridge.ReconstructionContext) error {
	b := c.core()
	h := b.NativeAddress()
	moved, err := b.Destroy(rc, c.Slot(), c.OwnerType())
	if h != 0 && !moved {
		if rt := c.Actor().scene.rt; rt != nil {
			rt.Registry.RemoveHandle(h)
		}
	}
	return err
}

func track(c component) {
	if rt := c.Actor().scene.rt; rt != nil && c.core().HasNative() {
		rt.Registry.Add(c)
	}
}

func toB2(v mgl64.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v[0], v[1])
}

func fromB2(v box2d.B2Vec2) mgl64.Vec2 {
	return mgl64.Vec2{v.X, v.Y}
}
