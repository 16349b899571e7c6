package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

// DistanceConstraint pulls two bodies towards a rest distance between
// their anchors.
type DistanceConstraint struct {
	base
	barrier    bridge.ConstraintBarrier
	bodyA      *RigidBody
	bodyB      *RigidBody
	anchorA    mgl64.Vec2
	anchorB    mgl64.Vec2
	restLength float64
	stiffness  float64
	damping    float64
	enabled    bool
}

func (c *DistanceConstraint) OwnerType() string              { return TypeConstraint }
func (c *DistanceConstraint) State() bridge.State            { return c.barrier.State() }
func (c *DistanceConstraint) HasNative() bool                { return c.barrier.HasNative() }
func (c *DistanceConstraint) NativeAddress() resource.Handle { return c.barrier.NativeAddress() }

// SetNativeAddress adopts h.
func (c *DistanceConstraint) SetNativeAddress(h resource.Handle) error {
	return c.barrier.SetNativeAddress(h)
}

// ReleaseNative releases the native constraint.
func (c *DistanceConstraint) ReleaseNative() error {
	return c.barrier.Release()
}

func (c *DistanceConstraint) core() *bridge.Barrier { return &c.barrier.Barrier }
func (c *DistanceConstraint) stage() int            { return stageConstraint }
func (c *DistanceConstraint) bind(rt *Runtime)      { c.barrier.Bind(rt.Engine) }

// Bodies returns the constrained bodies.
func (c *DistanceConstraint) Bodies() (*RigidBody, *RigidBody) {
	return c.bodyA, c.bodyB
}

// GetOrCreateNative allocates the constraint during play. Both bodies must
// already have native objects.
func (c *DistanceConstraint) GetOrCreateNative() (resource.Handle, error) {
	if c.barrier.HasNative() {
		return c.barrier.NativeAddress(), nil
	}
	if !c.live() {
		return 0, c.deferred()
	}
	if c.bodyA == nil || c.bodyB == nil {
		return 0, bridge.Environmental(errors.DependencyNotReady(c.barrier.Native(), 0))
	}

	if err := c.barrier.AllocateConstraint(c.def(), c.bodyA.Barrier(), c.bodyB.Barrier()); err != nil {
		return 0, err
	}
	track(c)
	return c.barrier.NativeAddress(), nil
}

func (c *DistanceConstraint) def() native.ConstraintDef {
	return native.ConstraintDef{
		AnchorA:    toB2(c.anchorA),
		AnchorB:    toB2(c.anchorB),
		RestLength: c.restLength,
		Stiffness:  c.stiffness,
		Damping:    c.damping,
		Enabled:    c.enabled,
	}
}

func (c *DistanceConstraint) read() native.ConstraintDef {
	return bridge.Read(c.core(), c.def(), c.barrier.Constraint)
}

func (c *DistanceConstraint) RestLength() float64 { return c.read().RestLength }
func (c *DistanceConstraint) Stiffness() float64  { return c.read().Stiffness }
func (c *DistanceConstraint) Damping() float64    { return c.read().Damping }
func (c *DistanceConstraint) Enabled() bool       { return c.read().Enabled }

func (c *DistanceConstraint) SetRestLength(v float64) error {
	return bridge.Write(c.core(), &c.restLength, v, func(v float64) error {
		return c.update(func(d *native.ConstraintDef) { d.RestLength = v })
	})
}

func (c *DistanceConstraint) SetStiffness(v float64) error {
	return bridge.Write(c.core(), &c.stiffness, v, func(v float64) error {
		return c.update(func(d *native.ConstraintDef) { d.Stiffness = v })
	})
}

func (c *DistanceConstraint) SetDamping(v float64) error {
	return bridge.Write(c.core(), &c.damping, v, func(v float64) error {
		return c.update(func(d *native.ConstraintDef) { d.Damping = v })
	})
}

func (c *DistanceConstraint) SetEnabled(v bool) error {
	return bridge.Write(c.core(), &c.enabled, v, func(v bool) error {
		return c.update(func(d *native.ConstraintDef) { d.Enabled = v })
	})
}

// Length returns the current anchor distance during play, or the rest
// length before it.
func (c *DistanceConstraint) Length() float64 {
	return bridge.Read(c.core(), c.restLength, c.barrier.Length)
}

// update changes one field of the native definition, leaving the others
// as the engine has them.
func (c *DistanceConstraint) update(apply func(*native.ConstraintDef)) error {
	d, err := c.barrier.Constraint()
	if err != nil {
		return err
	}
	apply(&d)
	return c.barrier.SetConstraint(d)
}
