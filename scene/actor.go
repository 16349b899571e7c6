package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
)

// Blueprint is an actor's construction script. It runs on spawn and again
// on every reconstruction, so it must add the same components in the same
// order to keep slots stable.
type Blueprint func(a *Actor)

// Actor is a named group of components built by a blueprint.
type Actor struct {
	scene      *Scene
	blueprint  Blueprint
	rc         *bridge.ReconstructionContext
	name       string
	components []component
}

// Name returns the actor name.
func (a *Actor) Name() string {
	return a.name
}

// Scene returns the owning scene.
func (a *Actor) Scene() *Scene {
	return a.scene
}

// Components returns components in slot order.
func (a *Actor) Components() []Component {
	out := make([]Component, len(a.components))
	for i, c := range a.components {
		out[i] = c
	}
	return out
}

// Component returns the component at index i.
func (a *Actor) Component(i int) (Component, bool) {
	if i < 0 || i >= len(a.components) {
		return nil, false
	}
	return a.components[i], true
}

// BodySpec configures a rigid body at construction.
type BodySpec struct {
	Properties      *BodyProperties
	Position        mgl64.Vec2
	LinearVelocity  mgl64.Vec2
	Angle           float64
	AngularVelocity float64
	Motion          native.Motion
	FixedRotation   bool
}

// ShapeSpec configures a shape at construction.
type ShapeSpec struct {
	Material    *ShapeMaterial
	HalfExtents mgl64.Vec2
	Offset      mgl64.Vec2
	Radius      float64
	Kind        native.ShapeKind
	Sensor      bool
}

// ConstraintSpec configures a distance constraint at construction.
type ConstraintSpec struct {
	AnchorA    mgl64.Vec2
	AnchorB    mgl64.Vec2
	RestLength float64
	Stiffness  float64
	Damping    float64
	Disabled   bool
}

// AddRigidBody adds a rigid body.
func (a *Actor) AddRigidBody(spec BodySpec) *RigidBody {
	rb := &RigidBody{
		position:        spec.Position,
		angle:           spec.Angle,
		linearVelocity:  spec.LinearVelocity,
		angularVelocity: spec.AngularVelocity,
		motion:          spec.Motion,
		fixedRotation:   spec.FixedRotation,
		properties:      spec.Properties,
	}
	a.add(rb, &rb.base)
	return rb
}

// AddShape attaches a shape to body.
func (a *Actor) AddShape(body *RigidBody, spec ShapeSpec) *Shape {
	s := &Shape{
		body:        body,
		kind:        spec.Kind,
		halfExtents: spec.HalfExtents,
		offset:      spec.Offset,
		radius:      spec.Radius,
		sensor:      spec.Sensor,
		material:    spec.Material,
	}
	a.add(s, &s.base)
	return s
}

// AddBox attaches a box shape with the default material.
func (a *Actor) AddBox(body *RigidBody, halfExtents mgl64.Vec2) *Shape {
	return a.AddShape(body, ShapeSpec{Kind: native.ShapeBox, HalfExtents: halfExtents})
}

// AddSphere attaches a sphere shape with the default material.
func (a *Actor) AddSphere(body *RigidBody, radius float64) *Shape {
	return a.AddShape(body, ShapeSpec{Kind: native.ShapeSphere, Radius: radius})
}

// AddConstraint connects two bodies with a soft distance constraint.
func (a *Actor) AddConstraint(bodyA, bodyB *RigidBody, spec ConstraintSpec) *DistanceConstraint {
	c := &DistanceConstraint{
		bodyA:      bodyA,
		bodyB:      bodyB,
		anchorA:    spec.AnchorA,
		anchorB:    spec.AnchorB,
		restLength: spec.RestLength,
		stiffness:  spec.Stiffness,
		damping:    spec.Damping,
		enabled:    !spec.Disabled,
	}
	a.add(c, &c.base)
	return c
}

func (a *Actor) add(c component, b *base) {
	b.actor = a
	b.slot = fmt.Sprintf("%s/components[%d]", a.name, len(a.components))
	a.components = append(a.components, c)

	if a.scene.rt != nil {
		c.bind(a.scene.rt)
	}
	c.core().Construct(a.rc, b.slot)
}

// build runs the blueprint and then the first post-construction hook of
// every new component.
func (a *Actor) build(rc *bridge.ReconstructionContext) error {
	a.components = nil
	a.rc = rc
	if a.blueprint != nil {
		a.blueprint(a)
	}
	a.rc = nil

	var errs []error
	for _, c := range a.components {
		if err := register(c, rc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// allocate creates missing natives, dependencies first.
func (a *Actor) allocate() error {
	var errs []error
	for stage := stageBody; stage <= stageConstraint; stage++ {
		for _, c := range a.components {
			if c.stage() != stage || c.core().HasNative() {
				continue
			}
			if _, err := c.GetOrCreateNative(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// teardown destroys components in reverse order.
func (a *Actor) teardown(rc *bridge.ReconstructionContext) error {
	var errs []error
	for i := len(a.components) - 1; i >= 0; i-- {
		if err := destroy(a.components[i], rc); err != nil {
			errs = append(errs, err)
		}
	}
	a.components = nil
	return errors.Join(errs...)
}
