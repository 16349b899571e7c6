package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

// RigidBody is a simulated body. Its fields are shadows of the native body:
// they configure the body before play and track it during play.
type RigidBody struct {
	base
	barrier         bridge.RigidBodyBarrier
	properties      *BodyProperties
	position        mgl64.Vec2
	linearVelocity  mgl64.Vec2
	angle           float64
	angularVelocity float64
	motion          native.Motion
	fixedRotation   bool
}

func (rb *RigidBody) OwnerType() string              { return TypeRigidBody }
func (rb *RigidBody) State() bridge.State            { return rb.barrier.State() }
func (rb *RigidBody) HasNative() bool                { return rb.barrier.HasNative() }
func (rb *RigidBody) NativeAddress() resource.Handle { return rb.barrier.NativeAddress() }

// SetNativeAddress adopts h.
func (rb *RigidBody) SetNativeAddress(h resource.Handle) error {
	return rb.barrier.SetNativeAddress(h)
}

// ReleaseNative releases the native body after pulling its final state into
// the shadow fields. A property set swapped for its session instance
// reverts to the template.
func (rb *RigidBody) ReleaseNative() error {
	rb.PostStep(0)
	if rb.properties != nil && rb.properties.Link().IsInstance() {
		rb.properties = rb.properties.Link().Template()
	}
	return rb.barrier.Release()
}

// Barrier exposes the typed barrier for dependants.
func (rb *RigidBody) Barrier() *bridge.RigidBodyBarrier {
	return &rb.barrier
}

func (rb *RigidBody) core() *bridge.Barrier { return &rb.barrier.Barrier }
func (rb *RigidBody) stage() int            { return stageBody }
func (rb *RigidBody) bind(rt *Runtime)      { rb.barrier.Bind(rt.Engine) }

// GetOrCreateNative allocates the body during play.
func (rb *RigidBody) GetOrCreateNative() (resource.Handle, error) {
	if rb.barrier.HasNative() {
		return rb.barrier.NativeAddress(), nil
	}
	if !rb.live() {
		return 0, rb.deferred()
	}
	rb.properties = asset.Current(rb.properties)

	err := rb.barrier.AllocateBody(native.BodyDef{
		Position:        toB2(rb.position),
		LinearVelocity:  toB2(rb.linearVelocity),
		Angle:           rb.angle,
		AngularVelocity: rb.angularVelocity,
		Motion:          rb.motion,
		FixedRotation:   rb.fixedRotation,
	})
	if err != nil {
		return 0, err
	}
	if err := rb.applyProperties(); err != nil {
		Logger().Warn("body properties not applied", zap.String("slot", rb.slot), zap.Error(err))
	}
	track(rb)
	return rb.barrier.NativeAddress(), nil
}

// PostStep copies the simulated state into the shadow fields.
func (rb *RigidBody) PostStep(float64) {
	if !rb.barrier.HasNative() {
		return
	}
	if p, err := rb.barrier.Position(); err == nil {
		rb.position = fromB2(p)
	}
	if a, err := rb.barrier.Angle(); err == nil {
		rb.angle = a
	}
	if v, err := rb.barrier.LinearVelocity(); err == nil {
		rb.linearVelocity = fromB2(v)
	}
	if w, err := rb.barrier.AngularVelocity(); err == nil {
		rb.angularVelocity = w
	}
}

func (rb *RigidBody) Motion() native.Motion {
	return bridge.Read(rb.core(), rb.motion, rb.barrier.Motion)
}

func (rb *RigidBody) SetMotion(m native.Motion) error {
	return bridge.Write(rb.core(), &rb.motion, m, rb.barrier.SetMotion)
}

func (rb *RigidBody) Position() mgl64.Vec2 {
	return bridge.Read(rb.core(), rb.position, func() (mgl64.Vec2, error) {
		p, err := rb.barrier.Position()
		return fromB2(p), err
	})
}

// SetPosition teleports the body, keeping its angle.
func (rb *RigidBody) SetPosition(p mgl64.Vec2) error {
	return bridge.Write(rb.core(), &rb.position, p, func(p mgl64.Vec2) error {
		return rb.barrier.SetTransform(toB2(p), rb.Angle())
	})
}

func (rb *RigidBody) Angle() float64 {
	return bridge.Read(rb.core(), rb.angle, rb.barrier.Angle)
}

func (rb *RigidBody) SetAngle(angle float64) error {
	return bridge.Write(rb.core(), &rb.angle, angle, func(angle float64) error {
		return rb.barrier.SetTransform(toB2(rb.Position()), angle)
	})
}

func (rb *RigidBody) LinearVelocity() mgl64.Vec2 {
	return bridge.Read(rb.core(), rb.linearVelocity, func() (mgl64.Vec2, error) {
		v, err := rb.barrier.LinearVelocity()
		return fromB2(v), err
	})
}

func (rb *RigidBody) SetLinearVelocity(v mgl64.Vec2) error {
	return bridge.Write(rb.core(), &rb.linearVelocity, v, func(v mgl64.Vec2) error {
		return rb.barrier.SetLinearVelocity(toB2(v))
	})
}

func (rb *RigidBody) AngularVelocity() float64 {
	return bridge.Read(rb.core(), rb.angularVelocity, rb.barrier.AngularVelocity)
}

func (rb *RigidBody) SetAngularVelocity(w float64) error {
	return bridge.Write(rb.core(), &rb.angularVelocity, w, rb.barrier.SetAngularVelocity)
}

// Mass is computed by the engine from the body's shapes; it is 0 without a
// native body.
func (rb *RigidBody) Mass() float64 {
	return bridge.Read(rb.core(), 0, rb.barrier.Mass)
}

// ApplyImpulse pushes the body. It needs a native body.
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec2) error {
	if err := rb.core().CheckWritable(); err != nil {
		return err
	}
	if !rb.barrier.HasNative() {
		return errors.NotAllocated(errors.PhaseAccess, rb.barrier.Native())
	}
	return rb.barrier.ApplyImpulse(toB2(impulse))
}

// Properties returns the property set reference, template or instance. An
// instance of a finished session reads as its template.
func (rb *RigidBody) Properties() *BodyProperties {
	return asset.Current(rb.properties)
}

// SetProperties changes the body's property set. During play the body
// switches to the set's session instance.
func (rb *RigidBody) SetProperties(p *BodyProperties) error {
	if err := rb.core().CheckWritable(); err != nil {
		return err
	}
	rb.properties = p
	if !rb.barrier.HasNative() {
		return nil
	}
	return rb.applyProperties()
}

func (rb *RigidBody) applyProperties() error {
	if rb.properties == nil {
		return rb.barrier.SetProperties(0)
	}
	scope := rb.runtime().Scope
	inst, ok := asset.GetOrCreateInstance(rb.properties, scope)
	if !ok || !inst.Link().IsInstance() {
		return nil
	}
	h, err := inst.GetOrCreateNative(scope)
	if err != nil {
		return err
	}
	return rb.barrier.SetProperties(h)
}

// SetGravityScale changes the gravity scale of the body's property set,
// swapping a template for its session instance during play.
func (rb *RigidBody) SetGravityScale(v float64) error {
	p, err := rb.writableProperties()
	if err != nil {
		return err
	}
	return p.SetGravityScale(v)
}

// SetLinearDamping changes the linear damping of the body's property set,
// as SetGravityScale.
func (rb *RigidBody) SetLinearDamping(v float64) error {
	p, err := rb.writableProperties()
	if err != nil {
		return err
	}
	return p.SetLinearDamping(v)
}

func (rb *RigidBody) writableProperties() (*BodyProperties, error) {
	if err := rb.core().CheckWritable(); err != nil {
		return nil, err
	}
	rb.properties = asset.Current(rb.properties)
	if rb.properties == nil {
		return nil, errors.NotFound(errors.PhaseAccess, "properties", rb.slot)
	}
	if rt := rb.runtime(); rt != nil {
		if inst, ok := asset.GetOrCreateInstance(rb.properties, rt.Scope); ok && inst.Link().IsInstance() {
			rb.properties = inst
			if rb.barrier.HasNative() {
				if err := rb.applyProperties(); err != nil {
					return nil, err
				}
			}
		}
	}
	return rb.properties, nil
}
