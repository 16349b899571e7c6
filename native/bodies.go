package native

import (
	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

type body struct {
	engine     *Engine
	b          *box2d.B2Body
	self       resource.Handle
	properties resource.Handle
}

// Drop destroys the engine body once no host or engine reference remains.
func (b *body) Drop() {
	if b.engine.closed || b.b == nil {
		return
	}
	if b.properties != 0 {
		if p, ok := b.engine.properties.Get(b.properties); ok {
			delete(p.users, b.self)
		}
		b.engine.table.Release(b.properties)
	}
	b.engine.world.DestroyBody(b.b)
	b.b = nil
}

// CreateBody creates a rigid body.
func (e *Engine) CreateBody(def BodyDef) (resource.Handle, error) {
	if err := e.checkWritable("body"); err != nil {
		return 0, err
	}
	if !validVec(def.Position) || !validVec(def.LinearVelocity) || !finite(def.Angle) || !finite(def.AngularVelocity) {
		return 0, errors.AllocationFailed("body", errors.InvalidInput(errors.PhaseAllocate, "body state must be finite"))
	}

	bd := box2d.MakeB2BodyDef()
	bd.Type = def.Motion.b2()
	bd.Position = def.Position
	bd.Angle = def.Angle
	bd.LinearVelocity = def.LinearVelocity
	bd.AngularVelocity = def.AngularVelocity
	bd.FixedRotation = def.FixedRotation
	bd.Bullet = def.Bullet

	b2 := e.world.CreateBody(&bd)
	if b2 == nil {
		return 0, errors.AllocationFailed("body", nil)
	}

	obj := &body{engine: e, b: b2}
	h, err := e.insert(TypeBody, obj)
	if err != nil {
		e.world.DestroyBody(b2)
		return 0, err
	}
	obj.self = h
	b2.SetUserData(h)
	return h, nil
}

func (e *Engine) body(h resource.Handle) (*body, error) {
	b, ok := e.bodies.Get(h)
	if !ok || b.b == nil {
		return nil, errors.InvalidHandle(errors.PhaseAccess, "body", h)
	}
	return b, nil
}

// BodyMotion returns the motion type of a body.
func (e *Engine) BodyMotion(h resource.Handle) (Motion, error) {
	b, err := e.body(h)
	if err != nil {
		return 0, err
	}
	return motionFromB2(b.b.GetType()), nil
}

// SetBodyMotion changes the motion type of a body.
func (e *Engine) SetBodyMotion(h resource.Handle, m Motion) error {
	b, err := e.body(h)
	if err != nil {
		return err
	}
	b.b.SetType(m.b2())
	return nil
}

// BodyPosition returns the body origin in world coordinates.
func (e *Engine) BodyPosition(h resource.Handle) (box2d.B2Vec2, error) {
	b, err := e.body(h)
	if err != nil {
		return box2d.B2Vec2{}, err
	}
	return b.b.GetPosition(), nil
}

// BodyAngle returns the body rotation in radians.
func (e *Engine) BodyAngle(h resource.Handle) (float64, error) {
	b, err := e.body(h)
	if err != nil {
		return 0, err
	}
	return b.b.GetAngle(), nil
}

// SetBodyTransform teleports a body.
func (e *Engine) SetBodyTransform(h resource.Handle, position box2d.B2Vec2, angle float64) error {
	b, err := e.body(h)
	if err != nil {
		return err
	}
	if !validVec(position) || !finite(angle) {
		return errors.InvalidInput(errors.PhaseAccess, "transform must be finite")
	}
	b.b.SetTransform(position, angle)
	return nil
}

// BodyLinearVelocity returns the velocity of the body origin.
func (e *Engine) BodyLinearVelocity(h resource.Handle) (box2d.B2Vec2, error) {
	b, err := e.body(h)
	if err != nil {
		return box2d.B2Vec2{}, err
	}
	return b.b.GetLinearVelocity(), nil
}

// SetBodyLinearVelocity sets the velocity of the body origin.
func (e *Engine) SetBodyLinearVelocity(h resource.Handle, v box2d.B2Vec2) error {
	b, err := e.body(h)
	if err != nil {
		return err
	}
	if !validVec(v) {
		return errors.InvalidInput(errors.PhaseAccess, "velocity must be finite")
	}
	b.b.SetLinearVelocity(v)
	return nil
}

// BodyAngularVelocity returns the angular velocity in radians per second.
func (e *Engine) BodyAngularVelocity(h resource.Handle) (float64, error) {
	b, err := e.body(h)
	if err != nil {
		return 0, err
	}
	return b.b.GetAngularVelocity(), nil
}

// SetBodyAngularVelocity sets the angular velocity in radians per second.
func (e *Engine) SetBodyAngularVelocity(h resource.Handle, w float64) error {
	b, err := e.body(h)
	if err != nil {
		return err
	}
	if !finite(w) {
		return errors.InvalidInput(errors.PhaseAccess, "angular velocity must be finite")
	}
	b.b.SetAngularVelocity(w)
	return nil
}

// BodyMass returns the mass computed from the body's shapes.
func (e *Engine) BodyMass(h resource.Handle) (float64, error) {
	b, err := e.body(h)
	if err != nil {
		return 0, err
	}
	return b.b.GetMass(), nil
}

// BodyAwake reports whether the body is simulated this step.
func (e *Engine) BodyAwake(h resource.Handle) (bool, error) {
	b, err := e.body(h)
	if err != nil {
		return false, err
	}
	return b.b.IsAwake(), nil
}

// ApplyBodyImpulse applies a linear impulse at the center of mass.
func (e *Engine) ApplyBodyImpulse(h resource.Handle, impulse box2d.B2Vec2) error {
	b, err := e.body(h)
	if err != nil {
		return err
	}
	if !validVec(impulse) {
		return errors.InvalidInput(errors.PhaseAccess, "impulse must be finite")
	}
	b.b.ApplyLinearImpulseToCenter(impulse, true)
	return nil
}

// SetBodyProperties binds a property set to a body. A zero handle restores
// the engine defaults.
func (e *Engine) SetBodyProperties(h, props resource.Handle) error {
	b, err := e.body(h)
	if err != nil {
		return err
	}
	if b.properties == props {
		return nil
	}

	def := DefaultProperties
	if props != 0 {
		p, ok := e.properties.Get(props)
		if !ok {
			return errors.InvalidHandle(errors.PhaseAccess, "properties", props)
		}
		e.table.Retain(props)
		p.users[h] = struct{}{}
		def = p.def
	}

	old := b.properties
	b.properties = props
	applyProperties(b.b, def)

	if old != 0 {
		if p, ok := e.properties.Get(old); ok {
			delete(p.users, h)
		}
		e.table.Release(old)
	}
	return nil
}

// BodyProperties returns the property set bound to a body, or 0.
func (e *Engine) BodyProperties(h resource.Handle) (resource.Handle, error) {
	b, err := e.body(h)
	if err != nil {
		return 0, err
	}
	return b.properties, nil
}

func applyProperties(b *box2d.B2Body, def PropertiesDef) {
	b.SetLinearDamping(def.LinearDamping)
	b.SetAngularDamping(def.AngularDamping)
	b.SetGravityScale(def.GravityScale)
	b.SetSleepingAllowed(def.AllowSleep)
}
