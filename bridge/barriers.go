package bridge

import (
	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

// RigidBodyBarrier wraps a native rigid body.
type RigidBodyBarrier struct {
	Barrier
	eng *native.Engine
}

// Bind attaches the barrier to eng.
func (b *RigidBodyBarrier) Bind(eng *native.Engine) {
	if b.handle == 0 {
		b.eng = eng
	}
	b.Barrier.Bind(runtimeOf(eng), "body")
	b.Expect(native.TypeBody)
}

// AllocateBody creates the native body from def.
func (b *RigidBodyBarrier) AllocateBody(def native.BodyDef) error {
	return b.Allocate(func(...resource.Handle) (resource.Handle, error) {
		return b.eng.CreateBody(def)
	})
}

func (b *RigidBodyBarrier) Motion() (native.Motion, error) {
	return b.eng.BodyMotion(b.handle)
}

func (b *RigidBodyBarrier) SetMotion(m native.Motion) error {
	return b.eng.SetBodyMotion(b.handle, m)
}

func (b *RigidBodyBarrier) Position() (box2d.B2Vec2, error) {
	return b.eng.BodyPosition(b.handle)
}

func (b *RigidBodyBarrier) Angle() (float64, error) {
	return b.eng.BodyAngle(b.handle)
}

// SetTransform teleports the body.
func (b *RigidBodyBarrier) SetTransform(pos box2d.B2Vec2, angle float64) error {
	return b.eng.SetBodyTransform(b.handle, pos, angle)
}

func (b *RigidBodyBarrier) LinearVelocity() (box2d.B2Vec2, error) {
	return b.eng.BodyLinearVelocity(b.handle)
}

func (b *RigidBodyBarrier) SetLinearVelocity(v box2d.B2Vec2) error {
	return b.eng.SetBodyLinearVelocity(b.handle, v)
}

func (b *RigidBodyBarrier) AngularVelocity() (float64, error) {
	return b.eng.BodyAngularVelocity(b.handle)
}

func (b *RigidBodyBarrier) SetAngularVelocity(w float64) error {
	return b.eng.SetBodyAngularVelocity(b.handle, w)
}

func (b *RigidBodyBarrier) Mass() (float64, error) {
	return b.eng.BodyMass(b.handle)
}

func (b *RigidBodyBarrier) ApplyImpulse(impulse box2d.B2Vec2) error {
	return b.eng.ApplyBodyImpulse(b.handle, impulse)
}

// SetProperties binds a native property set, or the defaults for 0.
func (b *RigidBodyBarrier) SetProperties(props resource.Handle) error {
	return b.eng.SetBodyProperties(b.handle, props)
}

// ShapeBarrier wraps a native shape. Its dependencies are the body and,
// optionally, the material.
type ShapeBarrier struct {
	Barrier
	eng *native.Engine
}

// Bind attaches the barrier to eng.
func (b *ShapeBarrier) Bind(eng *native.Engine) {
	if b.handle == 0 {
		b.eng = eng
	}
	b.Barrier.Bind(runtimeOf(eng), "shape")
	b.Expect(native.TypeShape)
}

// AllocateShape creates the native shape on body. A nil material selects
// the engine default.
func (b *ShapeBarrier) AllocateShape(def native.ShapeDef, body, material Dependency) error {
	deps := []Dependency{body}
	if material != nil {
		deps = append(deps, material)
	}
	return b.Allocate(func(h ...resource.Handle) (resource.Handle, error) {
		var mat resource.Handle
		if len(h) > 1 {
			mat = h[1]
		}
		return b.eng.CreateShape(h[0], mat, def)
	}, deps...)
}

func (b *ShapeBarrier) SetMaterial(material resource.Handle) error {
	return b.eng.SetShapeMaterial(b.handle, material)
}

func (b *ShapeBarrier) Sensor() (bool, error) {
	return b.eng.ShapeSensor(b.handle)
}

func (b *ShapeBarrier) SetSensor(sensor bool) error {
	return b.eng.SetShapeSensor(b.handle, sensor)
}

// Overlaps returns the number of shapes touching a sensor.
func (b *ShapeBarrier) Overlaps() (int, error) {
	return b.eng.ShapeOverlaps(b.handle)
}

// MaterialBarrier wraps a shared native material.
type MaterialBarrier struct {
	Barrier
	eng *native.Engine
}

// Bind attaches the barrier to eng.
func (b *MaterialBarrier) Bind(eng *native.Engine) {
	if b.handle == 0 {
		b.eng = eng
	}
	b.Barrier.Bind(runtimeOf(eng), "material")
	b.Expect(native.TypeMaterial)
}

func (b *MaterialBarrier) AllocateMaterial(def native.MaterialDef) error {
	return b.Allocate(func(...resource.Handle) (resource.Handle, error) {
		return b.eng.CreateMaterial(def)
	})
}

func (b *MaterialBarrier) Material() (native.MaterialDef, error) {
	return b.eng.Material(b.handle)
}

func (b *MaterialBarrier) SetMaterial(def native.MaterialDef) error {
	return b.eng.SetMaterial(b.handle, def)
}

// PropertiesBarrier wraps a shared native body property set.
type PropertiesBarrier struct {
	Barrier
	eng *native.Engine
}

// Bind attaches the barrier to eng.
func (b *PropertiesBarrier) Bind(eng *native.Engine) {
	if b.handle == 0 {
		b.eng = eng
	}
	b.Barrier.Bind(runtimeOf(eng), "properties")
	b.Expect(native.TypeProperties)
}

func (b *PropertiesBarrier) AllocateProperties(def native.PropertiesDef) error {
	return b.Allocate(func(...resource.Handle) (resource.Handle, error) {
		return b.eng.CreateProperties(def)
	})
}

func (b *PropertiesBarrier) Properties() (native.PropertiesDef, error) {
	return b.eng.Properties(b.handle)
}

func (b *PropertiesBarrier) SetProperties(def native.PropertiesDef) error {
	return b.eng.SetProperties(b.handle, def)
}

// ConstraintBarrier wraps a distance constraint between two bodies.
type ConstraintBarrier struct {
	Barrier
	eng *native.Engine
}

// Bind attaches the barrier to eng.
func (b *ConstraintBarrier) Bind(eng *native.Engine) {
	if b.handle == 0 {
		b.eng = eng
	}
	b.Barrier.Bind(runtimeOf(eng), "constraint")
	b.Expect(native.TypeConstraint)
}

// AllocateConstraint creates the native constraint between bodyA and bodyB.
func (b *ConstraintBarrier) AllocateConstraint(def native.ConstraintDef, bodyA, bodyB Dependency) error {
	return b.Allocate(func(h ...resource.Handle) (resource.Handle, error) {
		return b.eng.CreateConstraint(h[0], h[1], def)
	}, bodyA, bodyB)
}

func (b *ConstraintBarrier) Constraint() (native.ConstraintDef, error) {
	return b.eng.Constraint(b.handle)
}

func (b *ConstraintBarrier) SetConstraint(def native.ConstraintDef) error {
	return b.eng.SetConstraint(b.handle, def)
}

// Length returns the current distance between the anchors.
func (b *ConstraintBarrier) Length() (float64, error) {
	return b.eng.ConstraintLength(b.handle)
}

func runtimeOf(eng *native.Engine) Runtime {
	if eng == nil {
		return nil
	}
	return eng
}
