package native

import (
	"github.com/ByteArena/box2d"
)

// Type IDs of native objects in the engine's handle table.
const (
	TypeBody uint32 = iota + 1
	TypeShape
	TypeMaterial
	TypeProperties
	TypeConstraint
)

// TypeName returns the diagnostic name of a native type ID.
func TypeName(typeID uint32) string {
	switch typeID {
	case TypeBody:
		return "body"
	case TypeShape:
		return "shape"
	case TypeMaterial:
		return "material"
	case TypeProperties:
		return "properties"
	case TypeConstraint:
		return "constraint"
	}
	return "unknown"
}

// Motion selects how the solver moves a body.
type Motion uint8

const (
	MotionStatic Motion = iota
	MotionKinematic
	MotionDynamic
)

func (m Motion) String() string {
	switch m {
	case MotionStatic:
		return "static"
	case MotionKinematic:
		return "kinematic"
	case MotionDynamic:
		return "dynamic"
	}
	return "unknown"
}

func (m Motion) b2() uint8 {
	switch m {
	case MotionKinematic:
		return box2d.B2BodyType.B2_kinematicBody
	case MotionDynamic:
		return box2d.B2BodyType.B2_dynamicBody
	}
	return box2d.B2BodyType.B2_staticBody
}

func motionFromB2(t uint8) Motion {
	switch t {
	case box2d.B2BodyType.B2_kinematicBody:
		return MotionKinematic
	case box2d.B2BodyType.B2_dynamicBody:
		return MotionDynamic
	}
	return MotionStatic
}

// BodyDef holds the creation parameters of a rigid body.
type BodyDef struct {
	Position        box2d.B2Vec2
	LinearVelocity  box2d.B2Vec2
	Angle           float64
	AngularVelocity float64
	Motion          Motion
	FixedRotation   bool
	Bullet          bool
}

// ShapeKind selects shape geometry.
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
)

func (k ShapeKind) String() string {
	if k == ShapeSphere {
		return "sphere"
	}
	return "box"
}

// ShapeDef holds the creation parameters of a shape.
type ShapeDef struct {
	HalfExtents box2d.B2Vec2
	Offset      box2d.B2Vec2
	Radius      float64
	Kind        ShapeKind
	Sensor      bool
}

// MaterialDef holds the surface and bulk parameters shared by shapes.
type MaterialDef struct {
	Density     float64
	Friction    float64
	Restitution float64
}

// DefaultMaterial is used by shapes created without a material.
var DefaultMaterial = MaterialDef{
	Density:     1.0,
	Friction:    0.2,
	Restitution: 0.0,
}

// PropertiesDef holds per-body solver properties shared by bodies.
type PropertiesDef struct {
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	AllowSleep     bool
}

// DefaultProperties mirrors the engine's own body defaults.
var DefaultProperties = PropertiesDef{
	GravityScale: 1.0,
	AllowSleep:   true,
}

// ConstraintDef holds the parameters of a soft distance constraint.
// Anchors are local to each body.
type ConstraintDef struct {
	AnchorA    box2d.B2Vec2
	AnchorB    box2d.B2Vec2
	RestLength float64
	Stiffness  float64
	Damping    float64
	Enabled    bool
}

// Config configures a new Engine.
type Config struct {
	Gravity            box2d.B2Vec2
	VelocityIterations int
	PositionIterations int
}

// DefaultConfig returns earth gravity and the engine's usual iteration counts.
func DefaultConfig() Config {
	return Config{
		Gravity:            box2d.MakeB2Vec2(0, -9.81),
		VelocityIterations: 8,
		PositionIterations: 3,
	}
}
