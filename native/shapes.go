package native

import (
	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

type shape struct {
	engine   *Engine
	fixture  *box2d.B2Fixture
	self     resource.Handle
	body     resource.Handle
	material resource.Handle
	def      ShapeDef
	overlaps int
}

// Drop removes the fixture and gives back the references the shape held on
// its body and material.
func (s *shape) Drop() {
	if s.engine.closed || s.fixture == nil {
		return
	}
	if b, ok := s.engine.bodies.Get(s.body); ok && b.b != nil {
		b.b.DestroyFixture(s.fixture)
	}
	s.fixture = nil

	if s.material != 0 {
		if m, ok := s.engine.materials.Get(s.material); ok {
			delete(m.users, s.self)
		}
		s.engine.table.Release(s.material)
	}
	s.engine.table.Release(s.body)
}

// CreateShape attaches a shape to a body. A zero material selects
// DefaultMaterial. The shape retains both the body and the material.
func (e *Engine) CreateShape(bodyHandle, materialHandle resource.Handle, def ShapeDef) (resource.Handle, error) {
	if err := e.checkWritable("shape"); err != nil {
		return 0, err
	}
	b, err := e.body(bodyHandle)
	if err != nil {
		return 0, errors.AllocationFailed("shape", err)
	}

	mat := DefaultMaterial
	var m *material
	if materialHandle != 0 {
		var ok bool
		m, ok = e.materials.Get(materialHandle)
		if !ok {
			return 0, errors.AllocationFailed("shape", errors.InvalidHandle(errors.PhaseAllocate, "material", materialHandle))
		}
		mat = m.def
	}

	geometry, err := buildGeometry(def)
	if err != nil {
		return 0, errors.AllocationFailed("shape", err)
	}

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = geometry
	fd.Density = mat.Density
	fd.Friction = mat.Friction
	fd.Restitution = mat.Restitution
	fd.IsSensor = def.Sensor

	fixture := b.b.CreateFixtureFromDef(&fd)
	if fixture == nil {
		return 0, errors.AllocationFailed("shape", nil)
	}

	obj := &shape{
		engine:   e,
		fixture:  fixture,
		body:     bodyHandle,
		material: materialHandle,
		def:      def,
	}
	h, err := e.insert(TypeShape, obj)
	if err != nil {
		b.b.DestroyFixture(fixture)
		return 0, err
	}
	obj.self = h
	fixture.SetUserData(h)

	e.table.Retain(bodyHandle)
	if m != nil {
		e.table.Retain(materialHandle)
		m.users[h] = struct{}{}
	}
	return h, nil
}

func buildGeometry(def ShapeDef) (box2d.B2ShapeInterface, error) {
	if !validVec(def.Offset) {
		return nil, errors.InvalidInput(errors.PhaseAllocate, "shape offset must be finite")
	}
	switch def.Kind {
	case ShapeBox:
		if !(def.HalfExtents.X > 0 && def.HalfExtents.Y > 0) || !validVec(def.HalfExtents) {
			return nil, errors.InvalidInput(errors.PhaseAllocate, "box half extents must be positive")
		}
		poly := box2d.NewB2PolygonShape()
		poly.SetAsBoxFromCenterAndAngle(def.HalfExtents.X, def.HalfExtents.Y, def.Offset, 0)
		return poly, nil
	case ShapeSphere:
		if !(def.Radius > 0) || !finite(def.Radius) {
			return nil, errors.InvalidInput(errors.PhaseAllocate, "sphere radius must be positive")
		}
		circle := box2d.NewB2CircleShape()
		circle.SetRadius(def.Radius)
		circle.M_p = def.Offset
		return circle, nil
	}
	return nil, errors.Unsupported(errors.PhaseAllocate, "unknown shape kind")
}

func (e *Engine) shape(h resource.Handle) (*shape, error) {
	s, ok := e.shapes.Get(h)
	if !ok || s.fixture == nil {
		return nil, errors.InvalidHandle(errors.PhaseAccess, "shape", h)
	}
	return s, nil
}

// ShapeBody returns the body a shape is attached to.
func (e *Engine) ShapeBody(h resource.Handle) (resource.Handle, error) {
	s, err := e.shape(h)
	if err != nil {
		return 0, err
	}
	return s.body, nil
}

// ShapeMaterial returns the material bound to a shape, or 0 for the default.
func (e *Engine) ShapeMaterial(h resource.Handle) (resource.Handle, error) {
	s, err := e.shape(h)
	if err != nil {
		return 0, err
	}
	return s.material, nil
}

// SetShapeMaterial rebinds a shape to another material. A zero handle
// restores DefaultMaterial.
func (e *Engine) SetShapeMaterial(h, materialHandle resource.Handle) error {
	s, err := e.shape(h)
	if err != nil {
		return err
	}
	if s.material == materialHandle {
		return nil
	}

	def := DefaultMaterial
	if materialHandle != 0 {
		m, ok := e.materials.Get(materialHandle)
		if !ok {
			return errors.InvalidHandle(errors.PhaseAccess, "material", materialHandle)
		}
		e.table.Retain(materialHandle)
		m.users[h] = struct{}{}
		def = m.def
	}

	old := s.material
	s.material = materialHandle
	e.applyMaterial(s, def)

	if old != 0 {
		if m, ok := e.materials.Get(old); ok {
			delete(m.users, h)
		}
		e.table.Release(old)
	}
	return nil
}

// ShapeSensor reports whether a shape only detects overlaps.
func (e *Engine) ShapeSensor(h resource.Handle) (bool, error) {
	s, err := e.shape(h)
	if err != nil {
		return false, err
	}
	return s.fixture.IsSensor(), nil
}

// SetShapeSensor toggles collision response for a shape. The overlap count
// restarts from the contacts touching the shape when it becomes a sensor.
func (e *Engine) SetShapeSensor(h resource.Handle, sensor bool) error {
	s, err := e.shape(h)
	if err != nil {
		return err
	}
	if s.fixture.IsSensor() != sensor {
		s.overlaps = 0
		if sensor {
			s.overlaps = touching(s.fixture)
		}
	}
	s.fixture.SetSensor(sensor)
	s.def.Sensor = sensor
	return nil
}

func touching(f *box2d.B2Fixture) int {
	n := 0
	for ce := f.GetBody().GetContactList(); ce != nil; ce = ce.Next {
		c := ce.Contact
		if c.IsTouching() && (c.GetFixtureA() == f || c.GetFixtureB() == f) {
			n++
		}
	}
	return n
}

// ShapeOverlaps returns the number of shapes currently touching a sensor.
func (e *Engine) ShapeOverlaps(h resource.Handle) (int, error) {
	s, err := e.shape(h)
	if err != nil {
		return 0, err
	}
	return s.overlaps, nil
}

func (e *Engine) applyMaterial(s *shape, def MaterialDef) {
	s.fixture.SetDensity(def.Density)
	s.fixture.SetFriction(def.Friction)
	s.fixture.SetRestitution(def.Restitution)
	if b, ok := e.bodies.Get(s.body); ok && b.b != nil {
		b.b.ResetMassData()
	}
}
