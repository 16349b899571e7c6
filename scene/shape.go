package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

// Shape is collision geometry attached to a rigid body. Sensor shapes only
// count overlaps.
type Shape struct {
	base
	barrier     bridge.ShapeBarrier
	body        *RigidBody
	material    *ShapeMaterial
	halfExtents mgl64.Vec2
	offset      mgl64.Vec2
	radius      float64
	kind        native.ShapeKind
	sensor      bool
}

func (s *Shape) OwnerType() string              { return TypeShape }
func (s *Shape) State() bridge.State            { return s.barrier.State() }
func (s *Shape) HasNative() bool                { return s.barrier.HasNative() }
func (s *Shape) NativeAddress() resource.Handle { return s.barrier.NativeAddress() }

// SetNativeAddress adopts h.
func (s *Shape) SetNativeAddress(h resource.Handle) error {
	return s.barrier.SetNativeAddress(h)
}

// ReleaseNative releases the native shape. A material swapped for its
// session instance reverts to the template.
func (s *Shape) ReleaseNative() error {
	if s.material != nil && s.material.Link().IsInstance() {
		s.material = s.material.Link().Template()
	}
	return s.barrier.Release()
}

func (s *Shape) core() *bridge.Barrier { return &s.barrier.Barrier }
func (s *Shape) stage() int            { return stageShape }
func (s *Shape) bind(rt *Runtime)      { s.barrier.Bind(rt.Engine) }

// Body returns the body the shape is attached to.
func (s *Shape) Body() *RigidBody {
	return s.body
}

func (s *Shape) Kind() native.ShapeKind {
	return s.kind
}

// GetOrCreateNative allocates the shape during play. The body must already
// have its native object.
func (s *Shape) GetOrCreateNative() (resource.Handle, error) {
	if s.barrier.HasNative() {
		return s.barrier.NativeAddress(), nil
	}
	if !s.live() {
		return 0, s.deferred()
	}
	s.material = asset.Current(s.material)
	if s.body == nil || !s.body.HasNative() {
		return 0, bridge.Environmental(errors.DependencyNotReady(s.barrier.Native(), 0))
	}

	var material bridge.Dependency
	if inst, ok := s.materialInstance(); ok {
		if _, err := inst.GetOrCreateNative(s.runtime().Scope); err != nil {
			return 0, err
		}
		material = &inst.barrier
	}

	err := s.barrier.AllocateShape(native.ShapeDef{
		HalfExtents: toB2(s.halfExtents),
		Offset:      toB2(s.offset),
		Radius:      s.radius,
		Kind:        s.kind,
		Sensor:      s.sensor,
	}, s.body.Barrier(), material)
	if err != nil {
		return 0, err
	}
	track(s)
	return s.barrier.NativeAddress(), nil
}

// materialInstance returns the session instance of the shape's material.
func (s *Shape) materialInstance() (*ShapeMaterial, bool) {
	if s.material == nil {
		return nil, false
	}
	rt := s.runtime()
	if rt == nil {
		return nil, false
	}
	inst, ok := asset.GetOrCreateInstance(s.material, rt.Scope)
	if !ok || !inst.Link().IsInstance() {
		return nil, false
	}
	return inst, true
}

// Material returns the material reference, template or instance. An
// instance of a finished session reads as its template.
func (s *Shape) Material() *ShapeMaterial {
	return asset.Current(s.material)
}

// SetMaterial changes the shape's material. During play the native shape
// switches to the material's session instance.
func (s *Shape) SetMaterial(m *ShapeMaterial) error {
	if err := s.core().CheckWritable(); err != nil {
		return err
	}
	s.material = m
	if !s.barrier.HasNative() {
		return nil
	}

	var h resource.Handle
	if inst, ok := s.materialInstance(); ok {
		var err error
		if h, err = inst.GetOrCreateNative(s.runtime().Scope); err != nil {
			return err
		}
	}
	return s.barrier.SetMaterial(h)
}

// Friction reads through the material, or the engine default without one.
// A template reads through its session instance once one exists; reading
// never promotes.
func (s *Shape) Friction() float64 {
	m := asset.Current(s.material)
	if m == nil {
		return native.DefaultMaterial.Friction
	}
	if rt := s.runtime(); rt != nil && !m.Link().IsInstance() {
		if inst, ok := m.Link().Latest(rt.Scope); ok {
			m = inst
		}
	}
	return m.Friction()
}

// SetFriction changes the friction of the shape's material. During play a
// template reference is first swapped for its session instance so the
// template is never touched at runtime.
func (s *Shape) SetFriction(v float64) error {
	m, err := s.writableMaterial()
	if err != nil {
		return err
	}
	return m.SetFriction(v)
}

// SetDensity changes the density of the shape's material, as SetFriction.
func (s *Shape) SetDensity(v float64) error {
	m, err := s.writableMaterial()
	if err != nil {
		return err
	}
	return m.SetDensity(v)
}

func (s *Shape) writableMaterial() (*ShapeMaterial, error) {
	if err := s.core().CheckWritable(); err != nil {
		return nil, err
	}
	s.material = asset.Current(s.material)
	if s.material == nil {
		return nil, errors.NotFound(errors.PhaseAccess, "material", s.slot)
	}
	if inst, ok := s.materialInstance(); ok {
		s.material = inst
	}
	return s.material, nil
}

func (s *Shape) Sensor() bool {
	return bridge.Read(s.core(), s.sensor, s.barrier.Sensor)
}

func (s *Shape) SetSensor(sensor bool) error {
	return bridge.Write(s.core(), &s.sensor, sensor, s.barrier.SetSensor)
}

// Overlaps returns the number of shapes touching a sensor during play.
func (s *Shape) Overlaps() int {
	return bridge.Read(s.core(), 0, s.barrier.Overlaps)
}
