package native

import (
	"math"
	"testing"

	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityIterations = 0
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for zero iterations")
	}

	cfg = DefaultConfig()
	cfg.Gravity = box2d.MakeB2Vec2(math.NaN(), 0)
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for NaN gravity")
	}
}

func TestBodyFallsUnderGravity(t *testing.T) {
	e := newEngine(t)

	h, err := e.CreateBody(BodyDef{Motion: MotionDynamic, Position: box2d.MakeB2Vec2(0, 10)})
	if err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	if _, err := e.CreateShape(h, 0, ShapeDef{Kind: ShapeBox, HalfExtents: box2d.MakeB2Vec2(0.5, 0.5)}); err != nil {
		t.Fatalf("CreateShape: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := e.Step(1.0 / 60.0); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	pos, err := e.BodyPosition(h)
	if err != nil {
		t.Fatalf("BodyPosition: %v", err)
	}
	if pos.Y >= 10 {
		t.Errorf("expected body to fall, y = %f", pos.Y)
	}
	if e.Stats().Steps != 30 {
		t.Errorf("expected 30 steps, got %d", e.Stats().Steps)
	}
}

func TestStepRejectsBadDelta(t *testing.T) {
	e := newEngine(t)
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := e.Step(dt); err == nil {
			t.Errorf("expected error for dt=%v", dt)
		}
	}
}

func TestShapeKeepsBodyAlive(t *testing.T) {
	e := newEngine(t)

	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	s, err := e.CreateShape(b, 0, ShapeDef{Kind: ShapeSphere, Radius: 0.5})
	if err != nil {
		t.Fatalf("CreateShape: %v", err)
	}

	if refs, _ := e.Refs(b); refs != 2 {
		t.Fatalf("expected body refs 2, got %d", refs)
	}

	if err := e.Release(b); err != nil {
		t.Fatalf("Release body: %v", err)
	}
	if !e.Valid(b) {
		t.Fatal("body should survive while its shape holds it")
	}

	if err := e.Release(s); err != nil {
		t.Fatalf("Release shape: %v", err)
	}
	if e.Valid(s) || e.Valid(b) {
		t.Fatal("expected shape and body destroyed")
	}
	if st := e.Stats(); st.Bodies != 0 || st.Shapes != 0 {
		t.Errorf("expected empty engine, got %+v", st)
	}
}

func TestReleaseInvalidHandle(t *testing.T) {
	e := newEngine(t)

	b, _ := e.CreateBody(BodyDef{})
	_ = e.Release(b)

	err := e.Release(b)
	if !errors.Is(err, errors.ErrInvalidHandle) {
		t.Fatalf("expected invalid handle, got %v", err)
	}
	if _, err := e.BodyPosition(b); err == nil {
		t.Fatal("expected error reading a released body")
	}
}

func TestCreateShapeValidation(t *testing.T) {
	e := newEngine(t)
	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})

	tests := []struct {
		name string
		def  ShapeDef
	}{
		{"zero box", ShapeDef{Kind: ShapeBox}},
		{"negative radius", ShapeDef{Kind: ShapeSphere, Radius: -1}},
		{"unknown kind", ShapeDef{Kind: ShapeKind(99), Radius: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.CreateShape(b, 0, tt.def); !errors.Is(err, errors.ErrAllocation) {
				t.Fatalf("expected allocation error, got %v", err)
			}
		})
	}

	if _, err := e.CreateShape(resource.Handle(12345), 0, ShapeDef{Kind: ShapeSphere, Radius: 1}); err == nil {
		t.Fatal("expected error for unknown body")
	}
}

func TestMaterialPropagates(t *testing.T) {
	e := newEngine(t)

	m, err := e.CreateMaterial(MaterialDef{Density: 1, Friction: 0.5})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	s, err := e.CreateShape(b, m, ShapeDef{Kind: ShapeBox, HalfExtents: box2d.MakeB2Vec2(1, 1)})
	if err != nil {
		t.Fatalf("CreateShape: %v", err)
	}

	before, _ := e.BodyMass(b)
	if err := e.SetMaterial(m, MaterialDef{Density: 2, Friction: 0.5}); err != nil {
		t.Fatalf("SetMaterial: %v", err)
	}
	after, _ := e.BodyMass(b)
	if math.Abs(after-2*before) > 1e-9 {
		t.Errorf("expected mass to double, before=%f after=%f", before, after)
	}

	if n, _ := e.MaterialUsers(m); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
	if err := e.SetShapeMaterial(s, 0); err != nil {
		t.Fatalf("SetShapeMaterial: %v", err)
	}
	if n, _ := e.MaterialUsers(m); n != 0 {
		t.Errorf("expected 0 users, got %d", n)
	}
	if refs, _ := e.Refs(m); refs != 1 {
		t.Errorf("expected material refs 1, got %d", refs)
	}
}

func TestMaterialValidation(t *testing.T) {
	e := newEngine(t)
	if _, err := e.CreateMaterial(MaterialDef{Density: -1}); err == nil {
		t.Fatal("expected error for negative density")
	}
	if _, err := e.CreateMaterial(MaterialDef{Friction: math.NaN()}); err == nil {
		t.Fatal("expected error for NaN friction")
	}
}

func TestPropertiesPropagate(t *testing.T) {
	e := newEngine(t)

	p, err := e.CreateProperties(PropertiesDef{GravityScale: 0, AllowSleep: true})
	if err != nil {
		t.Fatalf("CreateProperties: %v", err)
	}
	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic, Position: box2d.MakeB2Vec2(0, 5)})
	_, _ = e.CreateShape(b, 0, ShapeDef{Kind: ShapeSphere, Radius: 0.5})

	if err := e.SetBodyProperties(b, p); err != nil {
		t.Fatalf("SetBodyProperties: %v", err)
	}
	for i := 0; i < 10; i++ {
		_ = e.Step(1.0 / 60.0)
	}
	pos, _ := e.BodyPosition(b)
	if pos.Y != 5 {
		t.Errorf("expected weightless body to stay at y=5, got %f", pos.Y)
	}

	if err := e.SetProperties(p, PropertiesDef{GravityScale: 1, AllowSleep: true}); err != nil {
		t.Fatalf("SetProperties: %v", err)
	}
	for i := 0; i < 10; i++ {
		_ = e.Step(1.0 / 60.0)
	}
	pos, _ = e.BodyPosition(b)
	if pos.Y >= 5 {
		t.Errorf("expected body to fall after gravity restored, got %f", pos.Y)
	}

	got, _ := e.BodyProperties(b)
	if got != p {
		t.Errorf("expected properties %v, got %v", p, got)
	}
}

func TestReleaseBodyDropsProperties(t *testing.T) {
	e := newEngine(t)

	p, _ := e.CreateProperties(DefaultProperties)
	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	_ = e.SetBodyProperties(b, p)

	if refs, _ := e.Refs(p); refs != 2 {
		t.Fatalf("expected properties refs 2, got %d", refs)
	}
	_ = e.Release(b)
	if refs, _ := e.Refs(p); refs != 1 {
		t.Fatalf("expected properties refs 1 after body release, got %d", refs)
	}
}

func TestConstraintPullsBodies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = box2d.MakeB2Vec2(0, 0)
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	a, _ := e.CreateBody(BodyDef{Motion: MotionDynamic, Position: box2d.MakeB2Vec2(-5, 0)})
	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic, Position: box2d.MakeB2Vec2(5, 0)})
	_, _ = e.CreateShape(a, 0, ShapeDef{Kind: ShapeSphere, Radius: 0.5})
	_, _ = e.CreateShape(b, 0, ShapeDef{Kind: ShapeSphere, Radius: 0.5})

	c, err := e.CreateConstraint(a, b, ConstraintDef{RestLength: 2, Stiffness: 20, Damping: 2, Enabled: true})
	if err != nil {
		t.Fatalf("CreateConstraint: %v", err)
	}

	start, _ := e.ConstraintLength(c)
	for i := 0; i < 60; i++ {
		_ = e.Step(1.0 / 60.0)
	}
	end, _ := e.ConstraintLength(c)
	if end >= start {
		t.Errorf("expected constraint to shorten, start=%f end=%f", start, end)
	}

	if refs, _ := e.Refs(a); refs != 3 {
		t.Errorf("expected body refs 3, got %d", refs)
	}
	_ = e.Release(c)
	if refs, _ := e.Refs(a); refs != 2 {
		t.Errorf("expected body refs 2 after constraint release, got %d", refs)
	}
}

func TestConstraintSameBody(t *testing.T) {
	e := newEngine(t)
	a, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	if _, err := e.CreateConstraint(a, a, ConstraintDef{Enabled: true}); err == nil {
		t.Fatal("expected error for self constraint")
	}
}

func TestSensorCountsOverlaps(t *testing.T) {
	e := newEngine(t)

	ground, _ := e.CreateBody(BodyDef{Motion: MotionStatic})
	sensor, err := e.CreateShape(ground, 0, ShapeDef{Kind: ShapeBox, HalfExtents: box2d.MakeB2Vec2(2, 2), Sensor: true})
	if err != nil {
		t.Fatalf("CreateShape: %v", err)
	}
	ball, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	_, _ = e.CreateShape(ball, 0, ShapeDef{Kind: ShapeSphere, Radius: 0.5})

	_ = e.Step(1.0 / 60.0)

	n, err := e.ShapeOverlaps(sensor)
	if err != nil {
		t.Fatalf("ShapeOverlaps: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 overlap, got %d", n)
	}
	if ok, _ := e.ShapeSensor(sensor); !ok {
		t.Error("expected sensor flag")
	}
}

func TestSensorToggleRecounts(t *testing.T) {
	e := newEngine(t)

	ground, _ := e.CreateBody(BodyDef{Motion: MotionStatic})
	sensor, _ := e.CreateShape(ground, 0, ShapeDef{Kind: ShapeBox, HalfExtents: box2d.MakeB2Vec2(2, 2), Sensor: true})
	ball, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	_, _ = e.CreateShape(ball, 0, ShapeDef{Kind: ShapeSphere, Radius: 0.5})
	_ = e.Step(1.0 / 60.0)

	if n, _ := e.ShapeOverlaps(sensor); n != 1 {
		t.Fatalf("expected 1 overlap, got %d", n)
	}
	if err := e.SetShapeSensor(sensor, false); err != nil {
		t.Fatalf("SetShapeSensor: %v", err)
	}
	if n, _ := e.ShapeOverlaps(sensor); n != 0 {
		t.Fatalf("expected 0 overlaps on a solid shape, got %d", n)
	}

	// The ball leaves while the shape is solid, so no sensor end event.
	if err := e.SetBodyTransform(ball, box2d.MakeB2Vec2(20, 20), 0); err != nil {
		t.Fatalf("SetBodyTransform: %v", err)
	}
	_ = e.Step(1.0 / 60.0)

	if err := e.SetShapeSensor(sensor, true); err != nil {
		t.Fatalf("SetShapeSensor: %v", err)
	}
	if n, _ := e.ShapeOverlaps(sensor); n != 0 {
		t.Fatalf("expected 0 overlaps after the ball left, got %d", n)
	}
}

func TestCloseDestroysEverything(t *testing.T) {
	e, _ := New(DefaultConfig())
	b, _ := e.CreateBody(BodyDef{Motion: MotionDynamic})
	_, _ = e.CreateShape(b, 0, ShapeDef{Kind: ShapeSphere, Radius: 1})

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if e.Valid(b) {
		t.Fatal("expected body invalid after close")
	}
	if _, err := e.CreateBody(BodyDef{}); err == nil {
		t.Fatal("expected error creating on closed engine")
	}
	if err := e.Step(0.1); err == nil {
		t.Fatal("expected error stepping closed engine")
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
