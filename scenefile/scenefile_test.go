package scenefile

import (
	"testing"

	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/assetstore"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/registry"
	"github.com/wippyai/sim-bridge/scene"
)

func TestLoadPendulum(t *testing.T) {
	f, err := Load("testdata/pendulum.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Actors) != 3 {
		t.Fatalf("expected 3 actors, got %d", len(f.Actors))
	}
	if _, ok := f.Actor("pendulum"); !ok {
		t.Fatal("expected pendulum actor")
	}

	sc := scene.New(nil)
	lib := assetstore.NewLibrary()
	if err := f.Populate(sc, lib); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	a, ok := sc.Actor("pendulum")
	if !ok {
		t.Fatal("pendulum not spawned")
	}
	comps := a.Components()
	if len(comps) != 4 {
		t.Fatalf("expected 2 bodies, 1 shape, 1 constraint; got %d components", len(comps))
	}
	bob := comps[1].(*scene.RigidBody)
	if bob.Motion() != native.MotionDynamic || bob.Position()[0] != 3 {
		t.Fatalf("unexpected bob motion=%v position=%v", bob.Motion(), bob.Position())
	}
	if bob.Properties() == nil || bob.Properties().Name() != "damped" {
		t.Fatal("expected damped properties")
	}

	shape := comps[2].(*scene.Shape)
	rubber, _ := lib.Material("rubber")
	if shape.Material() != rubber {
		t.Fatal("expected the shape to reference the library template")
	}
	if shape.Body() != bob {
		t.Fatal("expected the shape on the bob")
	}

	c := comps[3].(*scene.DistanceConstraint)
	if c.RestLength() != 3 || c.Stiffness() != 40 {
		t.Fatalf("unexpected constraint rest=%f stiffness=%f", c.RestLength(), c.Stiffness())
	}
}

func TestPopulateLive(t *testing.T) {
	f, err := Load("testdata/pendulum.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	eng, err := native.New(native.DefaultConfig())
	if err != nil {
		t.Fatalf("native.New: %v", err)
	}
	defer func() { _ = eng.Close() }()

	rt := &scene.Runtime{Engine: eng, Registry: registry.New(eng), Scope: asset.NewScope(eng)}
	if err := rt.Scope.Begin(); err != nil {
		t.Fatalf("scope Begin: %v", err)
	}
	rt.Registry.Activate()

	sc := scene.New(rt)
	if err := f.Populate(sc, assetstore.NewLibrary()); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if err := sc.BeginPlay(); err != nil {
		t.Fatalf("BeginPlay: %v", err)
	}

	st := eng.Stats()
	if st.Bodies != 4 || st.Shapes != 3 || st.Constraints != 1 || st.Materials != 1 || st.Properties != 1 {
		t.Fatalf("unexpected engine stats %+v", st)
	}
}

func TestStoredTemplates(t *testing.T) {
	lib := assetstore.NewLibrary()
	if err := lib.Add(assetstore.Material("steel", native.MaterialDef{Density: 7.8, Friction: 0.6})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	f, err := Parse([]byte(`
actors:
  - name: crate
    bodies:
      - id: body
    shapes:
      - body: body
        half_extents: [0.5, 0.5]
        material: steel
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sc := scene.New(nil)
	if err := f.Populate(sc, lib); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	a, _ := sc.Actor("crate")
	steel, _ := lib.Material("steel")
	if a.Components()[1].(*scene.Shape).Material() != steel {
		t.Fatal("expected stored template")
	}

	missing, err := Parse([]byte(`
actors:
  - name: crate
    bodies:
      - id: body
    shapes:
      - body: body
        half_extents: [0.5, 0.5]
        material: granite
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := missing.Populate(scene.New(nil), lib); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected missing material, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "actors:\n  - name: a\n    colour: red\n"},
		{"empty actor name", "actors:\n  - bodies: [{id: b}]\n"},
		{"duplicate actor", "actors:\n  - name: a\n  - name: a\n"},
		{"duplicate body", "actors:\n  - name: a\n    bodies: [{id: b}, {id: b}]\n"},
		{"bad motion", "actors:\n  - name: a\n    bodies: [{id: b, motion: flying}]\n"},
		{"unknown body", "actors:\n  - name: a\n    bodies: [{id: b}]\n    shapes: [{body: c, half_extents: [1, 1]}]\n"},
		{"bad kind", "actors:\n  - name: a\n    bodies: [{id: b}]\n    shapes: [{body: b, kind: cone}]\n"},
		{"zero box", "actors:\n  - name: a\n    bodies: [{id: b}]\n    shapes: [{body: b, kind: box}]\n"},
		{"zero sphere", "actors:\n  - name: a\n    bodies: [{id: b}]\n    shapes: [{body: b, kind: sphere}]\n"},
		{"self constraint", "actors:\n  - name: a\n    bodies: [{id: b}]\n    constraints: [{a: b, b: b}]\n"},
		{"negative stiffness", "actors:\n  - name: a\n    bodies: [{id: b}, {id: c}]\n    constraints: [{a: b, b: c, stiffness: -1}]\n"},
		{"bad material", "materials:\n  lead: {density: -1}\nactors: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}
