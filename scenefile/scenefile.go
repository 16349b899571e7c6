// Package scenefile loads scenes described in YAML. A file lists inline
// templates and actors; each actor becomes a blueprint that adds its
// bodies, then its shapes, then its constraints, so slots stay stable
// across reconstruction.
package scenefile

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/sim-bridge/assetstore"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/scene"
)

// File is a parsed scene file.
type File struct {
	Materials  map[string]assetstore.MaterialRecord   `yaml:"materials,omitempty"`
	Properties map[string]assetstore.PropertiesRecord `yaml:"properties,omitempty"`
	Actors     []Actor                                `yaml:"actors"`
}

// Actor describes one actor.
type Actor struct {
	Name        string       `yaml:"name"`
	Bodies      []Body       `yaml:"bodies"`
	Shapes      []Shape      `yaml:"shapes,omitempty"`
	Constraints []Constraint `yaml:"constraints,omitempty"`
}

// Body describes a rigid body. ID names it for shapes and constraints
// within the same actor.
type Body struct {
	ID              string     `yaml:"id"`
	Motion          string     `yaml:"motion"`
	Position        [2]float64 `yaml:"position"`
	Velocity        [2]float64 `yaml:"velocity"`
	Angle           float64    `yaml:"angle"`
	AngularVelocity float64    `yaml:"angular_velocity"`
	FixedRotation   bool       `yaml:"fixed_rotation"`
	Properties      string     `yaml:"properties,omitempty"`
}

// Shape describes collision geometry on a body.
type Shape struct {
	Body        string     `yaml:"body"`
	Kind        string     `yaml:"kind"`
	HalfExtents [2]float64 `yaml:"half_extents"`
	Radius      float64    `yaml:"radius"`
	Offset      [2]float64 `yaml:"offset"`
	Sensor      bool       `yaml:"sensor"`
	Material    string     `yaml:"material,omitempty"`
}

// Constraint describes a distance constraint between two bodies.
type Constraint struct {
	A          string     `yaml:"a"`
	B          string     `yaml:"b"`
	AnchorA    [2]float64 `yaml:"anchor_a"`
	AnchorB    [2]float64 `yaml:"anchor_b"`
	RestLength float64    `yaml:"rest_length"`
	Stiffness  float64    `yaml:"stiffness"`
	Damping    float64    `yaml:"damping"`
	Disabled   bool       `yaml:"disabled"`
}

// Load reads and parses a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("reading scene file", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scene. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Load("parsing scene file", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks references and values. Template names are checked when
// the scene is populated, since they may come from an asset store.
func (f *File) Validate() error {
	for name, m := range f.Materials {
		if err := m.Def().Validate(); err != nil {
			return errors.InvalidData(errors.PhaseLoad, []string{"materials", name}, err.Error())
		}
	}
	for name, p := range f.Properties {
		if err := p.Def().Validate(); err != nil {
			return errors.InvalidData(errors.PhaseLoad, []string{"properties", name}, err.Error())
		}
	}

	seen := make(map[string]bool, len(f.Actors))
	for i, a := range f.Actors {
		path := fmt.Sprintf("actors[%d]", i)
		if a.Name == "" {
			return errors.InvalidData(errors.PhaseLoad, []string{path}, "actor name is empty")
		}
		if seen[a.Name] {
			return errors.InvalidData(errors.PhaseLoad, []string{path}, "duplicate actor "+a.Name)
		}
		seen[a.Name] = true
		if err := a.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a *Actor) validate() error {
	ids := make(map[string]bool, len(a.Bodies))
	for i, b := range a.Bodies {
		path := []string{a.Name, fmt.Sprintf("bodies[%d]", i)}
		if b.ID == "" || ids[b.ID] {
			return errors.InvalidData(errors.PhaseLoad, path, "body id must be unique and non-empty")
		}
		ids[b.ID] = true
		if _, err := parseMotion(b.Motion); err != nil {
			return errors.InvalidData(errors.PhaseLoad, path, err.Error())
		}
		if !finite(b.Position[0], b.Position[1], b.Velocity[0], b.Velocity[1], b.Angle, b.AngularVelocity) {
			return errors.InvalidData(errors.PhaseLoad, path, "body values must be finite")
		}
	}

	for i, s := range a.Shapes {
		path := []string{a.Name, fmt.Sprintf("shapes[%d]", i)}
		if !ids[s.Body] {
			return errors.InvalidData(errors.PhaseLoad, path, "unknown body "+s.Body)
		}
		kind, err := parseShapeKind(s.Kind)
		if err != nil {
			return errors.InvalidData(errors.PhaseLoad, path, err.Error())
		}
		switch {
		case kind == native.ShapeBox && !(s.HalfExtents[0] > 0 && s.HalfExtents[1] > 0):
			return errors.InvalidData(errors.PhaseLoad, path, "box half extents must be positive")
		case kind == native.ShapeSphere && !(s.Radius > 0):
			return errors.InvalidData(errors.PhaseLoad, path, "sphere radius must be positive")
		}
	}

	for i, c := range a.Constraints {
		path := []string{a.Name, fmt.Sprintf("constraints[%d]", i)}
		if !ids[c.A] || !ids[c.B] {
			return errors.InvalidData(errors.PhaseLoad, path, "constraint bodies must exist")
		}
		if c.A == c.B {
			return errors.InvalidData(errors.PhaseLoad, path, "constraint needs two different bodies")
		}
		if c.RestLength < 0 || c.Stiffness < 0 || c.Damping < 0 || !finite(c.RestLength, c.Stiffness, c.Damping) {
			return errors.InvalidData(errors.PhaseLoad, path, "constraint values must be finite and non-negative")
		}
	}
	return nil
}

// Templates adds the file's inline templates to lib. Inline templates
// replace stored ones of the same name.
func (f *File) Templates(lib *assetstore.Library) error {
	for name, m := range f.Materials {
		if err := lib.Add(assetstore.Record{Name: name, Kind: assetstore.KindMaterial, Material: &m}); err != nil {
			return err
		}
	}
	for name, p := range f.Properties {
		if err := lib.Add(assetstore.Record{Name: name, Kind: assetstore.KindProperties, Properties: &p}); err != nil {
			return err
		}
	}
	return nil
}

// Blueprint returns the construction script of actor a. Template names
// are resolved against lib up front so the blueprint itself cannot fail.
func (a *Actor) Blueprint(lib *assetstore.Library) (scene.Blueprint, error) {
	props := make([]*scene.BodyProperties, len(a.Bodies))
	for i, b := range a.Bodies {
		if b.Properties == "" {
			continue
		}
		p, err := lib.Properties(b.Properties)
		if err != nil {
			return nil, err
		}
		props[i] = p
	}
	mats := make([]*scene.ShapeMaterial, len(a.Shapes))
	for i, s := range a.Shapes {
		if s.Material == "" {
			continue
		}
		m, err := lib.Material(s.Material)
		if err != nil {
			return nil, err
		}
		mats[i] = m
	}

	bodies, shapes, constraints := a.Bodies, a.Shapes, a.Constraints
	return func(actor *scene.Actor) {
		byID := make(map[string]*scene.RigidBody, len(bodies))
		for i, b := range bodies {
			motion, _ := parseMotion(b.Motion)
			byID[b.ID] = actor.AddRigidBody(scene.BodySpec{
				Properties:      props[i],
				Position:        mgl64.Vec2(b.Position),
				LinearVelocity:  mgl64.Vec2(b.Velocity),
				Angle:           b.Angle,
				AngularVelocity: b.AngularVelocity,
				Motion:          motion,
				FixedRotation:   b.FixedRotation,
			})
		}
		for i, s := range shapes {
			kind, _ := parseShapeKind(s.Kind)
			actor.AddShape(byID[s.Body], scene.ShapeSpec{
				Material:    mats[i],
				HalfExtents: mgl64.Vec2(s.HalfExtents),
				Offset:      mgl64.Vec2(s.Offset),
				Radius:      s.Radius,
				Kind:        kind,
				Sensor:      s.Sensor,
			})
		}
		for _, c := range constraints {
			actor.AddConstraint(byID[c.A], byID[c.B], scene.ConstraintSpec{
				AnchorA:    mgl64.Vec2(c.AnchorA),
				AnchorB:    mgl64.Vec2(c.AnchorB),
				RestLength: c.RestLength,
				Stiffness:  c.Stiffness,
				Damping:    c.Damping,
				Disabled:   c.Disabled,
			})
		}
	}, nil
}

// Populate adds the file's templates to lib and spawns every actor into
// sc. All blueprints are resolved before the first spawn.
func (f *File) Populate(sc *scene.Scene, lib *assetstore.Library) error {
	if err := f.Templates(lib); err != nil {
		return err
	}

	bps := make([]scene.Blueprint, len(f.Actors))
	for i := range f.Actors {
		bp, err := f.Actors[i].Blueprint(lib)
		if err != nil {
			return err
		}
		bps[i] = bp
	}

	var errs []error
	for i, a := range f.Actors {
		if _, err := sc.Spawn(a.Name, bps[i]); err != nil {
			errs = append(errs, err)
		}
	}
	Logger().Info("scene populated", zap.Int("actors", len(f.Actors)))
	return errors.Join(errs...)
}

// Actor returns the named actor description.
func (f *File) Actor(name string) (*Actor, bool) {
	for i := range f.Actors {
		if f.Actors[i].Name == name {
			return &f.Actors[i], true
		}
	}
	return nil, false
}

func parseMotion(s string) (native.Motion, error) {
	switch s {
	case "", "dynamic":
		return native.MotionDynamic, nil
	case "static":
		return native.MotionStatic, nil
	case "kinematic":
		return native.MotionKinematic, nil
	}
	return 0, fmt.Errorf("unknown motion %q", s)
}

func parseShapeKind(s string) (native.ShapeKind, error) {
	switch s {
	case "", "box":
		return native.ShapeBox, nil
	case "sphere", "circle":
		return native.ShapeSphere, nil
	}
	return 0, fmt.Errorf("unknown shape kind %q", s)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
