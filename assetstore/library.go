package assetstore

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/scene"
)

// Library holds the templates a scene references by name. Each name maps
// to a single template value so every shape naming a material shares it.
type Library struct {
	materials  map[string]*scene.ShapeMaterial
	properties map[string]*scene.BodyProperties
}

func NewLibrary() *Library {
	return &Library{
		materials:  make(map[string]*scene.ShapeMaterial),
		properties: make(map[string]*scene.BodyProperties),
	}
}

// Load adds every record in store. Records already in the library are
// replaced.
func (l *Library) Load(ctx context.Context, store Store) error {
	records, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := l.Add(r); err != nil {
			return err
		}
	}
	Logger().Info("templates loaded",
		zap.Int("materials", len(l.materials)),
		zap.Int("properties", len(l.properties)))
	return nil
}

// Add creates a template from r.
func (l *Library) Add(r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	switch r.Kind {
	case KindMaterial:
		l.materials[r.Name] = scene.NewShapeMaterial(r.Name, r.Material.Def())
	case KindProperties:
		l.properties[r.Name] = scene.NewBodyProperties(r.Name, r.Properties.Def())
	}
	return nil
}

// Material returns the named material template.
func (l *Library) Material(name string) (*scene.ShapeMaterial, error) {
	m, ok := l.materials[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, string(KindMaterial), name)
	}
	return m, nil
}

// Properties returns the named property set template.
func (l *Library) Properties(name string) (*scene.BodyProperties, error) {
	p, ok := l.properties[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, string(KindProperties), name)
	}
	return p, nil
}

func (l *Library) Len() int {
	return len(l.materials) + len(l.properties)
}

// Records returns the current template values as records, sorted.
func (l *Library) Records() []Record {
	out := make([]Record, 0, l.Len())
	for name, m := range l.materials {
		out = append(out, Material(name, m.Def()))
	}
	for name, p := range l.properties {
		out = append(out, Properties(name, p.Def()))
	}
	sortRecords(out)
	return out
}

// Save writes every template to store.
func (l *Library) Save(ctx context.Context, store Store) error {
	for _, r := range l.Records() {
		if err := store.Put(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the template names of kind, sorted.
func (l *Library) Names(kind Kind) []string {
	var out []string
	switch kind {
	case KindMaterial:
		for name := range l.materials {
			out = append(out, name)
		}
	case KindProperties:
		for name := range l.properties {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
