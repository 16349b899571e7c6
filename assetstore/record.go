// Package assetstore persists material and body property templates on the
// host, either as a directory of YAML files or in a SQLite database, and
// turns stored records into scene templates.
package assetstore

import (
	"context"
	"regexp"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
)

// Kind is the type of a stored template.
type Kind string

const (
	KindMaterial   Kind = "material"
	KindProperties Kind = "properties"
)

// MaterialRecord is the stored form of a shape material.
type MaterialRecord struct {
	Density     float64 `yaml:"density" json:"density"`
	Friction    float64 `yaml:"friction" json:"friction"`
	Restitution float64 `yaml:"restitution" json:"restitution"`
}

// Def converts the record to engine parameters.
func (m MaterialRecord) Def() native.MaterialDef {
	return native.MaterialDef{
		Density:     m.Density,
		Friction:    m.Friction,
		Restitution: m.Restitution,
	}
}

// PropertiesRecord is the stored form of a body property set. Missing
// fields take the engine defaults.
type PropertiesRecord struct {
	LinearDamping  float64  `yaml:"linear_damping" json:"linear_damping"`
	AngularDamping float64  `yaml:"angular_damping" json:"angular_damping"`
	GravityScale   *float64 `yaml:"gravity_scale,omitempty" json:"gravity_scale,omitempty"`
	AllowSleep     *bool    `yaml:"allow_sleep,omitempty" json:"allow_sleep,omitempty"`
}

// Def converts the record to engine parameters.
func (p PropertiesRecord) Def() native.PropertiesDef {
	d := native.DefaultProperties
	d.LinearDamping = p.LinearDamping
	d.AngularDamping = p.AngularDamping
	if p.GravityScale != nil {
		d.GravityScale = *p.GravityScale
	}
	if p.AllowSleep != nil {
		d.AllowSleep = *p.AllowSleep
	}
	return d
}

// Record is one stored template. Exactly one of Material and Properties is
// set, matching Kind.
type Record struct {
	Name       string            `yaml:"name" json:"name"`
	Kind       Kind              `yaml:"kind" json:"kind"`
	Material   *MaterialRecord   `yaml:"material,omitempty" json:"material,omitempty"`
	Properties *PropertiesRecord `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Material returns a material record.
func Material(name string, def native.MaterialDef) Record {
	return Record{
		Name: name,
		Kind: KindMaterial,
		Material: &MaterialRecord{
			Density:     def.Density,
			Friction:    def.Friction,
			Restitution: def.Restitution,
		},
	}
}

// Properties returns a body property record.
func Properties(name string, def native.PropertiesDef) Record {
	gravity, sleep := def.GravityScale, def.AllowSleep
	return Record{
		Name: name,
		Kind: KindProperties,
		Properties: &PropertiesRecord{
			LinearDamping:  def.LinearDamping,
			AngularDamping: def.AngularDamping,
			GravityScale:   &gravity,
			AllowSleep:     &sleep,
		},
	}
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Validate checks the record's name and payload.
func (r Record) Validate() error {
	if !namePattern.MatchString(r.Name) {
		return errors.InvalidData(errors.PhaseStore, []string{string(r.Kind), r.Name}, "invalid template name")
	}
	switch r.Kind {
	case KindMaterial:
		if r.Material == nil || r.Properties != nil {
			return errors.InvalidData(errors.PhaseStore, []string{r.Name}, "material record needs a material payload only")
		}
		return r.Material.Def().Validate()
	case KindProperties:
		if r.Properties == nil || r.Material != nil {
			return errors.InvalidData(errors.PhaseStore, []string{r.Name}, "properties record needs a properties payload only")
		}
		return r.Properties.Def().Validate()
	}
	return errors.InvalidData(errors.PhaseStore, []string{r.Name}, "unknown template kind "+string(r.Kind))
}

// Store persists template records keyed by kind and name.
type Store interface {
	Put(ctx context.Context, r Record) error
	Get(ctx context.Context, kind Kind, name string) (Record, error)
	Delete(ctx context.Context, kind Kind, name string) error
	// List returns every record sorted by kind and name.
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// Open opens a store by driver name: "yaml" for a directory, "sqlite" for a
// database file.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "yaml":
		return OpenDir(path)
	case "sqlite":
		return OpenSQLite(path)
	}
	return nil, errors.InvalidInput(errors.PhaseStore, "unknown asset store driver "+driver)
}
