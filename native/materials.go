package native

import (
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

type material struct {
	users map[resource.Handle]struct{}
	def   MaterialDef
}

type properties struct {
	users map[resource.Handle]struct{}
	def   PropertiesDef
}

// Validate checks that every parameter is finite and non-negative.
func (def MaterialDef) Validate() error {
	if !finite(def.Density) || def.Density < 0 {
		return errors.InvalidInput(errors.PhaseAllocate, "density must be finite and non-negative")
	}
	if !finite(def.Friction) || def.Friction < 0 {
		return errors.InvalidInput(errors.PhaseAllocate, "friction must be finite and non-negative")
	}
	if !finite(def.Restitution) || def.Restitution < 0 {
		return errors.InvalidInput(errors.PhaseAllocate, "restitution must be finite and non-negative")
	}
	return nil
}

// Validate checks that damping is finite and non-negative and the gravity
// scale is finite.
func (def PropertiesDef) Validate() error {
	if !finite(def.LinearDamping) || def.LinearDamping < 0 || !finite(def.AngularDamping) || def.AngularDamping < 0 {
		return errors.InvalidInput(errors.PhaseAllocate, "damping must be finite and non-negative")
	}
	if !finite(def.GravityScale) {
		return errors.InvalidInput(errors.PhaseAllocate, "gravity scale must be finite")
	}
	return nil
}

// CreateMaterial creates a shared material.
func (e *Engine) CreateMaterial(def MaterialDef) (resource.Handle, error) {
	if err := e.checkWritable("material"); err != nil {
		return 0, err
	}
	if err := def.Validate(); err != nil {
		return 0, errors.AllocationFailed("material", err)
	}
	return e.insert(TypeMaterial, &material{
		users: make(map[resource.Handle]struct{}),
		def:   def,
	})
}

// Material returns the parameters of a material.
func (e *Engine) Material(h resource.Handle) (MaterialDef, error) {
	m, ok := e.materials.Get(h)
	if !ok {
		return MaterialDef{}, errors.InvalidHandle(errors.PhaseAccess, "material", h)
	}
	return m.def, nil
}

// SetMaterial updates a material and every shape using it.
func (e *Engine) SetMaterial(h resource.Handle, def MaterialDef) error {
	m, ok := e.materials.Get(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseAccess, "material", h)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	m.def = def
	for sh := range m.users {
		if s, ok := e.shapes.Get(sh); ok && s.fixture != nil {
			e.applyMaterial(s, def)
		}
	}
	return nil
}

// MaterialUsers returns how many shapes reference a material.
func (e *Engine) MaterialUsers(h resource.Handle) (int, error) {
	m, ok := e.materials.Get(h)
	if !ok {
		return 0, errors.InvalidHandle(errors.PhaseAccess, "material", h)
	}
	return len(m.users), nil
}

// CreateProperties creates a shared body property set.
func (e *Engine) CreateProperties(def PropertiesDef) (resource.Handle, error) {
	if err := e.checkWritable("properties"); err != nil {
		return 0, err
	}
	if err := def.Validate(); err != nil {
		return 0, errors.AllocationFailed("properties", err)
	}
	return e.insert(TypeProperties, &properties{
		users: make(map[resource.Handle]struct{}),
		def:   def,
	})
}

// Properties returns the parameters of a property set.
func (e *Engine) Properties(h resource.Handle) (PropertiesDef, error) {
	p, ok := e.properties.Get(h)
	if !ok {
		return PropertiesDef{}, errors.InvalidHandle(errors.PhaseAccess, "properties", h)
	}
	return p.def, nil
}

// SetProperties updates a property set and every body bound to it.
func (e *Engine) SetProperties(h resource.Handle, def PropertiesDef) error {
	p, ok := e.properties.Get(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseAccess, "properties", h)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	p.def = def
	for bh := range p.users {
		if b, ok := e.bodies.Get(bh); ok && b.b != nil {
			applyProperties(b.b, def)
		}
	}
	return nil
}
