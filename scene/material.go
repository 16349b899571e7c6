package scene

import (
	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

// ShapeMaterial is shared surface configuration. A material created with
// NewShapeMaterial is a template: it never owns a native object. Shapes
// use its per-session instance during play.
type ShapeMaterial struct {
	link        asset.Link[ShapeMaterial]
	barrier     bridge.MaterialBarrier
	name        string
	density     float64
	friction    float64
	restitution float64
}

// NewShapeMaterial creates a material template.
func NewShapeMaterial(name string, def native.MaterialDef) *ShapeMaterial {
	return &ShapeMaterial{
		name:        name,
		density:     def.Density,
		friction:    def.Friction,
		restitution: def.Restitution,
	}
}

func (m *ShapeMaterial) Name() string                     { return m.name }
func (m *ShapeMaterial) Link() *asset.Link[ShapeMaterial] { return &m.link }
func (m *ShapeMaterial) HasNative() bool                  { return m.barrier.HasNative() }
func (m *ShapeMaterial) NativeAddress() resource.Handle   { return m.barrier.NativeAddress() }

// SetNativeAddress adopts h.
func (m *ShapeMaterial) SetNativeAddress(h resource.Handle) error {
	return m.barrier.SetNativeAddress(h)
}

// ReleaseNative releases the native material. Shapes still using it keep
// it alive in the engine.
func (m *ShapeMaterial) ReleaseNative() error {
	return m.barrier.Release()
}

// Clone copies the host fields into a new material without a native.
func (m *ShapeMaterial) Clone() *ShapeMaterial {
	return &ShapeMaterial{
		name:        m.name,
		density:     m.density,
		friction:    m.friction,
		restitution: m.restitution,
	}
}

// SyncFrom copies src's fields, mirroring them into the native material.
func (m *ShapeMaterial) SyncFrom(src *ShapeMaterial) error {
	if err := m.barrier.CheckWritable(); err != nil {
		return err
	}
	m.density = src.density
	m.friction = src.friction
	m.restitution = src.restitution
	if !m.barrier.HasNative() {
		return nil
	}
	return m.barrier.SetMaterial(m.shadow())
}

// GetOrCreateNative allocates the native material of an instance in
// scope's engine. Templates have no native object.
func (m *ShapeMaterial) GetOrCreateNative(scope *asset.Scope) (resource.Handle, error) {
	if m.barrier.HasNative() {
		return m.barrier.NativeAddress(), nil
	}
	if err := promotedNative(m.link.IsInstance(), scope, "material"); err != nil {
		return 0, err
	}
	m.barrier.Bind(scope.Engine())
	if err := m.barrier.AllocateMaterial(m.shadow()); err != nil {
		return 0, err
	}
	return m.barrier.NativeAddress(), nil
}

// Def returns the current parameters.
func (m *ShapeMaterial) Def() native.MaterialDef {
	return bridge.Read(&m.barrier.Barrier, m.shadow(), m.barrier.Material)
}

func (m *ShapeMaterial) Density() float64     { return m.Def().Density }
func (m *ShapeMaterial) Friction() float64    { return m.Def().Friction }
func (m *ShapeMaterial) Restitution() float64 { return m.Def().Restitution }

func (m *ShapeMaterial) SetDensity(v float64) error {
	return bridge.Write(&m.barrier.Barrier, &m.density, v, func(v float64) error {
		return m.update(func(d *native.MaterialDef) { d.Density = v })
	})
}

func (m *ShapeMaterial) SetFriction(v float64) error {
	return bridge.Write(&m.barrier.Barrier, &m.friction, v, func(v float64) error {
		return m.update(func(d *native.MaterialDef) { d.Friction = v })
	})
}

func (m *ShapeMaterial) SetRestitution(v float64) error {
	return bridge.Write(&m.barrier.Barrier, &m.restitution, v, func(v float64) error {
		return m.update(func(d *native.MaterialDef) { d.Restitution = v })
	})
}

func (m *ShapeMaterial) shadow() native.MaterialDef {
	return native.MaterialDef{
		Density:     m.density,
		Friction:    m.friction,
		Restitution: m.restitution,
	}
}

func (m *ShapeMaterial) update(apply func(*native.MaterialDef)) error {
	d, err := m.barrier.Material()
	if err != nil {
		return err
	}
	apply(&d)
	return m.barrier.SetMaterial(d)
}

func promotedNative(instance bool, scope *asset.Scope, what string) error {
	if !instance {
		return errors.Unsupported(errors.PhasePromote, what+" template has no native object")
	}
	if !scope.HasSession() {
		return errors.New(errors.PhasePromote, errors.KindNoSession).
			Native(what).
			Detail("scope has no session").
			Build()
	}
	return nil
}
