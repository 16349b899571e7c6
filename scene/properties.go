package scene

import (
	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

// BodyProperties is shared solver configuration for rigid bodies. Like
// ShapeMaterial, a value from NewBodyProperties is a template and bodies
// use its per-session instance during play.
type BodyProperties struct {
	link           asset.Link[BodyProperties]
	barrier        bridge.PropertiesBarrier
	name           string
	linearDamping  float64
	angularDamping float64
	gravityScale   float64
	allowSleep     bool
}

// NewBodyProperties creates a property set template.
func NewBodyProperties(name string, def native.PropertiesDef) *BodyProperties {
	return &BodyProperties{
		name:           name,
		linearDamping:  def.LinearDamping,
		angularDamping: def.AngularDamping,
		gravityScale:   def.GravityScale,
		allowSleep:     def.AllowSleep,
	}
}

func (p *BodyProperties) Name() string                      { return p.name }
func (p *BodyProperties) Link() *asset.Link[BodyProperties] { return &p.link }
func (p *BodyProperties) HasNative() bool                   { return p.barrier.HasNative() }
func (p *BodyProperties) NativeAddress() resource.Handle    { return p.barrier.NativeAddress() }

// SetNativeAddress adopts h.
func (p *BodyProperties) SetNativeAddress(h resource.Handle) error {
	return p.barrier.SetNativeAddress(h)
}

// ReleaseNative releases the native property set.
func (p *BodyProperties) ReleaseNative() error {
	return p.barrier.Release()
}

// Clone copies the host fields into a new property set without a native.
func (p *BodyProperties) Clone() *BodyProperties {
	return &BodyProperties{
		name:           p.name,
		linearDamping:  p.linearDamping,
		angularDamping: p.angularDamping,
		gravityScale:   p.gravityScale,
		allowSleep:     p.allowSleep,
	}
}

// SyncFrom copies src's fields, mirroring them into the native set.
func (p *BodyProperties) SyncFrom(src *BodyProperties) error {
	if err := p.barrier.CheckWritable(); err != nil {
		return err
	}
	p.linearDamping = src.linearDamping
	p.angularDamping = src.angularDamping
	p.gravityScale = src.gravityScale
	p.allowSleep = src.allowSleep
	if !p.barrier.HasNative() {
		return nil
	}
	return p.barrier.SetProperties(p.shadow())
}

// GetOrCreateNative allocates the native set of an instance in scope's
// engine.
func (p *BodyProperties) GetOrCreateNative(scope *asset.Scope) (resource.Handle, error) {
	if p.barrier.HasNative() {
		return p.barrier.NativeAddress(), nil
	}
	if err := promotedNative(p.link.IsInstance(), scope, "properties"); err != nil {
		return 0, err
	}
	p.barrier.Bind(scope.Engine())
	if err := p.barrier.AllocateProperties(p.shadow()); err != nil {
		return 0, err
	}
	return p.barrier.NativeAddress(), nil
}

// Def returns the current parameters.
func (p *BodyProperties) Def() native.PropertiesDef {
	return bridge.Read(&p.barrier.Barrier, p.shadow(), p.barrier.Properties)
}

func (p *BodyProperties) GravityScale() float64  { return p.Def().GravityScale }
func (p *BodyProperties) LinearDamping() float64 { return p.Def().LinearDamping }

func (p *BodyProperties) SetGravityScale(v float64) error {
	return bridge.Write(&p.barrier.Barrier, &p.gravityScale, v, func(v float64) error {
		return p.update(func(d *native.PropertiesDef) { d.GravityScale = v })
	})
}

func (p *BodyProperties) SetLinearDamping(v float64) error {
	return bridge.Write(&p.barrier.Barrier, &p.linearDamping, v, func(v float64) error {
		return p.update(func(d *native.PropertiesDef) { d.LinearDamping = v })
	})
}

func (p *BodyProperties) SetAngularDamping(v float64) error {
	return bridge.Write(&p.barrier.Barrier, &p.angularDamping, v, func(v float64) error {
		return p.update(func(d *native.PropertiesDef) { d.AngularDamping = v })
	})
}

func (p *BodyProperties) shadow() native.PropertiesDef {
	return native.PropertiesDef{
		LinearDamping:  p.linearDamping,
		AngularDamping: p.angularDamping,
		GravityScale:   p.gravityScale,
		AllowSleep:     p.allowSleep,
	}
}

func (p *BodyProperties) update(apply func(*native.PropertiesDef)) error {
	d, err := p.barrier.Properties()
	if err != nil {
		return err
	}
	apply(&d)
	return p.barrier.SetProperties(d)
}
