package native

import (
	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/resource"
)

type constraint struct {
	engine *Engine
	a, b   resource.Handle
	def    ConstraintDef
}

// Drop gives back the references held on both bodies.
func (c *constraint) Drop() {
	if c.engine.closed {
		return
	}
	c.engine.table.Release(c.a)
	c.engine.table.Release(c.b)
}

// CreateConstraint creates a soft distance constraint between two bodies.
// The constraint retains both bodies.
func (e *Engine) CreateConstraint(a, b resource.Handle, def ConstraintDef) (resource.Handle, error) {
	if err := e.checkWritable("constraint"); err != nil {
		return 0, err
	}
	if a == b {
		return 0, errors.AllocationFailed("constraint", errors.InvalidInput(errors.PhaseAllocate, "constraint needs two distinct bodies"))
	}
	if _, err := e.body(a); err != nil {
		return 0, errors.AllocationFailed("constraint", err)
	}
	if _, err := e.body(b); err != nil {
		return 0, errors.AllocationFailed("constraint", err)
	}
	if err := validateConstraint(def); err != nil {
		return 0, errors.AllocationFailed("constraint", err)
	}

	h, err := e.insert(TypeConstraint, &constraint{engine: e, a: a, b: b, def: def})
	if err != nil {
		return 0, err
	}
	e.table.Retain(a)
	e.table.Retain(b)
	return h, nil
}

func validateConstraint(def ConstraintDef) error {
	if !validVec(def.AnchorA) || !validVec(def.AnchorB) {
		return errors.InvalidInput(errors.PhaseAllocate, "anchors must be finite")
	}
	if !finite(def.RestLength) || def.RestLength < 0 {
		return errors.InvalidInput(errors.PhaseAllocate, "rest length must be finite and non-negative")
	}
	if !finite(def.Stiffness) || def.Stiffness < 0 || !finite(def.Damping) || def.Damping < 0 {
		return errors.InvalidInput(errors.PhaseAllocate, "stiffness and damping must be finite and non-negative")
	}
	return nil
}

func (e *Engine) constraint(h resource.Handle) (*constraint, error) {
	c, ok := e.constraints.Get(h)
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseAccess, "constraint", h)
	}
	return c, nil
}

// Constraint returns the parameters of a constraint.
func (e *Engine) Constraint(h resource.Handle) (ConstraintDef, error) {
	c, err := e.constraint(h)
	if err != nil {
		return ConstraintDef{}, err
	}
	return c.def, nil
}

// SetConstraint updates the parameters of a constraint.
func (e *Engine) SetConstraint(h resource.Handle, def ConstraintDef) error {
	c, err := e.constraint(h)
	if err != nil {
		return err
	}
	if err := validateConstraint(def); err != nil {
		return err
	}
	c.def = def
	return nil
}

// ConstraintBodies returns the two bodies a constraint connects.
func (e *Engine) ConstraintBodies(h resource.Handle) (resource.Handle, resource.Handle, error) {
	c, err := e.constraint(h)
	if err != nil {
		return 0, 0, err
	}
	return c.a, c.b, nil
}

// ConstraintLength returns the current distance between the two anchors.
func (e *Engine) ConstraintLength(h resource.Handle) (float64, error) {
	c, err := e.constraint(h)
	if err != nil {
		return 0, err
	}
	ba, err := e.body(c.a)
	if err != nil {
		return 0, err
	}
	bb, err := e.body(c.b)
	if err != nil {
		return 0, err
	}
	pa := ba.b.GetWorldPoint(c.def.AnchorA)
	pb := bb.b.GetWorldPoint(c.def.AnchorB)
	return box2d.B2Vec2Distance(pa, pb), nil
}

// solveConstraints applies spring forces for every enabled constraint.
func (e *Engine) solveConstraints() {
	var active []*constraint
	e.constraints.Each(func(_ resource.Handle, c *constraint) bool {
		if c.def.Enabled {
			active = append(active, c)
		}
		return true
	})

	for _, c := range active {
		ba, errA := e.body(c.a)
		bb, errB := e.body(c.b)
		if errA != nil || errB != nil {
			continue
		}

		pa := ba.b.GetWorldPoint(c.def.AnchorA)
		pb := bb.b.GetWorldPoint(c.def.AnchorB)
		d := box2d.B2Vec2Sub(pb, pa)
		length := d.Normalize()
		if length < box2d.B2_linearSlop {
			continue
		}

		va := ba.b.GetLinearVelocityFromWorldPoint(pa)
		vb := bb.b.GetLinearVelocityFromWorldPoint(pb)
		rate := box2d.B2Vec2Dot(box2d.B2Vec2Sub(vb, va), d)

		magnitude := c.def.Stiffness*(length-c.def.RestLength) + c.def.Damping*rate
		force := box2d.B2Vec2MulScalar(magnitude, d)
		ba.b.ApplyForce(force, pa, true)
		bb.b.ApplyForce(force.OperatorNegate(), pb, true)
	}
}
