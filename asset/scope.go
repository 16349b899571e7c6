package asset

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
)

// Instance is the part of a promoted object the scope needs at its end.
type Instance interface {
	HasNative() bool
	ReleaseNative() error
}

type cached struct {
	inst   Instance
	forget func()
}

// Scope is the per-session owner of promoted instances. A scope without an
// engine has no session context and defers every promotion.
//
// Scope is not safe for concurrent use.
type Scope struct {
	id        uuid.UUID
	eng       *native.Engine
	instances map[any]cached
	promoted  uint64
	live      bool
}

// NewScope creates a scope for eng, which may be nil.
func NewScope(eng *native.Engine) *Scope {
	return &Scope{
		id:        uuid.New(),
		eng:       eng,
		instances: make(map[any]cached),
	}
}

// ID identifies the scope in template back-references and logs.
func (s *Scope) ID() uuid.UUID {
	return s.id
}

// Engine returns the engine instances of this scope allocate in.
func (s *Scope) Engine() *native.Engine {
	return s.eng
}

// HasSession reports whether the scope has a session context.
func (s *Scope) HasSession() bool {
	return s != nil && s.eng != nil
}

// Live reports whether the session is running.
func (s *Scope) Live() bool {
	return s != nil && s.live
}

// Begin marks the session as running.
func (s *Scope) Begin() error {
	if !s.HasSession() {
		return errors.New(errors.PhasePromote, errors.KindNoSession).
			Detail("scope has no engine").
			Build()
	}
	s.live = true
	return nil
}

// End releases the native object of every cached instance and drops the
// cache. It returns how many natives were released.
func (s *Scope) End() (int, error) {
	var (
		released int
		errs     []error
	)
	for key, c := range s.instances {
		if c.inst.HasNative() {
			if err := c.inst.ReleaseNative(); err != nil {
				errs = append(errs, err)
			} else {
				released++
			}
		}
		c.forget()
		delete(s.instances, key)
	}
	s.live = false

	Logger().Debug("scope ended", zap.Stringer("scope", s.id), zap.Int("released", released))
	return released, errors.Join(errs...)
}

// Len returns the number of cached instances.
func (s *Scope) Len() int {
	return len(s.instances)
}

// Promoted returns how many instances the scope created.
func (s *Scope) Promoted() uint64 {
	return s.promoted
}

// Each visits cached instances until fn returns false.
func (s *Scope) Each(fn func(Instance) bool) {
	for _, c := range s.instances {
		if !fn(c.inst) {
			return
		}
	}
}
