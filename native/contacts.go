package native

import (
	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/resource"
)

// contactListener keeps overlap counts for sensor shapes.
type contactListener struct {
	engine *Engine
}

func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) {
	l.adjust(contact, 1)
}

func (l *contactListener) EndContact(contact box2d.B2ContactInterface) {
	l.adjust(contact, -1)
}

func (l *contactListener) PreSolve(box2d.B2ContactInterface, box2d.B2Manifold) {}

func (l *contactListener) PostSolve(box2d.B2ContactInterface, *box2d.B2ContactImpulse) {}

func (l *contactListener) adjust(contact box2d.B2ContactInterface, delta int) {
	for _, f := range [2]*box2d.B2Fixture{contact.GetFixtureA(), contact.GetFixtureB()} {
		if f == nil || !f.IsSensor() {
			continue
		}
		h, ok := f.GetUserData().(resource.Handle)
		if !ok {
			continue
		}
		s, ok := l.engine.shapes.Get(h)
		if !ok {
			continue
		}
		s.overlaps += delta
		if s.overlaps < 0 {
			s.overlaps = 0
		}
	}
}
