package testbed

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
	"github.com/wippyai/sim-bridge/scene"
	"github.com/wippyai/sim-bridge/session"
)

// eventCounter counts native lifecycle events by object type.
type eventCounter struct {
	mu     sync.Mutex
	counts map[string]map[resource.EventType]int
}

func newEventCounter() *eventCounter {
	return &eventCounter{counts: make(map[string]map[resource.EventType]int)}
}

func (c *eventCounter) OnResourceEvent(e resource.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	typ := native.TypeName(e.TypeID)
	if c.counts[typ] == nil {
		c.counts[typ] = make(map[resource.EventType]int)
	}
	c.counts[typ][e.Type]++
}

func (c *eventCounter) count(typ string, ev resource.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[typ][ev]
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(session.DefaultConfig())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fixedDep is a dependency that reports a fixed handle.
type fixedDep resource.Handle

func (d fixedDep) HasNative() bool                { return d != 0 }
func (d fixedDep) NativeAddress() resource.Handle { return resource.Handle(d) }

func lenient(t *testing.T) {
	t.Helper()
	prev := bridge.Strict()
	bridge.SetStrict(false)
	t.Cleanup(func() { bridge.SetStrict(prev) })
}

// rig is a pendulum on a crate: two bodies, two shapes and a constraint.
func rig(material *scene.ShapeMaterial) scene.Blueprint {
	return func(a *scene.Actor) {
		crate := a.AddRigidBody(scene.BodySpec{Motion: native.MotionDynamic, Position: mgl64.Vec2{0, 2}})
		bob := a.AddRigidBody(scene.BodySpec{Motion: native.MotionDynamic, Position: mgl64.Vec2{2, 2}})
		a.AddShape(crate, scene.ShapeSpec{Kind: native.ShapeBox, HalfExtents: mgl64.Vec2{0.5, 0.5}, Material: material})
		a.AddShape(bob, scene.ShapeSpec{Kind: native.ShapeSphere, Radius: 0.25, Material: material})
		a.AddConstraint(crate, bob, scene.ConstraintSpec{RestLength: 2, Stiffness: 50, Damping: 1})
	}
}

func ground(a *scene.Actor) {
	floor := a.AddRigidBody(scene.BodySpec{Motion: native.MotionStatic})
	a.AddBox(floor, mgl64.Vec2{20, 0.5})
}
