package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
)

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, reg
}

func TestNativeEvents(t *testing.T) {
	c, _ := newCollector(t)
	eng, err := native.New(native.DefaultConfig())
	if err != nil {
		t.Fatalf("native.New: %v", err)
	}
	defer func() { _ = eng.Close() }()
	c.Attach(eng)

	body, err := eng.CreateBody(native.BodyDef{Motion: native.MotionDynamic})
	if err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	shape, err := eng.CreateShape(body, 0, native.ShapeDef{Kind: native.ShapeSphere, Radius: 1})
	if err != nil {
		t.Fatalf("CreateShape: %v", err)
	}

	if got := testutil.ToFloat64(c.live.WithLabelValues("body")); got != 1 {
		t.Fatalf("live bodies = %v", got)
	}
	if got := testutil.ToFloat64(c.events.WithLabelValues("body", "retained")); got != 1 {
		t.Fatalf("body retains = %v", got)
	}

	if err := eng.Release(body); err != nil {
		t.Fatalf("Release body: %v", err)
	}
	if got := testutil.ToFloat64(c.live.WithLabelValues("body")); got != 1 {
		t.Fatal("body kept alive by its shape should still count")
	}
	if err := eng.Release(shape); err != nil {
		t.Fatalf("Release shape: %v", err)
	}
	if got := testutil.ToFloat64(c.live.WithLabelValues("body")); got != 0 {
		t.Fatalf("live bodies after release = %v", got)
	}
	if got := testutil.ToFloat64(c.live.WithLabelValues("shape")); got != 0 {
		t.Fatalf("live shapes after release = %v", got)
	}

	c.Detach(eng)
	if _, err := eng.CreateBody(native.BodyDef{}); err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	if got := testutil.ToFloat64(c.events.WithLabelValues("body", "created")); got != 1 {
		t.Fatalf("detached collector still counting: %v", got)
	}
}

func TestObservers(t *testing.T) {
	c, reg := newCollector(t)
	c.ObserveReconstruction(bridge.ReconstructionStats{Captured: 3, Restored: 2, Orphaned: 1})
	c.ObserveSteps(60)
	c.ObserveTeardown(4, 1)
	c.ObserveViolation(errors.NotAllocated(errors.PhaseRelease, "body"))

	if got := testutil.ToFloat64(c.rebuilds); got != 1 {
		t.Errorf("reconstructions = %v", got)
	}
	if got := testutil.ToFloat64(c.snapshots.WithLabelValues("orphaned")); got != 1 {
		t.Errorf("orphaned = %v", got)
	}
	if got := testutil.ToFloat64(c.steps); got != 60 {
		t.Errorf("steps = %v", got)
	}
	if got := testutil.ToFloat64(c.teardown.WithLabelValues("released")); got != 4 {
		t.Errorf("released = %v", got)
	}
	if got := testutil.ToFloat64(c.violations.WithLabelValues("not_allocated")); got != 1 {
		t.Errorf("violations = %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "simbridge_steps_total 60") {
		t.Fatalf("metrics output missing steps:\n%s", rec.Body.String())
	}
}

func TestViolationHook(t *testing.T) {
	c, _ := newCollector(t)
	prev := bridge.Strict()
	bridge.SetStrict(false)
	bridge.OnViolation(c.ObserveViolation)
	t.Cleanup(func() {
		bridge.SetStrict(prev)
		bridge.OnViolation(nil)
	})

	var b bridge.Barrier
	if err := b.Release(); !errors.Is(err, errors.ErrNotAllocated) {
		t.Fatalf("expected not allocated, got %v", err)
	}
	if got := testutil.ToFloat64(c.violations.WithLabelValues("not_allocated")); got != 1 {
		t.Fatalf("violations = %v", got)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
