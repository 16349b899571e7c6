// Package metrics exports Prometheus metrics for native objects, snapshots
// and sessions.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/resource"
)

const namespace = "simbridge"

// Collector holds the bridge metrics. Its methods are safe for concurrent
// use; the observer side runs on the simulation goroutine while scrapes
// read from the HTTP server.
type Collector struct {
	events     *prometheus.CounterVec
	live       *prometheus.GaugeVec
	snapshots  *prometheus.CounterVec
	rebuilds   prometheus.Counter
	steps      prometheus.Counter
	teardown   *prometheus.CounterVec
	violations *prometheus.CounterVec
}

// New creates the collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "native_events_total",
			Help:      "Native object lifecycle events by object type and event.",
		}, []string{"type", "event"}),
		live: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "native_live",
			Help:      "Native objects currently alive in the engine.",
		}, []string{"type"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Reconstruction snapshots by outcome.",
		}, []string{"outcome"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstructions_total",
			Help:      "Completed reconstructions.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Simulation steps.",
		}),
		teardown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardown_owners_total",
			Help:      "Owners visited at session end, released or skipped.",
		}, []string{"result"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_violations_total",
			Help:      "Contract violations by error kind.",
		}, []string{"kind"}),
	}

	for _, col := range []prometheus.Collector{c.events, c.live, c.snapshots, c.rebuilds, c.steps, c.teardown, c.violations} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OnResourceEvent implements resource.Observer.
func (c *Collector) OnResourceEvent(e resource.Event) {
	typ := native.TypeName(e.TypeID)
	c.events.WithLabelValues(typ, e.Type.String()).Inc()
	switch e.Type {
	case resource.EventCreated:
		c.live.WithLabelValues(typ).Inc()
	case resource.EventDestroyed:
		c.live.WithLabelValues(typ).Dec()
	}
}

// Attach starts observing eng's handle table.
func (c *Collector) Attach(eng *native.Engine) {
	eng.Table().Subscribe(c)
}

// Detach stops observing eng.
func (c *Collector) Detach(eng *native.Engine) {
	eng.Table().Unsubscribe(c)
}

// ObserveReconstruction records the outcome of one reconstruction.
func (c *Collector) ObserveReconstruction(st bridge.ReconstructionStats) {
	c.rebuilds.Inc()
	c.snapshots.WithLabelValues("captured").Add(float64(st.Captured))
	c.snapshots.WithLabelValues("restored").Add(float64(st.Restored))
	c.snapshots.WithLabelValues("orphaned").Add(float64(st.Orphaned))
	c.snapshots.WithLabelValues("conflict").Add(float64(st.Conflicts))
}

func (c *Collector) ObserveSteps(n int) {
	c.steps.Add(float64(n))
}

// ObserveTeardown records a session end.
func (c *Collector) ObserveTeardown(released, skipped int) {
	c.teardown.WithLabelValues("released").Add(float64(released))
	c.teardown.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveViolation counts a contract violation. It has the signature of a
// bridge.OnViolation hook.
func (c *Collector) ObserveViolation(err *errors.Error) {
	c.violations.WithLabelValues(string(err.Kind)).Inc()
}

// Handler serves the metrics in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		Logger().Info("metrics server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
