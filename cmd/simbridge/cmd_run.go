package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/metrics"
	"github.com/wippyai/sim-bridge/scene"
	"github.com/wippyai/sim-bridge/session"
)

type runResult struct {
	Scene           string                     `json:"scene"`
	Session         string                     `json:"session"`
	Steps           uint64                     `json:"steps"`
	Reconstructions int                        `json:"reconstructions"`
	Snapshots       bridge.ReconstructionStats `json:"snapshots"`
	Released        int                        `json:"released"`
	Skipped         int                        `json:"skipped"`
	Instances       int                        `json:"instances"`
	Bodies          []bodyReport               `json:"bodies"`
}

type bodyReport struct {
	Slot     string     `json:"slot"`
	Position [2]float64 `json:"position"`
	Angle    float64    `json:"angle"`
}

func newRunCmd(a *app) *cobra.Command {
	var (
		steps        int
		rebuildEvery int
		actors       []string
	)

	cmd := &cobra.Command{
		Use:   "run <scene.yaml>",
		Short: "Run a play session over a scene",
		Long: `Run loads a scene, begins play, advances the simulation by a fixed
number of steps and ends the session. With --reconstruct-every, actors are
rebuilt periodically; their native objects carry over to the new
components.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), stopSignals...)
			defer stop()

			res, err := a.run(ctx, args[0], steps, rebuildEvery, actors)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			return printRun(cmd.OutOrStdout(), res, jsonOut)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 120, "Number of fixed steps to simulate")
	cmd.Flags().IntVar(&rebuildEvery, "reconstruct-every", 0, "Rebuild actors every N steps (0 disables)")
	cmd.Flags().StringSliceVar(&actors, "actor", nil, "Actors to rebuild (default all)")
	return cmd
}

func (a *app) run(ctx context.Context, path string, steps, rebuildEvery int, actors []string) (*runResult, error) {
	s, _, err := a.openSession(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	mc, err := a.startMetrics(ctx, s)
	if err != nil {
		return nil, err
	}

	if err := s.Begin(); err != nil {
		a.logger.Warn("begin reported allocation failures", zap.Error(err))
	}
	if len(actors) == 0 {
		for _, act := range s.Scene().Actors() {
			actors = append(actors, act.Name())
		}
	}

	res := &runResult{Scene: path, Session: s.ID().String()}
	for i := 1; i <= steps; i++ {
		if ctx.Err() != nil {
			a.logger.Info("run interrupted", zap.Int("step", i))
			break
		}
		if err := s.Step(); err != nil {
			return nil, err
		}
		if mc != nil {
			mc.ObserveSteps(1)
		}
		if rebuildEvery > 0 && i%rebuildEvery == 0 {
			for _, name := range actors {
				st, err := s.Reconstruct(name)
				if err != nil {
					a.logger.Warn("reconstruction incomplete", zap.String("actor", name), zap.Error(err))
				}
				if mc != nil {
					mc.ObserveReconstruction(st)
				}
				res.Reconstructions++
				res.Snapshots.Captured += st.Captured
				res.Snapshots.Restored += st.Restored
				res.Snapshots.Orphaned += st.Orphaned
				res.Snapshots.Conflicts += st.Conflicts
			}
		}
	}

	res.Bodies = reportBodies(s)
	sum, err := s.End()
	if mc != nil {
		mc.ObserveTeardown(sum.Released, sum.Skipped)
	}
	if err != nil {
		return nil, err
	}
	res.Steps = sum.Steps
	res.Released = sum.Released
	res.Skipped = sum.Skipped
	res.Instances = sum.Instances
	return res, nil
}

// startMetrics serves metrics for s when a metrics address is configured.
func (a *app) startMetrics(ctx context.Context, s *session.Session) (*metrics.Collector, error) {
	if a.cfg.MetricsAddr == "" {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	mc, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	mc.Attach(s.Engine())
	bridge.OnViolation(mc.ObserveViolation)

	go func() {
		if err := metrics.Serve(ctx, a.cfg.MetricsAddr, reg); err != nil {
			a.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return mc, nil
}

func reportBodies(s *session.Session) []bodyReport {
	var out []bodyReport
	for _, c := range s.Scene().Components() {
		rb, ok := c.(*scene.RigidBody)
		if !ok {
			continue
		}
		out = append(out, bodyReport{
			Slot:     rb.Slot(),
			Position: rb.Position(),
			Angle:    rb.Angle(),
		})
	}
	return out
}

func printRun(w io.Writer, res *runResult, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "Scene:    %s\n", res.Scene)
	fmt.Fprintf(w, "Session:  %s\n", res.Session)
	fmt.Fprintf(w, "Steps:    %d\n", res.Steps)
	fmt.Fprintf(w, "Rebuilds: %d (captured %d, restored %d, orphaned %d, conflicts %d)\n",
		res.Reconstructions, res.Snapshots.Captured, res.Snapshots.Restored,
		res.Snapshots.Orphaned, res.Snapshots.Conflicts)
	fmt.Fprintf(w, "Teardown: %d released, %d skipped, %d instances\n",
		res.Released, res.Skipped, res.Instances)
	if len(res.Bodies) > 0 {
		fmt.Fprintln(w, "\nBodies:")
		for _, b := range res.Bodies {
			fmt.Fprintf(w, "  %-32s (%8.3f, %8.3f) %7.3f rad\n", b.Slot, b.Position[0], b.Position[1], b.Angle)
		}
	}
	return nil
}
