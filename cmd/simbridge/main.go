package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/sim-bridge/asset"
	"github.com/wippyai/sim-bridge/assetstore"
	"github.com/wippyai/sim-bridge/bridge"
	"github.com/wippyai/sim-bridge/metrics"
	"github.com/wippyai/sim-bridge/native"
	"github.com/wippyai/sim-bridge/registry"
	"github.com/wippyai/sim-bridge/scene"
	"github.com/wippyai/sim-bridge/scenefile"
	"github.com/wippyai/sim-bridge/session"
)

var version = "0.1.0-dev"

// app carries what the root command resolves for its subcommands.
type app struct {
	cfg    session.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: session.DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "simbridge",
		Short: "Drive physics scenes through the native object bridge",
		Long: `simbridge loads YAML scenes into a box2d engine, runs play sessions,
rebuilds actors while their native objects survive, and manages the
material and body property templates scenes refer to.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(a),
		newInspectCmd(a),
		newAssetsCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := session.LoadConfig(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else if err := session.ApplyEnv(&a.cfg); err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		a.cfg.LogLevel = level
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	installLogger(logger)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, err
		}
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	return zc.Build()
}

// installLogger hands l to every package that logs, each under its own
// name.
func installLogger(l *zap.Logger) {
	native.SetLogger(l.Named("native"))
	bridge.SetLogger(l.Named("bridge"))
	registry.SetLogger(l.Named("registry"))
	asset.SetLogger(l.Named("asset"))
	scene.SetLogger(l.Named("scene"))
	session.SetLogger(l.Named("session"))
	scenefile.SetLogger(l.Named("scenefile"))
	assetstore.SetLogger(l.Named("assetstore"))
	metrics.SetLogger(l.Named("metrics"))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simbridge version %s\n", version)
		},
	}
}
