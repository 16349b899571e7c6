package session

import (
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ByteArena/box2d"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
)

// Config configures a session and the tools driving it.
type Config struct {
	// StrictContracts overrides the build default for contract violations.
	StrictContracts *bool `yaml:"strict_contracts,omitempty" env:"SIMBRIDGE_STRICT_CONTRACTS"`

	Assets AssetsConfig `yaml:"assets"`

	MetricsAddr string `yaml:"metrics_addr,omitempty" env:"SIMBRIDGE_METRICS_ADDR"`
	LogLevel    string `yaml:"log_level" env:"SIMBRIDGE_LOG_LEVEL"`

	Gravity [2]float64 `yaml:"gravity"`

	// TimeStep is the fixed step in seconds used by Step.
	TimeStep float64 `yaml:"time_step" env:"SIMBRIDGE_TIME_STEP"`

	VelocityIterations int `yaml:"velocity_iterations"`
	PositionIterations int `yaml:"position_iterations"`
}

// AssetsConfig selects where material and property templates are stored.
type AssetsConfig struct {
	// Driver is "yaml" for a directory of files or "sqlite" for a database.
	Driver string `yaml:"driver" env:"SIMBRIDGE_ASSETS_DRIVER"`
	Path   string `yaml:"path" env:"SIMBRIDGE_ASSETS_PATH"`
}

// DefaultConfig returns a 60 Hz session under earth gravity.
func DefaultConfig() Config {
	eng := native.DefaultConfig()
	return Config{
		Gravity:            [2]float64{eng.Gravity.X, eng.Gravity.Y},
		TimeStep:           1.0 / 60.0,
		VelocityIterations: eng.VelocityIterations,
		PositionIterations: eng.PositionIterations,
		LogLevel:           "info",
		Assets: AssetsConfig{
			Driver: "yaml",
			Path:   "assets",
		},
	}
}

// LoadConfig reads a YAML file over the defaults and applies environment
// overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parsing config file")
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides c with the SIMBRIDGE_* variables that are set.
// Malformed values are an error.
func ApplyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parsing environment")
	}
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !(c.TimeStep > 0) || math.IsInf(c.TimeStep, 0) {
		return errors.InvalidInput(errors.PhaseConfig, "time_step must be positive")
	}
	if c.VelocityIterations <= 0 || c.PositionIterations <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "solver iterations must be positive")
	}
	for _, g := range c.Gravity {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return errors.InvalidInput(errors.PhaseConfig, "gravity must be finite")
		}
	}
	switch c.Assets.Driver {
	case "", "yaml", "sqlite":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "assets.driver must be yaml or sqlite")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "log_level must be debug, info, warn or error")
	}
	return nil
}

// Engine returns the engine configuration.
func (c Config) Engine() native.Config {
	return native.Config{
		Gravity:            box2d.MakeB2Vec2(c.Gravity[0], c.Gravity[1]),
		VelocityIterations: c.VelocityIterations,
		PositionIterations: c.PositionIterations,
	}
}
