package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/sim-bridge/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simbridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Gravity[1] >= 0 {
		t.Errorf("expected downward gravity, got %v", cfg.Gravity)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
time_step: 0.01
gravity: [0, -1.62]
strict_contracts: false
assets:
  driver: sqlite
  path: assets.db
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TimeStep != 0.01 {
		t.Errorf("time_step = %v", cfg.TimeStep)
	}
	if cfg.Gravity != [2]float64{0, -1.62} {
		t.Errorf("gravity = %v", cfg.Gravity)
	}
	if cfg.StrictContracts == nil || *cfg.StrictContracts {
		t.Error("expected strict_contracts false")
	}
	if cfg.Assets.Driver != "sqlite" || cfg.Assets.Path != "assets.db" {
		t.Errorf("assets = %+v", cfg.Assets)
	}
	if cfg.VelocityIterations != DefaultConfig().VelocityIterations {
		t.Error("unset fields should keep their defaults")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SIMBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("SIMBRIDGE_STRICT_CONTRACTS", "true")
	t.Setenv("SIMBRIDGE_METRICS_ADDR", ":9100")

	cfg, err := LoadConfig(writeConfig(t, "log_level: warn\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.StrictContracts == nil || !*cfg.StrictContracts {
		t.Error("expected strict contracts from env")
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("metrics addr = %q", cfg.MetricsAddr)
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")

	t.Setenv("SIMBRIDGE_STRICT_CONTRACTS", "maybe")
	if _, err := LoadConfig(path); !errors.Is(err, errors.ErrInvalidData) {
		t.Fatalf("expected invalid data for a malformed bool, got %v", err)
	}

	t.Setenv("SIMBRIDGE_STRICT_CONTRACTS", "false")
	t.Setenv("SIMBRIDGE_TIME_STEP", "fast")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for a malformed time step")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SIMBRIDGE_ASSETS_DRIVER", "sqlite")
	t.Setenv("SIMBRIDGE_ASSETS_PATH", "templates.db")
	t.Setenv("SIMBRIDGE_TIME_STEP", "0.01")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Assets.Driver != "sqlite" || cfg.Assets.Path != "templates.db" {
		t.Errorf("assets = %+v", cfg.Assets)
	}
	if cfg.TimeStep != 0.01 {
		t.Errorf("time step = %f", cfg.TimeStep)
	}
	if cfg.StrictContracts != nil {
		t.Error("unset variables must leave fields alone")
	}
	if cfg.VelocityIterations != DefaultConfig().VelocityIterations {
		t.Error("expected untagged fields unchanged")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "time_step: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadConfig(writeConfig(t, "time_step: -1\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero step", func(c *Config) { c.TimeStep = 0 }},
		{"no iterations", func(c *Config) { c.VelocityIterations = 0 }},
		{"bad driver", func(c *Config) { c.Assets.Driver = "postgres" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
