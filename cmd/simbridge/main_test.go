package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

const testScene = `
materials:
  rubber: {density: 1, friction: 0.9, restitution: 0.5}
actors:
  - name: ground
    bodies: [{id: floor, motion: static}]
    shapes: [{body: floor, half_extents: [10, 0.5]}]
  - name: ball
    bodies: [{id: ball, position: [0, 4]}]
    shapes: [{body: ball, kind: sphere, radius: 0.5, material: rubber}]
`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(testScene), 0o600); err != nil {
		t.Fatalf("write scene: %v", err)
	}
	return path
}

func writeConfig(t *testing.T, assets string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simbridge.yaml")
	body := "log_level: error\nassets:\n  driver: sqlite\n  path: " + assets + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "assets.db"))
	scene := writeScene(t)
	out, err := execute(t, "--config", cfg, "run", scene, "--steps", "60", "--reconstruct-every", "20", "--json")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	var res runResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.Steps != 60 {
		t.Errorf("steps = %d", res.Steps)
	}
	if res.Reconstructions != 6 {
		t.Errorf("expected 2 actors rebuilt 3 times, got %d", res.Reconstructions)
	}
	if res.Snapshots.Captured != 12 || res.Snapshots.Restored != 12 || res.Snapshots.Orphaned != 0 {
		t.Errorf("unexpected snapshots %+v", res.Snapshots)
	}
	if res.Released != 4 || res.Instances != 1 {
		t.Errorf("unexpected teardown released=%d instances=%d", res.Released, res.Instances)
	}
	if len(res.Bodies) != 2 {
		t.Fatalf("expected 2 bodies, got %+v", res.Bodies)
	}
}

func TestRunMissingScene(t *testing.T) {
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "assets.db"))
	if _, err := execute(t, "--config", cfg, "run", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing scene")
	}
}

func TestAssetsImportList(t *testing.T) {
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "assets.db"))
	scene := writeScene(t)

	out, err := execute(t, "--config", cfg, "assets", "import", scene)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 1 templates") {
		t.Fatalf("unexpected import output %q", out)
	}

	out, err = execute(t, "--config", cfg, "assets", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "rubber") || !strings.Contains(out, "friction=0.9") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	if _, err := execute(t, "--config", cfg, "assets", "delete", "material", "rubber"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, err = execute(t, "--config", cfg, "assets", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No templates stored.") {
		t.Fatalf("expected empty store, got:\n%s", out)
	}
}

func TestBadLogLevel(t *testing.T) {
	if _, err := execute(t, "version", "--log-level", "loud"); err == nil {
		t.Fatal("expected invalid log level error")
	}
}
