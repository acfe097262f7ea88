package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/storage"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func runID(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if id, ok := strings.CutPrefix(line, "run id: "); ok {
			return id
		}
	}
	t.Fatalf("no run id in output:\n%s", out)
	return ""
}

func TestRunAndInspect(t *testing.T) {
	data := t.TempDir()

	out, err := execute(t, "", "run", "--preset", "corner", "--data", data)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "goal reached at") {
		t.Errorf("corner run should settle:\n%s", out)
	}
	id := runID(t, out)

	out, err = execute(t, "", "list", "--data", data)
	if err != nil || !strings.Contains(out, id) {
		t.Errorf("list missing run %s: %v\n%s", id, err, out)
	}

	for _, sub := range []string{"plot", "path", "export", "export-csv"} {
		out, err = execute(t, "", sub, id, "--data", data)
		if err != nil || out == "" {
			t.Errorf("%s failed: %v\n%s", sub, err, out)
		}
	}

	out, err = execute(t, "", "export-json", id, "--data", data)
	if err != nil {
		t.Fatal(err)
	}
	var exp storage.ExportData
	if err := json.Unmarshal([]byte(out), &exp); err != nil {
		t.Fatalf("bad export: %v", err)
	}
	if exp.Goal != (dynamo.Goal{X: 10, Y: 10}) || len(exp.Poses) == 0 {
		t.Errorf("unexpected export %+v", exp.RunMetadata)
	}
}

func TestMissingRun(t *testing.T) {
	if _, err := execute(t, "", "export", "run_nope", "--data", t.TempDir()); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("goal:\n  x: 2\n  y: 2\nduration: 30\n"), 0644); err != nil {
		t.Fatal(err)
	}
	data := t.TempDir()

	out, err := execute(t, "", "run", "--config", path, "--goal-x", "3", "--data", data)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	meta, err := storage.New(data).Load(runID(t, out))
	if err != nil {
		t.Fatal(err)
	}
	if meta.Goal != (dynamo.Goal{X: 3, Y: 2}) {
		t.Errorf("expected goal (3, 2), got %v", meta.Goal)
	}
	if meta.Duration != 30 {
		t.Errorf("expected duration from file, got %v", meta.Duration)
	}
}

func TestRejectsBadInput(t *testing.T) {
	cases := [][]string{
		{"run", "--preset", "nope"},
		{"run", "--distance-deadband", "0"},
		{"run", "--integrator", "verlet"},
		{"sweep", "--runs", "0"},
	}
	for _, args := range cases {
		if _, err := execute(t, "", append(args, "--data", t.TempDir())...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "", "sweep", "--runs", "8", "--workers", "2", "--seed", "7")
	if err != nil {
		t.Fatalf("sweep failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "settled: 8/8") {
		t.Errorf("unexpected sweep output:\n%s", out)
	}
}

func TestDrive(t *testing.T) {
	out, err := execute(t, "5.5 5.5\n", "drive")
	if err != nil {
		t.Fatalf("drive failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Goal (5.500, 5.500) reached") {
		t.Errorf("unexpected drive output:\n%s", out)
	}
}

func TestTune(t *testing.T) {
	out, err := execute(t, "", "tune", "--preset", "behind", "--linear-grid", "1,2", "--angular-grid", "4")
	if err != nil {
		t.Fatalf("tune failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "best: k_linear=2 k_angular=4") {
		t.Errorf("unexpected tune output:\n%s", out)
	}

	if _, err := execute(t, "", "tune", "--metric", "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "", "presets")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"corner", "behind", "spawn"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing preset %s", name)
		}
	}
}
