package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest = %q, %t, %v", got, ok, err)
	}
	if got != path {
		t.Fatalf("FindManifest = %q, want %q", got, path)
	}
}

func TestLoadDefaultsWithoutManifest(t *testing.T) {
	// The temp dir root normally has no manifest above it; skip if a stray
	// one exists on this machine.
	dir := t.TempDir()
	if _, ok, _ := FindManifest(dir); ok {
		t.Skip("a dropelab.toml exists above the temp dir")
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[run]
jobs = 4
simplify = true

[trace]
level = "phase"
output = "trace.log"
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := Config{
		Run:   RunConfig{Jobs: 4, Simplify: true, Cache: true},
		Trace: TraceConfig{Level: "phase", Mode: "stream", Output: filepath.Join(dir, "trace.log")},
		Diag:  DiagConfig{Max: 100},
		Path:  path,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[run\n", "failed to parse TOML"},
		{"unknown key", "[run]\nworkers = 2\n", "unknown keys: run.workers"},
		{"negative jobs", "[run]\njobs = -1\n", "[run].jobs must not be negative"},
		{"bad level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"bad mode", "[trace]\nmode = \"tape\"\n", "[trace].mode"},
		{"negative max", "[diag]\nmax = -5\n", "[diag].max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadFile error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}
