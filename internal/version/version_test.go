package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestVersion_DefaultIsPlain(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should have a default value")
	}
	for _, r := range Version {
		if r == '\x1b' {
			t.Fatalf("Version %q contains escape sequences", Version)
		}
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{"bare", "1.2.3", "", "", "dropelab 1.2.3"},
		{"commit", "1.2.3", "abc123", "", "dropelab 1.2.3 (abc123)"},
		{"commit and date", "1.2.3-rc.1", "abc123", "2024-01-15", "dropelab 1.2.3-rc.1 (abc123, 2024-01-15)"},
		{"date only", "0.1.0-dev", "", "2024-01-15", "dropelab 0.1.0-dev (2024-01-15)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version, tt.commit, tt.date)
			if got := Info(false); got != tt.want {
				t.Errorf("Info(false) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColored(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	tests := []struct{ version, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3+build.7", "1.2.3+build.7"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		withVersion(t, tt.version, "", "")
		if got := Colored(); got != tt.want {
			t.Errorf("Colored() with %q = %q, want %q", tt.version, got, tt.want)
		}
	}

	color.NoColor = false
	withVersion(t, "1.2.3", "", "")
	if got := Colored(); got == "1.2.3" {
		t.Errorf("Colored() did not colorize %q", got)
	}
}
