package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dropelab/internal/trace"
)

// Config is the decoded dropelab.toml. Zero values mean "use the default".
type Config struct {
	Run   RunConfig   `toml:"run"`
	Trace TraceConfig `toml:"trace"`
	Diag  DiagConfig  `toml:"diag"`

	// Path is the manifest the config was read from; empty for defaults.
	Path string `toml:"-"`
}

type RunConfig struct {
	Jobs     int  `toml:"jobs"`
	Simplify bool `toml:"simplify"`
	Cache    bool `toml:"cache"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

type DiagConfig struct {
	Max int `toml:"max"`
}

// Default is the configuration used when no manifest is found.
func Default() Config {
	return Config{
		Run:   RunConfig{Cache: true},
		Trace: TraceConfig{Level: "off", Mode: "stream", Output: "-"},
		Diag:  DiagConfig{Max: 100},
	}
}

// Load reads the manifest found from startDir, falling back to Default
// when there is none. Keys missing from the file keep their defaults.
func Load(startDir string) (Config, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile decodes one manifest over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	// Relative trace outputs are relative to the manifest.
	if out := cfg.Trace.Output; out != "" && out != "-" && !filepath.IsAbs(out) {
		cfg.Trace.Output = filepath.Join(filepath.Dir(path), out)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Run.Jobs < 0 {
		return fmt.Errorf("[run].jobs must not be negative, got %d", c.Run.Jobs)
	}
	if c.Diag.Max < 0 {
		return fmt.Errorf("[diag].max must not be negative, got %d", c.Diag.Max)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	return nil
}
