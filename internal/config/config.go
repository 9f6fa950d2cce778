// Package config loads casmc's project configuration (spec.md §4.11 /
// component C13). It is grounded directly on the teacher's
// pkg/config/config.go: the same four-tier precedence (CLI overrides >
// project file > user file > built-in defaults), the same
// exists-is-optional TOML loading via github.com/BurntSushi/toml, and
// the same Validate() error shape, generalized from Dingo's language
// feature flags to CASM's build/diagnostics/watch settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is casmc's complete project configuration.
type Config struct {
	Build       BuildConfig       `toml:"build"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Watch       WatchConfig       `toml:"watch"`
}

// BuildConfig controls the compilation target and output.
type BuildConfig struct {
	// Target selects the emitted backend: "c" or "wat".
	Target string `toml:"target"`

	// Output is the output file path. Empty means out.c or out.wat
	// (by Target) in the working directory.
	Output string `toml:"output"`

	// MaxNameMangleAttempts is loaded and validated (it must be
	// positive) but is not passed to the name allocator, whose
	// priority-3 numbered-suffix search uses its own fixed cap of 100.
	MaxNameMangleAttempts int `toml:"max_name_mangle_attempts"`
}

// DiagnosticsConfig controls diagnostic reporting.
type DiagnosticsConfig struct {
	// MaxErrors is loaded and validated (it must be >= 0) but is not
	// consulted when diagnostics are printed; the CLI prints every
	// diagnostic.
	MaxErrors int `toml:"max_errors"`
}

// WatchConfig controls --watch mode.
type WatchConfig struct {
	// DebounceMS is how long internal/workspace.Watcher waits after the
	// last filesystem event before re-running the pipeline.
	DebounceMS int `toml:"debounce_ms"`
}

// DefaultConfig returns casmc's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Target:                "wat",
			Output:                "",
			MaxNameMangleAttempts: 100,
		},
		Diagnostics: DiagnosticsConfig{
			MaxErrors: 0,
		},
		Watch: WatchConfig{
			DebounceMS: 150,
		},
	}
}

// Load loads configuration from, in increasing priority order:
// built-in defaults, ~/.casm/config.toml, ./casm.toml, then overrides
// (CLI flags, already parsed into a *Config by the caller — only
// non-zero fields are applied). It validates the final result.
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := filepath.Join(os.Getenv("HOME"), ".casm", "config.toml")
	if err := loadConfigFile(userConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	projectConfigPath := "casm.toml"
	if err := loadConfigFile(projectConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyOverrides(cfg, overrides *Config) {
	if overrides.Build.Target != "" {
		cfg.Build.Target = overrides.Build.Target
	}
	if overrides.Build.Output != "" {
		cfg.Build.Output = overrides.Build.Output
	}
	if overrides.Build.MaxNameMangleAttempts != 0 {
		cfg.Build.MaxNameMangleAttempts = overrides.Build.MaxNameMangleAttempts
	}
	if overrides.Diagnostics.MaxErrors != 0 {
		cfg.Diagnostics.MaxErrors = overrides.Diagnostics.MaxErrors
	}
	if overrides.Watch.DebounceMS != 0 {
		cfg.Watch.DebounceMS = overrides.Watch.DebounceMS
	}
}

// loadConfigFile loads a TOML file into cfg. A missing file is not an
// error: the caller's defaults (or previously loaded tier) stand.
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Build.Target {
	case "c", "wat":
	default:
		return fmt.Errorf("invalid build.target: %q (must be \"c\" or \"wat\")", c.Build.Target)
	}
	if c.Build.MaxNameMangleAttempts <= 0 {
		return fmt.Errorf("invalid build.max_name_mangle_attempts: %d (must be positive)", c.Build.MaxNameMangleAttempts)
	}
	if c.Diagnostics.MaxErrors < 0 {
		return fmt.Errorf("invalid diagnostics.max_errors: %d (must be >= 0)", c.Diagnostics.MaxErrors)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("invalid watch.debounce_ms: %d (must be >= 0)", c.Watch.DebounceMS)
	}
	return nil
}
