package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "wat", cfg.Build.Target)
	require.Equal(t, "", cfg.Build.Output)
	require.Equal(t, 100, cfg.Build.MaxNameMangleAttempts)
	require.Equal(t, 0, cfg.Diagnostics.MaxErrors)
	require.Equal(t, 150, cfg.Watch.DebounceMS)
}

func TestValidateRejectsBadTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Build.Target = "rust"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveMangleCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Build.MaxNameMangleAttempts = 0
	require.Error(t, cfg.Validate())

	cfg.Build.MaxNameMangleAttempts = -1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeMaxErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Diagnostics.MaxErrors = -1
	require.Error(t, cfg.Validate())
}

// TestLoadPrecedence exercises the four-tier precedence: a project
// casm.toml overrides the default, and a CLI-shaped override overrides
// the project file.
func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(oldWD)) })

	project := "[build]\ntarget = \"c\"\noutput = \"from-project.c\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "casm.toml"), []byte(project), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "c", cfg.Build.Target)
	require.Equal(t, "from-project.c", cfg.Build.Output)

	overrides := &Config{Build: BuildConfig{Target: "wat"}}
	cfg, err = Load(overrides)
	require.NoError(t, err)
	require.Equal(t, "wat", cfg.Build.Target, "CLI override must win over project file")
	require.Equal(t, "from-project.c", cfg.Build.Output, "unset override field keeps the project file's value")
}

func TestLoadRejectsInvalidProjectFile(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(oldWD)) })

	bad := "[build]\ntarget = \"fortran\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "casm.toml"), []byte(bad), 0o644))

	_, err = Load(nil)
	require.Error(t, err)
}
