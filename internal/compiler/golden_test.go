package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGoldenFiles compiles every testdata/golden/*.csm fixture to both
// targets and checks the output byte-matches its <name>.c.golden and
// <name>.wat.golden counterpart, mirroring the teacher's tests/golden_test.go
// shape (glob fixtures, read the matching golden file, compare).
func TestGoldenFiles(t *testing.T) {
	goldenDir := "../../testdata/golden"

	fixtures, err := filepath.Glob(filepath.Join(goldenDir, "*.csm"))
	require.NoError(t, err)
	require.NotEmpty(t, fixtures, "no golden fixtures found")

	for _, fixture := range fixtures {
		fixture := fixture
		baseName := strings.TrimSuffix(filepath.Base(fixture), ".csm")

		t.Run(baseName+"_c", func(t *testing.T) {
			expected, err := os.ReadFile(filepath.Join(goldenDir, baseName+".c.golden"))
			require.NoError(t, err)

			result, diags, err := Compile(fixture, Options{Target: TargetC})
			require.NoError(t, err)
			require.Empty(t, diags)
			require.Equal(t, string(expected), result.Output)
		})

		t.Run(baseName+"_wat", func(t *testing.T) {
			expected, err := os.ReadFile(filepath.Join(goldenDir, baseName+".wat.golden"))
			require.NoError(t, err)

			result, diags, err := Compile(fixture, Options{Target: TargetWAT})
			require.NoError(t, err)
			require.Empty(t, diags)
			require.Equal(t, string(expected), result.Output)
		})
	}
}
