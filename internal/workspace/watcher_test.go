package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/casm-lang/casmc/internal/ast"
)

func TestSyncAddsAndRemovesWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.csm")
	other := filepath.Join(dir, "lib.csm")
	require.NoError(t, os.WriteFile(entry, []byte("i32 main() { return 0; }\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("i32 helper() { return 1; }\n"), 0o644))

	w, err := New(10 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	prog := &ast.Program{Functions: []*ast.Function{
		{Name: "helper", ModulePath: other},
	}}

	require.NoError(t, w.Sync(entry, prog))
	require.Len(t, w.watched, 2)

	absEntry, err := filepath.Abs(entry)
	require.NoError(t, err)
	require.Contains(t, w.watched, absEntry)
	require.Contains(t, w.watched, other)

	require.NoError(t, w.Sync(entry, &ast.Program{}))
	require.Len(t, w.watched, 1)
	require.Contains(t, w.watched, absEntry)
}

func TestWorkspaceFilesIncludesEntryEvenWithNilProgram(t *testing.T) {
	files := workspaceFiles("main.csm", nil)
	require.Len(t, files, 1)
}
