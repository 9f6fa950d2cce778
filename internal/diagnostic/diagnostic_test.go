package diagnostic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{File: "a.csm", Line: 3, Column: 7, Message: "boom"}
	require.Equal(t, "a.csm:3:7: boom", d.String())
}

func TestBagHasErrors(t *testing.T) {
	b := NewBag()
	require.False(t, b.HasErrors())
	b.Errorf("a.csm", 1, 1, "bad thing: %d", 42)
	require.True(t, b.HasErrors())
	require.Equal(t, 1, b.Len())
	require.Equal(t, "bad thing: 42", b.All()[0].Message)
}

func TestBagMerge(t *testing.T) {
	a := NewBag()
	a.Errorf("a.csm", 1, 1, "first")
	b := NewBag()
	b.Errorf("b.csm", 2, 2, "second")
	a.Merge(b)
	require.Equal(t, 2, a.Len())
}

func TestBagMergeNilIsNoop(t *testing.T) {
	a := NewBag()
	a.Merge(nil)
	require.Equal(t, 0, a.Len())
}

func TestGroupedByFileSortsByFileThenPosition(t *testing.T) {
	b := NewBag()
	b.Add(Diagnostic{File: "b.csm", Line: 5, Column: 1, Message: "later"})
	b.Add(Diagnostic{File: "a.csm", Line: 2, Column: 9, Message: "second"})
	b.Add(Diagnostic{File: "a.csm", Line: 1, Column: 1, Message: "first"})

	groups := b.GroupedByFile()
	require.Len(t, groups, 2)
	require.Equal(t, "a.csm", groups[0].File)
	require.Equal(t, "first", groups[0].Diagnostics[0].Message)
	require.Equal(t, "second", groups[0].Diagnostics[1].Message)
	require.Equal(t, "b.csm", groups[1].File)
}

func TestBagWriteTo(t *testing.T) {
	b := NewBag()
	b.Errorf("a.csm", 1, 1, "oops")
	var out strings.Builder
	require.NoError(t, b.WriteTo(&out))
	require.Equal(t, "a.csm:1:1: oops\n", out.String())
}
