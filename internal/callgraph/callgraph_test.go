package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/parser"
)

func parseWithIDs(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse("test.csm", []byte(src))
	require.Empty(t, diags.All())
	for i, fn := range prog.Functions {
		fn.SymbolID = uint32(i + 1)
	}
	return prog
}

func TestBuildFindsEntryPointByName(t *testing.T) {
	prog := parseWithIDs(t, `
i32 helper() { return 1; }
i32 main() { return helper(); }
`)
	g := Build(prog)
	require.Equal(t, prog.Functions[1].SymbolID, g.EntryPointID)
}

func TestBuildNoEntryPointWhenNoMain(t *testing.T) {
	prog := parseWithIDs(t, `i32 f() { return 1; }`)
	g := Build(prog)
	require.Equal(t, uint32(0), g.EntryPointID)
}

func TestReachableFollowsCallsTransitively(t *testing.T) {
	prog := parseWithIDs(t, `
i32 c() { return 3; }
i32 b() { return c(); }
i32 a() { return b(); }
i32 unused() { return 0; }
i32 main() { return a(); }
`)
	g := Build(prog)
	reachable := g.Reachable()

	byName := make(map[string]uint32)
	for _, fn := range prog.Functions {
		byName[fn.Name] = fn.SymbolID
	}

	require.Contains(t, reachable, byName["main"])
	require.Contains(t, reachable, byName["a"])
	require.Contains(t, reachable, byName["b"])
	require.Contains(t, reachable, byName["c"])
	require.NotContains(t, reachable, byName["unused"])
}

func TestReachableEmptyWithoutMain(t *testing.T) {
	prog := parseWithIDs(t, `i32 f() { return 1; }`)
	g := Build(prog)
	require.Empty(t, g.Reachable())
}

func TestReachableHandlesRecursionWithoutInfiniteLoop(t *testing.T) {
	prog := parseWithIDs(t, `
i32 main() {
    return main();
}
`)
	g := Build(prog)
	reachable := g.Reachable()
	require.Len(t, reachable, 1)
}

func TestBuildCollectsCallsFromControlFlowAndDbg(t *testing.T) {
	prog := parseWithIDs(t, `
i32 sideEffect() { return 1; }
i32 main() {
    if (true) {
        sideEffect();
    } else if (false) {
        sideEffect();
    }
    for (i32 i = 0; i < 1; i = i + 1) {
        dbg(sideEffect());
    }
    return 0;
}
`)
	g := Build(prog)
	reachable := g.Reachable()

	var sideEffectID uint32
	for _, fn := range prog.Functions {
		if fn.Name == "sideEffect" {
			sideEffectID = fn.SymbolID
		}
	}
	require.Contains(t, reachable, sideEffectID)
}

func TestFunctionLooksUpNodeByID(t *testing.T) {
	prog := parseWithIDs(t, `i32 main() { return 0; }`)
	g := Build(prog)
	require.Equal(t, "main", g.Function(g.EntryPointID).Name)
	require.Nil(t, g.Function(999))
}
