package emitc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/callgraph"
	"github.com/casm-lang/casmc/internal/namealloc"
	"github.com/casm-lang/casmc/internal/parser"
	"github.com/casm-lang/casmc/internal/sema"
)

// prepare runs a single-module source through parsing, semantic
// analysis, call-graph construction and name allocation, mirroring
// what internal/compiler does before handing the program to a backend.
func prepare(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse("test.csm", []byte(src))
	require.Empty(t, diags.All())
	for _, fn := range prog.Functions {
		fn.ModulePath = "test.csm"
		fn.OriginalName = fn.Name
	}
	_, semaDiags := sema.Analyze("test.csm", prog)
	require.Empty(t, semaDiags.All())
	graph := callgraph.Build(prog)
	namealloc.Allocate(prog, graph)
	return prog
}

func TestEmitHeaderAndSignature(t *testing.T) {
	prog := prepare(t, `i32 main() { return 42; }`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "#include <stdint.h>\n")
	require.Contains(t, out, "int32_t main(void);\n")
	require.Contains(t, out, "int32_t main(void) {\n    return 42;\n}\n")
}

func TestEmitOmitsUnreachableFunctions(t *testing.T) {
	prog := prepare(t, `
i32 dead() { return 0; }
i32 main() { return 1; }
`)
	out := Emit("test.csm", prog)
	require.NotContains(t, out, "dead")
}

func TestEmitIfElseIfElseChain(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    if (true) {
        return 1;
    } else if (false) {
        return 2;
    } else {
        return 3;
    }
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "if (true) {\n        return 1;\n    } else if (false) {\n        return 2;\n    } else {\n        return 3;\n    }\n")
}

func TestEmitForLoop(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    for (i32 i = 0; i < 10; i = i + 1) {
        return i;
    }
    return 0;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "for (int32_t i = 0; (i < 10); i = (i + 1)) {\n")
}

func TestEmitAssignmentAsNestedExpressionIsParenthesized(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    i32 x = 0;
    i32 y = (x = 5) + x;
    return y;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "int32_t y = ((x = 5) + x);\n")
}

func TestEmitCallExpressionUsesResolvedAllocatedName(t *testing.T) {
	prog := prepare(t, `
i32 helper() { return 7; }
i32 main() { return helper(); }
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "return helper();\n")
}

func TestEmitDbgWithSimpleExpressionUsesPrintfDirectly(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    i32 x = 1;
    dbg(x, x + 1);
    return 0;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "printf(")
	require.Contains(t, out, "x = %d, x + 1 = %d")
	require.Contains(t, out, ", x, (x + 1));\n")
}

func TestEmitDbgHoistsCallIntoTempBeforePrintf(t *testing.T) {
	prog := prepare(t, `
i32 helper() { return 3; }
i32 main() {
    dbg(helper());
    return 0;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "__dbg_tmp_0")
	require.Contains(t, out, "int32_t __dbg_tmp_0 = helper();\n")
}

func TestEmitBoolDbgUsesStringSpecifierAndTernaryCast(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    bool flag = true;
    dbg(flag);
    return 0;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "flag = %s")
	require.Contains(t, out, `((flag) ? "true" : "false")`)
}

func TestEmitWithMapProducesNonNilMapOnlyWhenRequested(t *testing.T) {
	prog := prepare(t, `i32 main() { return 0; }`)
	_, mapNil := EmitWithMap("test.csm", prog, false)
	require.Nil(t, mapNil)
	_, mapSet := EmitWithMap("test.csm", prog, true)
	require.NotNil(t, mapSet)
}
