package emitwat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/callgraph"
	"github.com/casm-lang/casmc/internal/namealloc"
	"github.com/casm-lang/casmc/internal/parser"
	"github.com/casm-lang/casmc/internal/sema"
)

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

func TestEmitModuleShapeAndExport(t *testing.T) {
	prog := prepare(t, `i32 main() { return 42; }`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "(module\n")
	require.Contains(t, out, "(func $main (result i32)\n")
	require.Contains(t, out, "i32.const 42\n")
	require.Contains(t, out, `(export "main" (func $main))`)
}

func TestEmitOmitsExportWithoutMain(t *testing.T) {
	prog := prepare(t, `i32 helper() { return 1; }`)
	// helper is unreachable without main, so nothing should emit at all.
	out := Emit("test.csm", prog)
	require.NotContains(t, out, "export")
	require.NotContains(t, out, "helper")
}

func TestEmitWhileLoopUsesBlockLoopBrIf(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    i32 i = 0;
    while (i < 10) {
        i = i + 1;
    }
    return i;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "block $break\n")
	require.Contains(t, out, "loop $continue\n")
	require.Contains(t, out, "br_if $break\n")
	require.Contains(t, out, "br $continue\n")
}

func TestEmitAssignmentUsesLocalTeeAndDropsWhenDiscarded(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    i32 x = 0;
    x = 5;
    return x;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "local.tee $x\n")
	require.Contains(t, out, "drop\n")
}

func TestEmitElseIfChainNestsOneEndPerIf(t *testing.T) {
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
	require.Equal(t, 2, strings_Count(out, "if\n"))
	require.Equal(t, 2, strings_Count(out, "end\n"))
}

func TestEmitSignedAndUnsignedDivisionPickDifferentOpcodes(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    i32 a = 10;
    i32 b = 3;
    return a / b;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "i32.div_s\n")

	progU := prepare(t, `
u32 main() {
    u32 a = 10;
    u32 b = 3;
    return a / b;
}
`)
	outU := Emit("test.csm", progU)
	require.Contains(t, outU, "i32.div_u\n")
}

func TestEmitCallUsesResolvedTargetName(t *testing.T) {
	prog := prepare(t, `
i32 helper() { return 7; }
i32 main() { return helper(); }
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "call $helper\n")
}

func TestEmitDbgWritesDataPoolAndHostCalls(t *testing.T) {
	prog := prepare(t, `
i32 main() {
    i32 x = 5;
    dbg(x);
    return 0;
}
`)
	out := Emit("test.csm", prog)
	require.Contains(t, out, "(data (i32.const 0)")
	require.Contains(t, out, "call $debug_begin\n")
	require.Contains(t, out, "call $debug_value_i32\n")
	require.Contains(t, out, "call $debug_end\n")
	require.Contains(t, out, `(import "host" "debug_begin"`)
}

func TestEmitWithMapProducesMapOnlyWhenRequested(t *testing.T) {
	prog := prepare(t, `i32 main() { return 0; }`)
	_, mapNil := EmitWithMap("test.csm", prog, false)
	require.Nil(t, mapNil)
	_, mapSet := EmitWithMap("test.csm", prog, true)
	require.NotNil(t, mapSet)
}

// strings_Count avoids importing "strings" solely for one assertion helper.
func strings_Count(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
