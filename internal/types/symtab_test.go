package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casm-lang/casmc/internal/ast"
)

func TestAddFunctionRejectsSameModuleRedefinition(t *testing.T) {
	tab := NewTable()
	sym := &FunctionSymbol{Name: "f", ModulePath: "a.csm"}
	require.True(t, tab.AddFunction(sym))
	require.False(t, tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "a.csm"}))
}

func TestAddFunctionAllowsCrossModuleHomonyms(t *testing.T) {
	tab := NewTable()
	require.True(t, tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "a.csm"}))
	require.True(t, tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "b.csm"}))
}

func TestLookupFunctionPrefersSameModule(t *testing.T) {
	tab := NewTable()
	tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "a.csm", Basename: "a"})
	tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "b.csm", Basename: "b"})

	found := tab.LookupFunction("f", "b.csm")
	require.Equal(t, "b.csm", found.ModulePath)
}

func TestLookupFunctionQualifiedName(t *testing.T) {
	tab := NewTable()
	tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "a.csm", Basename: "a"})
	tab.AddFunction(&FunctionSymbol{Name: "f", ModulePath: "b.csm", Basename: "b"})

	found := tab.LookupFunction("a:f", "b.csm")
	require.Equal(t, "a.csm", found.ModulePath)
}

func TestLookupFunctionUnknown(t *testing.T) {
	tab := NewTable()
	require.Nil(t, tab.LookupFunction("nope", "a.csm"))
}

func TestScopedVariableDeclarationAndShadowing(t *testing.T) {
	tab := NewTable()
	tab.PushScope()
	require.True(t, tab.DeclareVariable(&VariableSymbol{Name: "x", Type: ast.I32}))
	require.False(t, tab.DeclareVariable(&VariableSymbol{Name: "x", Type: ast.I32}))

	tab.PushScope()
	require.True(t, tab.DeclareVariable(&VariableSymbol{Name: "x", Type: ast.Bool}))
	require.Equal(t, ast.Bool, tab.LookupVariable("x").Type)
	tab.PopScope()
	require.Equal(t, ast.I32, tab.LookupVariable("x").Type)
}

func TestMarkInitialized(t *testing.T) {
	tab := NewTable()
	tab.PushScope()
	tab.DeclareVariable(&VariableSymbol{Name: "x", Type: ast.I32})
	require.False(t, tab.LookupVariable("x").Initialized)
	tab.MarkInitialized("x")
	require.True(t, tab.LookupVariable("x").Initialized)
}

func TestCompatibleWidening(t *testing.T) {
	require.True(t, Compatible(ast.I8, ast.I32))
	require.False(t, Compatible(ast.I32, ast.I8))
	require.False(t, Compatible(ast.I32, ast.U32))
	require.False(t, Compatible(ast.I32, ast.Bool))
}

func TestCompatibleDefault64NarrowingException(t *testing.T) {
	require.True(t, Compatible(ast.I64, ast.I8))
	require.True(t, Compatible(ast.U64, ast.U8))
}

func TestBinaryResultTypeArithmeticTakesWiderOperand(t *testing.T) {
	require.Equal(t, ast.I32, BinaryResultType(ast.OpAdd, ast.I8, ast.I32))
	require.Equal(t, ast.I32, BinaryResultType(ast.OpAdd, ast.I32, ast.I8))
}

func TestBinaryResultTypeRelationalAndLogicalYieldBool(t *testing.T) {
	require.Equal(t, ast.Bool, BinaryResultType(ast.OpLt, ast.I32, ast.I32))
	require.Equal(t, ast.Bool, BinaryResultType(ast.OpAnd, ast.Bool, ast.Bool))
}

func TestUnaryResultType(t *testing.T) {
	require.Equal(t, ast.Bool, UnaryResultType(ast.OpNot, ast.I32))
	require.Equal(t, ast.I32, UnaryResultType(ast.OpNeg, ast.I32))
}
