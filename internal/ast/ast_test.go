package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeStringCoversEverySymbol(t *testing.T) {
	cases := map[Type]string{
		I8: "i8", I16: "i16", I32: "i32", I64: "i64",
		U8: "u8", U16: "u16", U32: "u32", U64: "u64",
		Bool: "bool", Void: "void",
	}
	for typ, want := range cases {
		require.Equal(t, want, typ.String())
	}
	require.Equal(t, "<invalid-type>", Type(999).String())
}

func TestTypeBits(t *testing.T) {
	require.Equal(t, 8, I8.Bits())
	require.Equal(t, 8, U8.Bits())
	require.Equal(t, 16, I16.Bits())
	require.Equal(t, 32, I32.Bits())
	require.Equal(t, 64, U64.Bits())
	require.Equal(t, 0, Bool.Bits())
	require.Equal(t, 0, Void.Bits())
}

func TestTypeIsNumeric(t *testing.T) {
	require.True(t, I32.IsNumeric())
	require.True(t, U64.IsNumeric())
	require.False(t, Bool.IsNumeric())
	require.False(t, Void.IsNumeric())
}

func TestTypeIsSigned(t *testing.T) {
	require.True(t, I8.IsSigned())
	require.True(t, I64.IsSigned())
	require.False(t, U8.IsSigned())
	require.False(t, Bool.IsSigned())
}

func TestTypeDefault64(t *testing.T) {
	require.Equal(t, I64, I8.Default64())
	require.Equal(t, I64, I32.Default64())
	require.Equal(t, U64, U8.Default64())
	require.Equal(t, U64, U32.Default64())
}

func TestFunctionReachableReflectsAllocatedName(t *testing.T) {
	fn := &Function{}
	require.False(t, fn.Reachable())
	fn.AllocatedName = "main"
	require.True(t, fn.Reachable())
}
