package types

import "github.com/casm-lang/casmc/internal/ast"

// Compatible implements spec.md §4.4's integer conversion law for
// assignment, initializer, return, and argument-passing contexts. Rule
// 5's exception is keyed on src itself being the 64-bit default type
// for its signedness (i64 or u64), not on whether src came from a
// literal — a plain i64-typed variable may narrow into an i8 the same
// way a literal would, matching how the original compiler's
// types_compatible treats the default types as always narrowable.
func Compatible(src, dst ast.Type) bool {
	if src == dst {
		return true
	}
	if !src.IsNumeric() || !dst.IsNumeric() {
		return false // rule 2/3: non-numeric mismatch, or numeric vs non-numeric
	}
	if src.IsSigned() != dst.IsSigned() {
		return false // rule 4
	}
	if src.Bits() <= dst.Bits() {
		return true
	}
	return src == src.Default64()
}

// BinaryResultType computes the result type of a binary operator per
// spec.md §4.4, assuming the caller has already verified operand
// compatibility via Compatible/IsRelational/IsLogical as appropriate.
// wider is used for arithmetic ops: the result takes the signedness of
// the operands (which must already agree) and the wider of their
// bit widths.
func BinaryResultType(op ast.BinaryOp, left, right ast.Type) ast.Type {
	switch {
	case op.IsArithmetic():
		if left.Bits() >= right.Bits() {
			return left
		}
		return right
	case op.IsRelational():
		return ast.Bool
	case op.IsLogical():
		return ast.Bool
	case op == ast.OpAssign:
		return left
	default:
		return ast.Void
	}
}

// UnaryResultType computes the result type of a unary operator.
// Negation preserves the operand's numeric type; logical not yields bool.
func UnaryResultType(op ast.UnaryOp, operand ast.Type) ast.Type {
	if op == ast.OpNot {
		return ast.Bool
	}
	return operand
}
