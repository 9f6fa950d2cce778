// Package emitc lowers a merged, name-allocated program to a
// self-contained C translation unit (spec.md §4.8 / component C10).
// It follows the original C backend's structural shape — forward
// declarations then definitions, recursive expression emission with
// the assignment operator as a special case — generalized to allocated
// names, dead-code elision, and the printf-based dbg lowering the
// original never implemented.
package emitc

import (
	"fmt"
	"strings"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/sourcemap"
)

// Emit renders prog's reachable functions as C source. file is the
// path recorded in dbg format strings.
func Emit(file string, prog *ast.Program) string {
	out, _ := EmitWithMap(file, prog, false)
	return out
}

// EmitWithMap renders prog as C source exactly like Emit, additionally
// recording one source-map entry per emitted function header and
// per-statement when withMap is true (spec.md §4.13). The returned Map
// is nil when withMap is false.
func EmitWithMap(file string, prog *ast.Program, withMap bool) (string, *sourcemap.Map) {
	e := &emitter{file: file}
	if withMap {
		e.smap = sourcemap.New(file, file+".c")
	}
	var out strings.Builder
	e.writeHeader(&out)
	e.writeForwardDecls(&out, prog)
	e.writeDefinitions(&out, prog)
	return out.String(), e.smap
}

type emitter struct {
	file    string
	tmpNext int
	smap    *sourcemap.Map
}

// recordMapping, if source-map collection is enabled, notes that loc's
// CASM position produced the output text that currently ends at w's
// length (i.e. the position about to be written starts here).
func (e *emitter) recordMapping(w *strings.Builder, loc ast.SourceLocation) {
	if e.smap == nil {
		return
	}
	line, col := lineColOf(w.String())
	e.smap.Add(loc.Line, loc.Column, line, col, "")
}

// lineColOf returns the 1-based line and 0-based column that position
// len(s) falls at, i.e. where the next byte written to s would land.
func lineColOf(s string) (line, col int) {
	line = 1
	for _, r := range s {
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return line, col
}

func (e *emitter) writeHeader(w *strings.Builder) {
	w.WriteString("#include <stdint.h>\n")
	w.WriteString("#include <stdbool.h>\n")
	w.WriteString("#include <stdio.h>\n")
	w.WriteString("\n")
}

func reachableFunctions(prog *ast.Program) []*ast.Function {
	var fns []*ast.Function
	for _, fn := range prog.Functions {
		if fn.Reachable() {
			fns = append(fns, fn)
		}
	}
	return fns
}

func (e *emitter) writeForwardDecls(w *strings.Builder, prog *ast.Program) {
	for _, fn := range reachableFunctions(prog) {
		e.writeSignature(w, fn)
		w.WriteString(";\n")
	}
	w.WriteString("\n")
}

func (e *emitter) writeDefinitions(w *strings.Builder, prog *ast.Program) {
	fns := reachableFunctions(prog)
	for i, fn := range fns {
		e.recordMapping(w, fn.Location)
		e.writeSignature(w, fn)
		w.WriteString(" {\n")
		e.writeBlock(w, fn.Body, 1)
		w.WriteString("}\n")
		if i < len(fns)-1 {
			w.WriteString("\n")
		}
	}
}

func (e *emitter) writeSignature(w *strings.Builder, fn *ast.Function) {
	fmt.Fprintf(w, "%s %s(", cType(fn.ReturnType.Type), mangle(fn.AllocatedName))
	if len(fn.Parameters) == 0 {
		w.WriteString("void")
	} else {
		for i, p := range fn.Parameters {
			if i > 0 {
				w.WriteString(", ")
			}
			fmt.Fprintf(w, "%s %s", cType(p.Type.Type), p.Name)
		}
	}
	w.WriteString(")")
}

func indent(w *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		w.WriteString("    ")
	}
}

func (e *emitter) writeBlock(w *strings.Builder, block ast.Block, depth int) {
	for _, stmt := range block.Statements {
		e.writeStatement(w, stmt, depth)
	}
}

func (e *emitter) writeStatement(w *strings.Builder, stmt ast.Stmt, depth int) {
	e.recordMapping(w, stmt.Loc())
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		indent(w, depth)
		fmt.Fprintf(w, "%s %s", cType(s.Type.Type), s.Name)
		if s.Initializer != nil {
			w.WriteString(" = ")
			e.writeExpr(w, s.Initializer, false)
		}
		w.WriteString(";\n")

	case *ast.ExprStmt:
		indent(w, depth)
		e.writeExpr(w, s.X, false)
		w.WriteString(";\n")

	case *ast.ReturnStmt:
		indent(w, depth)
		w.WriteString("return")
		if s.Value != nil {
			w.WriteString(" ")
			e.writeExpr(w, s.Value, false)
		}
		w.WriteString(";\n")

	case *ast.IfStmt:
		indent(w, depth)
		w.WriteString("if (")
		e.writeExpr(w, s.Condition, false)
		w.WriteString(") {\n")
		e.writeBlock(w, s.Then, depth+1)
		indent(w, depth)
		w.WriteString("}")
		for _, elif := range s.ElseIfs {
			w.WriteString(" else if (")
			e.writeExpr(w, elif.Condition, false)
			w.WriteString(") {\n")
			e.writeBlock(w, elif.Body, depth+1)
			indent(w, depth)
			w.WriteString("}")
		}
		if s.Else != nil {
			w.WriteString(" else {\n")
			e.writeBlock(w, *s.Else, depth+1)
			indent(w, depth)
			w.WriteString("}\n")
		} else {
			w.WriteString("\n")
		}

	case *ast.WhileStmt:
		indent(w, depth)
		w.WriteString("while (")
		e.writeExpr(w, s.Condition, false)
		w.WriteString(") {\n")
		e.writeBlock(w, s.Body, depth+1)
		indent(w, depth)
		w.WriteString("}\n")

	case *ast.ForStmt:
		indent(w, depth)
		w.WriteString("for (")
		switch init := s.Init.(type) {
		case *ast.VarDeclStmt:
			fmt.Fprintf(w, "%s %s", cType(init.Type.Type), init.Name)
			if init.Initializer != nil {
				w.WriteString(" = ")
				e.writeExpr(w, init.Initializer, false)
			}
		case *ast.ExprStmt:
			e.writeExpr(w, init.X, false)
		}
		w.WriteString("; ")
		if s.Condition != nil {
			e.writeExpr(w, s.Condition, false)
		}
		w.WriteString("; ")
		if s.Update != nil {
			e.writeExpr(w, s.Update, false)
		}
		w.WriteString(") {\n")
		e.writeBlock(w, s.Body, depth+1)
		indent(w, depth)
		w.WriteString("}\n")

	case *ast.BlockStmt:
		indent(w, depth)
		w.WriteString("{\n")
		e.writeBlock(w, s.Body, depth+1)
		indent(w, depth)
		w.WriteString("}\n")

	case *ast.DbgStmt:
		e.writeDbg(w, s, depth)

	default:
		panic(fmt.Sprintf("emitc: unhandled statement type %T", stmt))
	}
}

// writeExpr renders expr into w. parenthesizeAssign controls whether
// an assignment sub-expression gets an extra wrapping parenthesis pair
// so its value-producing semantics survive when nested inside another
// expression (spec.md §4.8); it is false only at statement-level use.
func (e *emitter) writeExpr(w *strings.Builder, expr ast.Expr, parenthesizeAssign bool) {
	switch x := expr.(type) {
	case *ast.IntLiteral:
		fmt.Fprintf(w, "%d", x.Value)

	case *ast.BoolLiteral:
		if x.Value {
			w.WriteString("true")
		} else {
			w.WriteString("false")
		}

	case *ast.VarExpr:
		w.WriteString(x.Name)

	case *ast.BinaryExpr:
		if x.Op == ast.OpAssign {
			if parenthesizeAssign {
				w.WriteString("(")
			}
			e.writeExpr(w, x.Left, false)
			w.WriteString(" = ")
			e.writeExpr(w, x.Right, true)
			if parenthesizeAssign {
				w.WriteString(")")
			}
			return
		}
		w.WriteString("(")
		e.writeExpr(w, x.Left, true)
		fmt.Fprintf(w, " %s ", x.Op.String())
		e.writeExpr(w, x.Right, true)
		w.WriteString(")")

	case *ast.UnaryExpr:
		w.WriteString("(")
		w.WriteString(x.Op.String())
		e.writeExpr(w, x.Operand, true)
		w.WriteString(")")

	case *ast.CallExpr:
		w.WriteString(mangle(x.ResolvedTargetName))
		w.WriteString("(")
		for i, arg := range x.Args {
			if i > 0 {
				w.WriteString(", ")
			}
			e.writeExpr(w, arg, true)
		}
		w.WriteString(")")

	default:
		panic(fmt.Sprintf("emitc: unhandled expression type %T", expr))
	}
}

// writeDbg lowers one dbg(...) statement to a temp-hoisting prologue
// (so call-argument evaluation happens exactly once, in order) plus a
// single printf, per spec.md §4.8.
func (e *emitter) writeDbg(w *strings.Builder, s *ast.DbgStmt, depth int) {
	type printArg struct {
		label string
		typ   ast.Type
		text  string
	}
	var args []printArg

	for _, a := range s.Args {
		if call, ok := a.Value.(*ast.CallExpr); ok {
			tmpName := fmt.Sprintf("__dbg_tmp_%d", e.tmpNext)
			e.tmpNext++
			indent(w, depth)
			fmt.Fprintf(w, "%s %s = ", cType(call.ResolvedType()), tmpName)
			e.writeExpr(w, call, false)
			w.WriteString(";\n")
			args = append(args, printArg{label: a.Label, typ: call.ResolvedType(), text: tmpName})
			continue
		}
		var captured strings.Builder
		e.writeExpr(&captured, a.Value, true)
		args = append(args, printArg{label: a.Label, typ: a.Value.ResolvedType(), text: captured.String()})
	}

	var format strings.Builder
	fmt.Fprintf(&format, "%s:%d:%d: ", e.file, s.Location.Line, s.Location.Column)
	for i, a := range args {
		if i > 0 {
			format.WriteString(", ")
		}
		format.WriteString(escapePercent(a.label))
		format.WriteString(" = ")
		format.WriteString(formatSpecifier(a.typ))
	}
	format.WriteString("\n")

	indent(w, depth)
	fmt.Fprintf(w, "printf(%q", format.String())
	for _, a := range args {
		w.WriteString(", ")
		w.WriteString(castForFormat(a.typ, a.text))
	}
	w.WriteString(");\n")
}

func escapePercent(label string) string {
	return strings.ReplaceAll(label, "%", "%%")
}

// formatSpecifier picks the printf conversion for a resolved type, per
// spec.md §4.8: %d for <=32-bit signed, %lld for i64, %u for <=32-bit
// unsigned, %llu for u64, %s for bool.
func formatSpecifier(t ast.Type) string {
	switch t {
	case ast.I64:
		return "%lld"
	case ast.U64:
		return "%llu"
	case ast.Bool:
		return "%s"
	default:
		if t.IsSigned() {
			return "%d"
		}
		return "%u"
	}
}

// castForFormat wraps a value expression with the cast its format
// specifier demands.
func castForFormat(t ast.Type, text string) string {
	switch t {
	case ast.I64:
		return "(long long)(" + text + ")"
	case ast.U64:
		return "(unsigned long long)(" + text + ")"
	case ast.Bool:
		return "((" + text + ") ? \"true\" : \"false\")"
	default:
		if t.IsSigned() {
			return text
		}
		return "(unsigned int)(" + text + ")"
	}
}

// mangle transforms a qualified `module:name` call target into a
// legal C identifier, per spec.md §4.8.
func mangle(name string) string {
	return strings.ReplaceAll(name, ":", "_")
}

func cType(t ast.Type) string {
	switch t {
	case ast.I8:
		return "int8_t"
	case ast.I16:
		return "int16_t"
	case ast.I32:
		return "int32_t"
	case ast.I64:
		return "int64_t"
	case ast.U8:
		return "uint8_t"
	case ast.U16:
		return "uint16_t"
	case ast.U32:
		return "uint32_t"
	case ast.U64:
		return "uint64_t"
	case ast.Bool:
		return "_Bool"
	default:
		return "void"
	}
}
