// Package sema implements the two-pass semantic analyzer spec.md §4.5
// describes (component C7): function collection, then per-function
// body analysis against the symbol table and integer conversion law
// from internal/types.
package sema

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/diagnostic"
	"github.com/casm-lang/casmc/internal/types"
)

// Analyze runs both passes over prog, reporting every detectable error
// in diags rather than stopping at the first. It returns the symbol
// table it built, which internal/callgraph and internal/namealloc do
// not need but internal/emitc/internal/emitwat may consult for
// function signatures.
func Analyze(file string, prog *ast.Program) (*types.Table, *diagnostic.Bag) {
	diags := diagnostic.NewBag()
	table := types.NewTable()

	a := &analyzer{file: file, table: table, diags: diags, currentModule: file}
	a.collectFunctions(prog)
	if diags.HasErrors() {
		return table, diags
	}
	a.validateFunctions(prog)
	return table, diags
}

type analyzer struct {
	file          string
	table         *types.Table
	diags         *diagnostic.Bag
	currentModule string
}

// errorf reports a diagnostic against a.currentModule, the module path
// of the function currently being analyzed — not a.file, the single
// entry path Analyze was called with — so errors in an imported
// module's function are attributed to that module rather than to
// whichever file happened to be the compilation's entry point.
func (a *analyzer) errorf(loc ast.SourceLocation, format string, args ...any) {
	a.diags.Errorf(a.currentModule, loc.Line, loc.Column, format, args...)
}

// collectFunctions is pass 1: register every function's signature
// before any body is analyzed, so forward references and mutual
// recursion resolve correctly.
func (a *analyzer) collectFunctions(prog *ast.Program) {
	for _, fn := range prog.Functions {
		a.currentModule = fn.ModulePath
		paramTypes := make([]ast.Type, len(fn.Parameters))
		for i, p := range fn.Parameters {
			paramTypes[i] = p.Type.Type
		}
		sym := &types.FunctionSymbol{
			Name:       fn.Name,
			ModulePath: fn.ModulePath,
			Basename:   basename(fn.ModulePath),
			ReturnType: fn.ReturnType.Type,
			ParamTypes: paramTypes,
			Location:   fn.Location,
		}
		if !a.table.AddFunction(sym) {
			a.errorf(fn.Location, "function '%s' already defined", fn.Name)
		}
	}
}

// basename returns a module path's file stem, matching how the parser
// desugars `# import "path"` and the name allocator derives mangling
// prefixes, so a qualified call's `alias:name` form resolves against
// the same identifier a shorthand import would have bound.
func basename(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// validateFunctions is pass 2: walk every function body, pushing a
// parameter scope then descending through blocks and statements.
func (a *analyzer) validateFunctions(prog *ast.Program) {
	for _, fn := range prog.Functions {
		a.currentModule = fn.ModulePath
		a.table.PushScope()
		for _, p := range fn.Parameters {
			if !a.table.DeclareVariable(&types.VariableSymbol{Name: p.Name, Type: p.Type.Type, Location: p.Location}) {
				a.errorf(p.Location, "variable '%s' already declared in this scope", p.Name)
			}
			a.table.MarkInitialized(p.Name)
		}
		a.analyzeBlock(fn.Body, fn.ReturnType.Type)
		a.table.PopScope()
	}
}

func (a *analyzer) analyzeBlock(block ast.Block, returnType ast.Type) {
	a.table.PushScope()
	for _, stmt := range block.Statements {
		a.analyzeStatement(stmt, returnType)
	}
	a.table.PopScope()
}

func (a *analyzer) analyzeStatement(stmt ast.Stmt, returnType ast.Type) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		if s.Value != nil {
			exprType := a.analyzeExpr(s.Value)
			if !types.Compatible(exprType, returnType) {
				a.errorf(s.Location, "return type mismatch: expected %s", returnType)
			}
		} else if returnType != ast.Void {
			a.errorf(s.Location, "function must return a value of type %s", returnType)
		}

	case *ast.VarDeclStmt:
		if !a.table.DeclareVariable(&types.VariableSymbol{Name: s.Name, Type: s.Type.Type, Location: s.Location}) {
			a.errorf(s.Location, "variable '%s' already declared in this scope", s.Name)
		}
		if s.Initializer != nil {
			initType := a.analyzeExpr(s.Initializer)
			if !types.Compatible(initType, s.Type.Type) {
				a.errorf(s.Location, "initializer type mismatch for '%s'", s.Name)
			}
			a.table.MarkInitialized(s.Name)
		}

	case *ast.ExprStmt:
		a.analyzeExpr(s.X)

	case *ast.IfStmt:
		if t := a.analyzeExpr(s.Condition); t != ast.Bool {
			a.errorf(s.Condition.Loc(), "if condition must have bool type")
		}
		a.analyzeBlock(s.Then, returnType)
		for _, elif := range s.ElseIfs {
			if t := a.analyzeExpr(elif.Condition); t != ast.Bool {
				a.errorf(elif.Condition.Loc(), "else-if condition must have bool type")
			}
			a.analyzeBlock(elif.Body, returnType)
		}
		if s.Else != nil {
			a.analyzeBlock(*s.Else, returnType)
		}

	case *ast.WhileStmt:
		if t := a.analyzeExpr(s.Condition); t != ast.Bool {
			a.errorf(s.Condition.Loc(), "while condition must have bool type")
		}
		a.analyzeBlock(s.Body, returnType)

	case *ast.ForStmt:
		a.table.PushScope()
		if s.Init != nil {
			a.analyzeStatement(s.Init, returnType)
		}
		if s.Condition != nil {
			if t := a.analyzeExpr(s.Condition); t != ast.Bool {
				a.errorf(s.Condition.Loc(), "for loop condition must have bool type")
			}
		}
		if s.Update != nil {
			a.analyzeExpr(s.Update)
		}
		a.analyzeBlock(s.Body, returnType)
		a.table.PopScope()

	case *ast.BlockStmt:
		a.analyzeBlock(s.Body, returnType)

	case *ast.DbgStmt:
		for _, arg := range s.Args {
			a.analyzeExpr(arg.Value)
		}

	default:
		panic(fmt.Sprintf("sema: unhandled statement type %T", stmt))
	}
}

func (a *analyzer) analyzeExpr(expr ast.Expr) ast.Type {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		e.SetResolvedType(ast.I64)
		return ast.I64

	case *ast.BoolLiteral:
		e.SetResolvedType(ast.Bool)
		return ast.Bool

	case *ast.VarExpr:
		v := a.table.LookupVariable(e.Name)
		if v == nil {
			a.errorf(e.Location, "undefined variable '%s'", e.Name)
			e.SetResolvedType(ast.Void)
			return ast.Void
		}
		if !v.Initialized {
			a.errorf(e.Location, "variable '%s' used before initialization", e.Name)
		}
		e.SetResolvedType(v.Type)
		return v.Type

	case *ast.BinaryExpr:
		return a.analyzeBinary(e)

	case *ast.UnaryExpr:
		operandType := a.analyzeExpr(e.Operand)
		switch e.Op {
		case ast.OpNeg:
			if !operandType.IsNumeric() {
				a.errorf(e.Location, "unary negation requires a numeric operand")
			}
		case ast.OpNot:
			if operandType != ast.Bool {
				a.errorf(e.Location, "logical not requires a bool operand")
			}
		}
		result := types.UnaryResultType(e.Op, operandType)
		e.SetResolvedType(result)
		return result

	case *ast.CallExpr:
		return a.analyzeCall(e)

	default:
		panic(fmt.Sprintf("sema: unhandled expression type %T", expr))
	}
}

// analyzeBinary mirrors semantics.c's special-cased assignment path:
// the left-hand side's initialization is never checked (it is being
// defined, not read), and the right-hand side is always analyzed so
// its own errors surface even when the left side is invalid.
func (a *analyzer) analyzeBinary(e *ast.BinaryExpr) ast.Type {
	if e.Op == ast.OpAssign {
		var leftType ast.Type
		varExpr, isVar := e.Left.(*ast.VarExpr)
		if !isVar {
			a.errorf(e.Location, "left-hand side of assignment must be a variable")
			leftType = ast.Void
		} else if v := a.table.LookupVariable(varExpr.Name); v == nil {
			a.errorf(varExpr.Location, "undefined variable '%s'", varExpr.Name)
			leftType = ast.Void
		} else {
			leftType = v.Type
			varExpr.SetResolvedType(v.Type)
		}

		rightType := a.analyzeExpr(e.Right)
		if leftType != ast.Void && !types.Compatible(rightType, leftType) {
			a.errorf(e.Location, "assignment type mismatch")
		}
		if isVar {
			a.table.MarkInitialized(varExpr.Name)
		}
		e.SetResolvedType(leftType)
		return leftType
	}

	leftType := a.analyzeExpr(e.Left)
	rightType := a.analyzeExpr(e.Right)

	switch {
	case e.Op.IsArithmetic():
		if !leftType.IsNumeric() || !rightType.IsNumeric() {
			a.errorf(e.Location, "arithmetic operators require numeric operands")
			e.SetResolvedType(ast.Void)
			return ast.Void
		}
		if !types.Compatible(leftType, rightType) && !types.Compatible(rightType, leftType) {
			a.errorf(e.Location, "operands must have compatible types")
			e.SetResolvedType(ast.Void)
			return ast.Void
		}
	case e.Op.IsRelational():
		if !leftType.IsNumeric() || !rightType.IsNumeric() {
			a.errorf(e.Location, "comparison operators require numeric operands")
			e.SetResolvedType(ast.Bool)
			return ast.Bool
		}
		if !types.Compatible(leftType, rightType) && !types.Compatible(rightType, leftType) {
			a.errorf(e.Location, "operands must have compatible types")
			e.SetResolvedType(ast.Bool)
			return ast.Bool
		}
	case e.Op.IsLogical():
		if leftType != ast.Bool {
			a.errorf(e.Location, "logical and/or require boolean operands")
		}
		if rightType != ast.Bool {
			a.errorf(e.Location, "logical and/or require boolean operands")
		}
	}

	result := types.BinaryResultType(e.Op, leftType, rightType)
	// A bare integer literal operand takes the other operand's type, so
	// `x + 1` keeps x's type instead of widening to the literal's i64.
	if e.Op.IsArithmetic() {
		if _, ok := e.Right.(*ast.IntLiteral); ok {
			result = leftType
		} else if _, ok := e.Left.(*ast.IntLiteral); ok {
			result = rightType
		}
	}
	e.SetResolvedType(result)
	return result
}

func (a *analyzer) analyzeCall(e *ast.CallExpr) ast.Type {
	fn := a.table.LookupFunction(e.Callee, a.currentModule)
	if fn == nil {
		a.errorf(e.Location, "undefined function '%s'", e.Callee)
		e.SetResolvedType(ast.Void)
		return ast.Void
	}

	if len(e.Args) != len(fn.ParamTypes) {
		a.errorf(e.Location, "function '%s' expects %d arguments, got %d", e.Callee, len(fn.ParamTypes), len(e.Args))
	}

	for i, arg := range e.Args {
		argType := a.analyzeExpr(arg)
		if i < len(fn.ParamTypes) && !types.Compatible(argType, fn.ParamTypes[i]) {
			a.errorf(arg.Loc(), "argument %d type mismatch", i+1)
		}
	}

	// Record which specific definition this call site resolved to so
	// name allocation (C9) can precompute the emitted target without
	// re-running the same-module-preferred lookup at emit time.
	e.ResolvedModulePath = fn.ModulePath
	e.ResolvedOriginalName = fn.Name

	e.SetResolvedType(fn.ReturnType)
	return fn.ReturnType
}
