// Package namealloc assigns every reachable function a program-wide
// unique allocated name, following the three-priority algorithm
// spec.md §4.7 (component C9) describes. It is grounded directly on
// the original compiler's name_allocator.c: a conflict check against
// every other reachable function before trying the bare original
// name, then module-basename mangling, then a numbered suffix. It also
// carries out the per-call-site resolution spec.md §9 assigns to this
// pass: each CallExpr's sema-chosen target is translated into the
// target's final SymbolID and AllocatedName.
package namealloc

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/callgraph"
)

const maxSuffixAttempts = 100

// record tracks one function's allocation progress.
type record struct {
	fn           *ast.Function
	originalName string
	modulePath   string
}

// Allocate assigns AllocatedName on every function in prog.Functions
// reachable from main per graph, leaving unreachable functions with an
// empty AllocatedName (dead-code elision for the emitters). Allocation
// order follows prog.Functions' order, which the loader guarantees is
// stable post-order, so the result is deterministic.
func Allocate(prog *ast.Program, graph *callgraph.Graph) {
	reachable := graph.Reachable()

	var records []*record
	for _, fn := range prog.Functions {
		if _, ok := reachable[fn.SymbolID]; !ok {
			continue
		}
		records = append(records, &record{fn: fn, originalName: fn.OriginalName, modulePath: fn.ModulePath})
	}

	used := make(map[string]struct{}, len(records))

	for _, r := range records {
		if hasConflict(records, r) {
			assignMangled(r, used)
		} else if !tryAllocate(r.fn, r.originalName, used) {
			assignMangled(r, used)
		}
	}

	resolveCalls(records)
}

// resolveCalls precomputes every call site's emitted target, per
// spec.md §9's guidance to store a resolved symbol id on each call
// node instead of re-scanning the function list at emit time. The
// target was already chosen by sema (ResolvedModulePath /
// ResolvedOriginalName); this pass just looks up that function's
// SymbolID and AllocatedName among the reachable set.
func resolveCalls(records []*record) {
	byModuleName := make(map[string]*record, len(records))
	for _, r := range records {
		byModuleName[r.modulePath+"\x00"+r.originalName] = r
	}
	for _, r := range records {
		resolveCallsBlock(r.fn.Body, byModuleName)
	}
}

func resolveCallsBlock(block ast.Block, byModuleName map[string]*record) {
	for _, stmt := range block.Statements {
		resolveCallsStmt(stmt, byModuleName)
	}
}

func resolveCallsStmt(stmt ast.Stmt, byModuleName map[string]*record) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		resolveCallsExpr(s.Value, byModuleName)
	case *ast.ExprStmt:
		resolveCallsExpr(s.X, byModuleName)
	case *ast.VarDeclStmt:
		resolveCallsExpr(s.Initializer, byModuleName)
	case *ast.IfStmt:
		resolveCallsExpr(s.Condition, byModuleName)
		resolveCallsBlock(s.Then, byModuleName)
		for _, elif := range s.ElseIfs {
			resolveCallsExpr(elif.Condition, byModuleName)
			resolveCallsBlock(elif.Body, byModuleName)
		}
		if s.Else != nil {
			resolveCallsBlock(*s.Else, byModuleName)
		}
	case *ast.WhileStmt:
		resolveCallsExpr(s.Condition, byModuleName)
		resolveCallsBlock(s.Body, byModuleName)
	case *ast.ForStmt:
		if s.Init != nil {
			resolveCallsStmt(s.Init, byModuleName)
		}
		resolveCallsExpr(s.Condition, byModuleName)
		resolveCallsExpr(s.Update, byModuleName)
		resolveCallsBlock(s.Body, byModuleName)
	case *ast.BlockStmt:
		resolveCallsBlock(s.Body, byModuleName)
	case *ast.DbgStmt:
		for _, arg := range s.Args {
			resolveCallsExpr(arg.Value, byModuleName)
		}
	}
}

func resolveCallsExpr(expr ast.Expr, byModuleName map[string]*record) {
	switch e := expr.(type) {
	case nil:
	case *ast.BinaryExpr:
		resolveCallsExpr(e.Left, byModuleName)
		resolveCallsExpr(e.Right, byModuleName)
	case *ast.UnaryExpr:
		resolveCallsExpr(e.Operand, byModuleName)
	case *ast.CallExpr:
		for _, arg := range e.Args {
			resolveCallsExpr(arg, byModuleName)
		}
		target, ok := byModuleName[e.ResolvedModulePath+"\x00"+e.ResolvedOriginalName]
		if !ok {
			// Callee is unreachable dead code (never reached from main)
			// or sema failed to resolve it; leave the call unresolved
			// so an emitter can treat it as unreachable rather than
			// guess at a name.
			return
		}
		e.ResolvedSymbolID = target.fn.SymbolID
		e.ResolvedTargetName = target.fn.AllocatedName
	}
}

// hasConflict reports whether another reachable function shares r's
// original name but comes from a different module — the check that
// forces both sides of a name collision to mangle symmetrically
// instead of letting whichever is processed first keep the bare name.
func hasConflict(records []*record, r *record) bool {
	for _, other := range records {
		if other == r {
			continue
		}
		if other.originalName == r.originalName && other.modulePath != r.modulePath {
			return true
		}
	}
	return false
}

// assignMangled tries priority 2 (`<basename>_<name>`), then priority
// 3 (`<basename>_<name>_<N>` for N = 2..100).
func assignMangled(r *record, used map[string]struct{}) {
	basename := extractBasename(r.modulePath)
	combined := basename + "_" + r.originalName
	if tryAllocate(r.fn, combined, used) {
		return
	}
	for n := 2; n <= maxSuffixAttempts; n++ {
		candidate := fmt.Sprintf("%s_%s_%d", basename, r.originalName, n)
		if tryAllocate(r.fn, candidate, used) {
			return
		}
	}
	// Exhausted every numbered suffix; leave unallocated rather than
	// silently emit a colliding name. This mirrors the original
	// allocator's safety-limited loop, which also gives up silently,
	// but we surface it as a still-empty AllocatedName so emitters
	// correctly treat the function as unemittable rather than guessing.
}

func tryAllocate(fn *ast.Function, name string, used map[string]struct{}) bool {
	if _, taken := used[name]; taken {
		return false
	}
	used[name] = struct{}{}
	fn.AllocatedName = name
	return true
}

// extractBasename returns a module path's file stem, discarding
// directory components and the extension, matching
// name_allocator.c's extract_basename.
func extractBasename(path string) string {
	if path == "" {
		return "unknown"
	}
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return "unknown"
	}
	return base
}
