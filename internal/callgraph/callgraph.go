// Package callgraph builds the caller/callee relation over a merged
// program's functions and answers reachability queries from the entry
// point (spec.md §4.6 / component C8).
package callgraph

import (
	"strings"

	"github.com/casm-lang/casmc/internal/ast"
)

// Graph is the call graph: one node per function, with deduplicated
// outgoing edges. EntryPointID is 0 when no `main` function exists.
type Graph struct {
	nodeOf       map[uint32]*ast.Function
	edges        map[uint32]map[uint32]struct{} // caller id -> set of callee ids
	EntryPointID uint32
}

// Build walks every function body in prog and records, for each call
// site, an edge from the enclosing function to *every* function
// sharing the call's name (for a qualified `module:name` call, the
// part after the colon) — conservative on purpose, since name
// allocation hasn't deduplicated homonyms yet and diagnostic
// reachability must still treat them all as potential targets.
func Build(prog *ast.Program) *Graph {
	g := &Graph{
		nodeOf: make(map[uint32]*ast.Function, len(prog.Functions)),
		edges:  make(map[uint32]map[uint32]struct{}, len(prog.Functions)),
	}

	byName := make(map[string][]uint32)
	for _, fn := range prog.Functions {
		g.nodeOf[fn.SymbolID] = fn
		byName[fn.Name] = append(byName[fn.Name], fn.SymbolID)
		if fn.Name == "main" && g.EntryPointID == 0 {
			g.EntryPointID = fn.SymbolID
		}
	}

	for _, fn := range prog.Functions {
		calls := make(map[string]struct{})
		collectCallsBlock(fn.Body, calls)
		for name := range calls {
			if i := strings.LastIndexByte(name, ':'); i >= 0 {
				name = name[i+1:]
			}
			for _, calleeID := range byName[name] {
				g.addEdge(fn.SymbolID, calleeID)
			}
		}
	}

	return g
}

func (g *Graph) addEdge(caller, callee uint32) {
	set, ok := g.edges[caller]
	if !ok {
		set = make(map[uint32]struct{})
		g.edges[caller] = set
	}
	set[callee] = struct{}{}
}

func collectCallsBlock(block ast.Block, out map[string]struct{}) {
	for _, stmt := range block.Statements {
		collectCallsStmt(stmt, out)
	}
}

func collectCallsStmt(stmt ast.Stmt, out map[string]struct{}) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		collectCallsExpr(s.Value, out)
	case *ast.ExprStmt:
		collectCallsExpr(s.X, out)
	case *ast.VarDeclStmt:
		collectCallsExpr(s.Initializer, out)
	case *ast.IfStmt:
		collectCallsExpr(s.Condition, out)
		collectCallsBlock(s.Then, out)
		for _, elif := range s.ElseIfs {
			collectCallsExpr(elif.Condition, out)
			collectCallsBlock(elif.Body, out)
		}
		if s.Else != nil {
			collectCallsBlock(*s.Else, out)
		}
	case *ast.WhileStmt:
		collectCallsExpr(s.Condition, out)
		collectCallsBlock(s.Body, out)
	case *ast.ForStmt:
		if s.Init != nil {
			collectCallsStmt(s.Init, out)
		}
		collectCallsExpr(s.Condition, out)
		collectCallsExpr(s.Update, out)
		collectCallsBlock(s.Body, out)
	case *ast.BlockStmt:
		collectCallsBlock(s.Body, out)
	case *ast.DbgStmt:
		for _, arg := range s.Args {
			collectCallsExpr(arg.Value, out)
		}
	}
}

func collectCallsExpr(expr ast.Expr, out map[string]struct{}) {
	switch e := expr.(type) {
	case nil:
	case *ast.BinaryExpr:
		collectCallsExpr(e.Left, out)
		collectCallsExpr(e.Right, out)
	case *ast.UnaryExpr:
		collectCallsExpr(e.Operand, out)
	case *ast.CallExpr:
		out[e.Callee] = struct{}{}
		for _, arg := range e.Args {
			collectCallsExpr(arg, out)
		}
	}
}

// Reachable returns the set of symbol ids reachable from the entry
// point via breadth-first traversal, or an empty set if there is no
// `main` function.
func (g *Graph) Reachable() map[uint32]struct{} {
	visited := make(map[uint32]struct{})
	if g.EntryPointID == 0 {
		return visited
	}

	queue := []uint32{g.EntryPointID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		for callee := range g.edges[id] {
			if _, seen := visited[callee]; !seen {
				queue = append(queue, callee)
			}
		}
	}
	return visited
}

// Function returns the function node for id, or nil if unknown.
func (g *Graph) Function(id uint32) *ast.Function {
	return g.nodeOf[id]
}
