// Package types implements the symbol table and integer conversion law
// spec.md §4.4 (component C6) describes: a stack of lexical scopes for
// variables and a single flat table for functions.
package types

import "github.com/casm-lang/casmc/internal/ast"

// FunctionSymbol records one function's signature for call-site checks.
// ModulePath and Basename identify which file the function came from, so
// the table can hold two functions of the same Name defined in different
// modules (spec.md §9's cross-module homonym scenario) while still
// rejecting a true duplicate definition within one file.
type FunctionSymbol struct {
	Name       string
	ModulePath string
	Basename   string
	ReturnType ast.Type
	ParamTypes []ast.Type
	Location   ast.SourceLocation
}

// VariableSymbol records one variable's declared type and whether it
// has been definitely assigned yet.
type VariableSymbol struct {
	Name        string
	Type        ast.Type
	Location    ast.SourceLocation
	Initialized bool
}

// scope holds the variables introduced in one lexical block. Scopes
// chain to their parent for outward lookup, mirroring the original
// symbol table's linked Scope structure.
type scope struct {
	variables map[string]*VariableSymbol
	order     []string
	parent    *scope
}

func newScope(parent *scope) *scope {
	return &scope{variables: make(map[string]*VariableSymbol), parent: parent}
}

// Table is the symbol table for one compilation: function symbols
// (keyed by name, with every module's definition kept side by side)
// plus the active scope stack during body analysis.
type Table struct {
	functions map[string][]*FunctionSymbol // name -> one entry per defining module
	order     []*FunctionSymbol
	current   *scope
}

// NewTable returns an empty symbol table with no active scope.
func NewTable() *Table {
	return &Table{functions: make(map[string][]*FunctionSymbol)}
}

// AddFunction registers a function symbol. Reports false only when
// another function of the same Name was already registered from the
// *same* ModulePath — a true redefinition. Two modules defining the
// same name is not a duplicate; it is resolved later by LookupFunction
// and, for emission, by internal/namealloc.
func (t *Table) AddFunction(sym *FunctionSymbol) bool {
	for _, existing := range t.functions[sym.Name] {
		if existing.ModulePath == sym.ModulePath {
			return false
		}
	}
	t.functions[sym.Name] = append(t.functions[sym.Name], sym)
	t.order = append(t.order, sym)
	return true
}

// LookupFunction resolves a call-site name from the perspective of a
// function defined in callerModule. A qualified name ("alias:name")
// selects the module whose basename equals alias. An unqualified name
// prefers a same-module definition, falling back to the first
// registered definition from another module (spec.md §9: "preferring
// same-module for homonyms").
func (t *Table) LookupFunction(name, callerModule string) *FunctionSymbol {
	if alias, plain, ok := splitQualified(name); ok {
		for _, sym := range t.functions[plain] {
			if sym.Basename == alias {
				return sym
			}
		}
		return nil
	}

	candidates := t.functions[name]
	if len(candidates) == 0 {
		return nil
	}
	for _, sym := range candidates {
		if sym.ModulePath == callerModule {
			return sym
		}
	}
	return candidates[0]
}

// splitQualified splits "alias:name" into its two parts. ok is false
// for an unqualified name.
func splitQualified(name string) (alias, plain string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i], name[i+1:], true
		}
	}
	return "", name, false
}

// PushScope opens a new lexical scope nested inside the current one.
func (t *Table) PushScope() {
	t.current = newScope(t.current)
}

// PopScope closes the innermost scope, returning to its parent.
func (t *Table) PopScope() {
	if t.current != nil {
		t.current = t.current.parent
	}
}

// DeclareVariable adds a variable to the current scope. Reports false
// if a variable with the same name already exists in *this* scope
// (shadowing an outer scope's variable is allowed; redeclaring in the
// same scope is a duplicate-declaration error per spec.md §4.5).
func (t *Table) DeclareVariable(sym *VariableSymbol) bool {
	if t.current == nil {
		t.PushScope()
	}
	if _, exists := t.current.variables[sym.Name]; exists {
		return false
	}
	t.current.variables[sym.Name] = sym
	t.current.order = append(t.current.order, sym.Name)
	return true
}

// LookupVariable walks the scope stack from innermost to outermost,
// returning the first match or nil if undeclared anywhere in scope.
func (t *Table) LookupVariable(name string) *VariableSymbol {
	for s := t.current; s != nil; s = s.parent {
		if v, ok := s.variables[name]; ok {
			return v
		}
	}
	return nil
}

// MarkInitialized flips a variable's initialized flag once its first
// assignment (or its declaration's initializer) has been analyzed.
func (t *Table) MarkInitialized(name string) {
	if v := t.LookupVariable(name); v != nil {
		v.Initialized = true
	}
}
