// Package loader resolves a CASM source file's import graph into one
// merged ast.Program (spec.md §4.3 / component C5). It mirrors the
// cache-plus-chain algorithm of the original module loader this
// compiler descends from: a path-keyed cache for DAG sharing and an
// import-chain stack held only for the duration of one top-down
// traversal, used to detect cycles structurally rather than by depth
// limit or timeout.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/diagnostic"
	"github.com/casm-lang/casmc/internal/parser"
)

// cacheEntry is one loaded file: its source bytes and parsed AST, kept
// alive for the merged program's lifetime through its SourceCache
// field, since the merged program shares the per-file AST nodes.
type cacheEntry struct {
	absPath string
	source  []byte
	file    *ast.Program
}

// Cache is the module cache: absolute path → loaded file, plus the
// insertion order (post-order over the import DAG) that later phases
// rely on for deterministic function ordering.
type Cache struct {
	byPath map[string]*cacheEntry
	order  []*cacheEntry
}

// Load resolves entryPath and every file it (transitively) imports,
// returning one merged Program whose Functions list is the
// concatenation of every file's functions in cache-insertion
// (post-order) order, and whose Imports list is the entry file's own
// imports verbatim, per spec.md §4.3. The merged Program's SourceCache
// field holds the Cache so the source buffers and per-file ASTs stay
// reachable for the program's lifetime.
func Load(entryPath string) (*ast.Program, *diagnostic.Bag, error) {
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot resolve path %q: %w", entryPath, err)
	}

	cache := &Cache{byPath: make(map[string]*cacheEntry)}
	diags := diagnostic.NewBag()
	var chain []string

	entry, err := loadRecursive(cache, diags, &chain, abs)
	if err != nil {
		return nil, diags, err
	}

	merged := &ast.Program{
		Imports:     entry.file.Imports,
		SourceCache: cache,
	}
	var nextID uint32 = 1
	for _, e := range cache.order {
		for _, fn := range e.file.Functions {
			fn.SymbolID = nextID
			nextID++
		}
		merged.Functions = append(merged.Functions, e.file.Functions...)
	}
	return merged, diags, nil
}

func loadRecursive(cache *Cache, diags *diagnostic.Bag, chain *[]string, absPath string) (*cacheEntry, error) {
	if inChain(*chain, absPath) {
		return nil, fmt.Errorf("circular import detected: %s", absPath)
	}
	if e, ok := cache.byPath[absPath]; ok {
		return e, nil
	}

	*chain = append(*chain, absPath)
	defer func() { *chain = (*chain)[:len(*chain)-1] }()

	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open file '%s': %w", absPath, err)
	}

	file, fileDiags := parser.Parse(absPath, source)
	diags.Merge(fileDiags)
	if fileDiags.HasErrors() {
		first := fileDiags.All()[0]
		return nil, fmt.Errorf("%s (line %d)", first.Message, first.Line)
	}

	dir := filepath.Dir(absPath)
	for _, imp := range file.Imports {
		importedPath, err := resolvePath(dir, imp.Path)
		if err != nil {
			return nil, err
		}
		if _, err := loadRecursive(cache, diags, chain, importedPath); err != nil {
			return nil, err
		}
	}

	for _, fn := range file.Functions {
		fn.OriginalName = fn.Name
		fn.ModulePath = absPath
	}

	entry := &cacheEntry{absPath: absPath, source: source, file: file}
	cache.byPath[absPath] = entry
	cache.order = append(cache.order, entry)
	return entry, nil
}

// resolvePath implements spec.md §4.3's path resolution: an absolute
// import path is used verbatim; a relative one resolves against the
// importing file's directory and is canonicalized (`.`/`..` removed).
func resolvePath(relativeToDir, importPath string) (string, error) {
	if filepath.IsAbs(importPath) {
		return filepath.Clean(importPath), nil
	}
	joined := filepath.Join(relativeToDir, importPath)
	return filepath.Clean(joined), nil
}

func inChain(chain []string, path string) bool {
	for _, p := range chain {
		if p == path {
			return true
		}
	}
	return false
}
