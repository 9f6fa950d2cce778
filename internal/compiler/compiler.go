// Package compiler wires the pipeline stages (C1–C11) into one call,
// per spec.md §4.10 / component C12: load, analyze, build the call
// graph, allocate names, then emit. It is the Go counterpart of the
// teacher's cmd/dingo/main.go buildFile orchestration, generalized
// from a single preprocess-then-parse step into the full multi-phase
// CASM pipeline and instrumented with internal/clog tracing instead of
// ad hoc fmt.Printf step reporting.
package compiler

import (
	"fmt"
	"time"

	"github.com/casm-lang/casmc/internal/callgraph"
	"github.com/casm-lang/casmc/internal/clog"
	"github.com/casm-lang/casmc/internal/diagnostic"
	"github.com/casm-lang/casmc/internal/emitc"
	"github.com/casm-lang/casmc/internal/emitwat"
	"github.com/casm-lang/casmc/internal/loader"
	"github.com/casm-lang/casmc/internal/namealloc"
	"github.com/casm-lang/casmc/internal/sema"
	"github.com/casm-lang/casmc/internal/sourcemap"
)

// Target selects the emitted backend.
type Target int

const (
	TargetWAT Target = iota
	TargetC
)

// ParseTarget converts a CLI/config target string into a Target,
// defaulting to an error for anything but "c" and "wat".
func ParseTarget(s string) (Target, error) {
	switch s {
	case "", "wat":
		return TargetWAT, nil
	case "c":
		return TargetC, nil
	default:
		return 0, fmt.Errorf("invalid target %q: must be \"c\" or \"wat\"", s)
	}
}

func (t Target) String() string {
	if t == TargetC {
		return "c"
	}
	return "wat"
}

// Options configures one Compile call.
type Options struct {
	Target    Target
	Logger    clog.Logger
	Sourcemap bool
}

// Result is the successful output of a compilation.
type Result struct {
	Output    string
	Target    Target
	Sourcemap *sourcemap.Map // nil unless Options.Sourcemap was set
}

// Compile runs the full pipeline against entryPath: load → analyze →
// build the call graph → allocate names → emit. Diagnostics collected
// along the way are always returned, even on failure, so a caller can
// print every detectable problem rather than just the first. Emission
// only happens once analysis reports no errors (spec.md §7: semantic
// errors abort before code generation).
func Compile(entryPath string, opts Options) (*Result, []diagnostic.Diagnostic, error) {
	log := opts.Logger
	if log == nil {
		log = clog.NewNop()
	}

	start := time.Now()
	prog, diags, err := loader.Load(entryPath)
	if err != nil {
		log.Errorw("load failed", "file", entryPath, "error", err)
		return nil, diagsOrEmpty(diags), err
	}
	log.Debugw("loaded", "functions", len(prog.Functions), "elapsed", time.Since(start))

	start = time.Now()
	_, semaDiags := sema.Analyze(entryPath, prog)
	diags.Merge(semaDiags)
	if semaDiags.HasErrors() {
		log.Warnw("semantic analysis failed", "errors", semaDiags.Len())
		return nil, diags.All(), fmt.Errorf("semantic analysis failed with %d error(s)", countErrors(semaDiags))
	}
	log.Debugw("analyzed", "elapsed", time.Since(start))

	start = time.Now()
	graph := callgraph.Build(prog)
	reachable := graph.Reachable()
	log.Debugw("call graph built", "reachable", len(reachable), "elapsed", time.Since(start))

	start = time.Now()
	namealloc.Allocate(prog, graph)
	log.Debugw("names allocated", "elapsed", time.Since(start))

	start = time.Now()
	var output string
	var smap *sourcemap.Map
	switch opts.Target {
	case TargetC:
		output, smap = emitc.EmitWithMap(entryPath, prog, opts.Sourcemap)
	default:
		output, smap = emitwat.EmitWithMap(entryPath, prog, opts.Sourcemap)
	}
	log.Debugw("emitted", "target", opts.Target, "bytes", len(output), "elapsed", time.Since(start))

	return &Result{Output: output, Target: opts.Target, Sourcemap: smap}, diags.All(), nil
}

func countErrors(diags *diagnostic.Bag) int {
	n := 0
	for _, d := range diags.All() {
		if d.Severity == diagnostic.SeverityError {
			n++
		}
	}
	return n
}

func diagsOrEmpty(diags *diagnostic.Bag) []diagnostic.Diagnostic {
	if diags == nil {
		return nil
	}
	return diags.All()
}
