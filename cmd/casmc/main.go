// Package main implements the casmc compiler CLI.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/casm-lang/casmc/internal/clog"
	"github.com/casm-lang/casmc/internal/compiler"
	"github.com/casm-lang/casmc/internal/config"
	"github.com/casm-lang/casmc/internal/diagnostic"
	"github.com/casm-lang/casmc/internal/loader"
	"github.com/casm-lang/casmc/internal/ui"
	"github.com/casm-lang/casmc/internal/workspace"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:     "casmc",
		Short:   "casmc - the CASM ahead-of-time compiler",
		Version: version,
		Long: `casmc compiles CASM source files (.csm) to either C source
text or WebAssembly text (WAT).`,
		SilenceUsage: true,
	}

	build := buildCmd()
	rootCmd.AddCommand(build)
	rootCmd.AddCommand(versionCmd())

	// A bare `casmc [flags] <file>` is shorthand for `casmc build`.
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return build.RunE(build, args)
	}
	rootCmd.Flags().AddFlagSet(build.Flags())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	var (
		target    string
		output    string
		watch     bool
		sourceMap bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "build [file.csm]",
		Short: "Compile a CASM source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], target, output, watch, sourceMap, verbose)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Emit target: \"c\" or \"wat\" (default from casm.toml, else wat)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: out.c / out.wat in the working directory)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch the entry file and its imports, rebuilding on change")
	cmd.Flags().BoolVar(&sourceMap, "sourcemap", false, "Emit a <output>.map alongside the compiled output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (development-mode) logging")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the casmc version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("casmc %s\n", version)
		},
	}
}

func runBuild(inputPath, targetFlag, outputFlag string, watch, sourceMap, verbose bool) error {
	overrides := &config.Config{Build: config.BuildConfig{Target: targetFlag, Output: outputFlag}}
	cfg, err := config.Load(overrides)
	if err != nil {
		return err
	}

	target, err := compiler.ParseTarget(cfg.Build.Target)
	if err != nil {
		return err
	}

	outputPath := cfg.Build.Output
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath, target)
	}

	var log clog.Logger
	if verbose {
		log, err = clog.NewDevelopment()
		if err != nil {
			return err
		}
	} else {
		log = clog.NewNop()
	}
	defer log.Sync()

	buildUI := ui.NewBuild()
	buildUI.PrintHeader(version)
	buildUI.PrintStart(inputPath, outputPath, target.String())

	opts := compiler.Options{Target: target, Logger: log, Sourcemap: sourceMap}
	if err := compileOnce(inputPath, outputPath, opts, buildUI); err != nil && !watch {
		return err
	}

	if !watch {
		return nil
	}

	return runWatch(inputPath, outputPath, opts, cfg, log, buildUI)
}

// compileOnce runs the pipeline once, prints diagnostics to stderr in
// the machine-parseable `<file>:<line>:<col>: <message>` form regardless
// of the styled report, and writes the compiled output (and optional
// source map) to disk on success.
func compileOnce(inputPath, outputPath string, opts compiler.Options, buildUI *ui.Build) error {
	result, diags, err := compiler.Compile(inputPath, opts)
	printDiagnostics(diags)

	if err != nil {
		buildUI.PrintFailure(countErrors(diags))
		return err
	}

	if werr := os.WriteFile(outputPath, []byte(result.Output), 0o644); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}

	if result.Sourcemap != nil {
		data, merr := result.Sourcemap.Marshal()
		if merr != nil {
			return fmt.Errorf("failed to marshal source map: %w", merr)
		}
		if werr := os.WriteFile(outputPath+".map", data, 0o644); werr != nil {
			return fmt.Errorf("failed to write source map: %w", werr)
		}
	}

	buildUI.PrintSuccess(countWarnings(diags))
	return nil
}

func runWatch(inputPath, outputPath string, opts compiler.Options, cfg *config.Config, log clog.Logger, buildUI *ui.Build) error {
	w, err := workspace.New(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	if prog, _, lerr := loader.Load(inputPath); lerr == nil {
		_ = w.Sync(inputPath, prog)
	} else {
		_ = w.Sync(inputPath, nil)
	}

	ui.PrintInfo(fmt.Sprintf("watching for changes (debounce %dms)", cfg.Watch.DebounceMS))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-sigCh
		close(done)
	}()

	onChange := func() {
		ui.PrintInfo("change detected, rebuilding")
		fresh := ui.NewBuild()
		if err := compileOnce(inputPath, outputPath, opts, fresh); err != nil {
			log.Warnw("rebuild failed", "error", err)
		}
		if prog, _, lerr := loader.Load(inputPath); lerr == nil {
			_ = w.Sync(inputPath, prog)
		}
	}
	onError := func(err error) {
		log.Errorw("watcher error", "error", err)
	}

	w.Run(done, onChange, onError)
	return nil
}

func defaultOutputPath(inputPath string, target compiler.Target) string {
	if target == compiler.TargetC {
		return "out.c"
	}
	return "out.wat"
}

func printDiagnostics(diags []diagnostic.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func countErrors(diags []diagnostic.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			n++
		}
	}
	return n
}

func countWarnings(diags []diagnostic.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityWarning {
			n++
		}
	}
	return n
}
