// Package clog provides the structured logging interface threaded
// through the compiler pipeline (spec.md §4.12 / component C14). It
// generalizes the teacher's plugin.Logger interface — a small
// format-string logging seam passed through a shared context — from
// printf-style methods to the structured key-value methods
// go.uber.org/zap's SugaredLogger exposes, since that is the
// dependency this compiler actually gives a job (the teacher's go.mod
// pulls in zap only indirectly, via its LSP stack, and never imports
// it itself).
package clog

import "go.uber.org/zap"

// Logger is the logging seam every pipeline phase in internal/compiler
// accepts. It is satisfied by *zap.SugaredLogger directly.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Sync() error
}

// NewNop returns a Logger that discards everything, used as the
// default so the CLI stays quiet unless --verbose is passed.
func NewNop() Logger {
	return zap.NewNop().Sugar()
}

// NewDevelopment returns a Logger writing human-readable, colorized
// debug-level output to stderr, used under --verbose.
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// NewProduction returns a Logger writing structured JSON at info level
// and above, suitable for piping build logs into another tool.
func NewProduction() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
