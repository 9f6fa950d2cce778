// Package ui renders casmc's styled build output with
// github.com/charmbracelet/lipgloss (spec.md §4.14 / component C16's
// UI collaborator). It is grounded on the teacher's pkg/ui/styles.go —
// the same color palette and BuildOutput-shaped report sequence — cut
// down from Dingo's multi-file transpile report to casmc's one-file,
// one-target build (spec.md §6's CLI compiles a single source file per
// invocation) and the diagnostics-count/timing fields a compiler
// reports instead of a transpiler's per-step pipeline.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSuccess = lipgloss.Color("#5AF78E")
	colorWarning = lipgloss.Color("#F7DC6F")
	colorError   = lipgloss.Color("#FF6B9D")
	colorMuted   = lipgloss.Color("#6C7086")
	colorText    = lipgloss.Color("#CDD6F4")
	colorSubtle  = lipgloss.Color("#7F849C")

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleFile   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	styleTarget = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true)
	styleOK     = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarn   = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleErr    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
)

// Build reports one compilation's progress the way the teacher's
// BuildOutput reports a transpile run.
type Build struct {
	start time.Time
}

// NewBuild starts timing a build.
func NewBuild() *Build {
	return &Build{start: time.Now()}
}

// PrintHeader prints the casmc banner.
func (b *Build) PrintHeader(version string) {
	fmt.Println(styleHeader.Render("casmc") + " " + styleMuted.Render("v"+version))
}

// PrintStart announces which file is being compiled to which target.
func (b *Build) PrintStart(input, output, target string) {
	fmt.Printf("  %s %s %s\n", styleFile.Render(input), styleMuted.Render("→"), styleFile.Render(output))
	fmt.Printf("  %s\n", styleTarget.Render("target: "+target))
}

// PrintSuccess reports a successful build with its diagnostic count
// (warnings only — errors would have aborted before this is reached).
func (b *Build) PrintSuccess(warnings int) {
	elapsed := formatDuration(time.Since(b.start))
	icon := "✓"
	msg := styleOK.Render("build succeeded")
	fmt.Printf("%s %s %s\n", icon, msg, styleMuted.Render("("+elapsed+")"))
	if warnings > 0 {
		fmt.Println(styleWarn.Render(fmt.Sprintf("  %d warning(s)", warnings)))
	}
}

// PrintFailure reports a failed build with its error diagnostic count.
func (b *Build) PrintFailure(errors int) {
	icon := "✗"
	msg := styleErr.Render("build failed")
	fmt.Printf("%s %s %s\n", icon, msg, styleMuted.Render(fmt.Sprintf("(%d error(s))", errors)))
}

// PrintInfo prints a muted informational line (watch-mode status, etc).
func PrintInfo(msg string) {
	fmt.Println(styleMuted.Render("ℹ " + msg))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
