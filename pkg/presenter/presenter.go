// Package presenter prints user-facing CLI output: verdicts, summaries,
// warnings and errors, with color support and a quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Presenter is the output surface used by the commands.
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Failure(subject string, problems []string)
	Summary(total, passed, failed int)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode selects when ANSI colors are emitted.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// TerminalPresenter writes to a terminal or any pair of writers.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// New returns a presenter on stdout/stderr with the color mode taken from
// NO_COLOR and AGENTS_COLOR.
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions returns a presenter on the given writers.
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("AGENTS_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error prints err to the error stream. It is printed even in quiet mode.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	c := color.New(color.FgRed, color.Bold)
	if context != "" {
		c.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
		return
	}
	c.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
}

func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section prints an underlined header.
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	c := color.New(color.Bold)
	c.Fprintf(p.output, "%s\n", title)
	c.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Failure prints a failed subject followed by one indented line per problem.
// Failures are always shown, quiet or not.
func (p *TerminalPresenter) Failure(subject string, problems []string) {
	color.New(color.FgRed, color.Bold).Fprintf(p.output, "✗ %s\n", subject)
	for _, problem := range problems {
		fmt.Fprintf(p.output, "    - %s\n", problem)
	}
}

// Summary prints the totals of a batch run.
func (p *TerminalPresenter) Summary(total, passed, failed int) {
	c := color.New(color.FgGreen, color.Bold)
	if failed > 0 {
		c = color.New(color.FgRed, color.Bold)
	}
	c.Fprintf(p.output, "%d checked, %d valid, %d invalid\n", total, passed, failed)
}

func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter Presenter = New()

// Error prints err with the default presenter.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

func Success(message string) {
	defaultPresenter.Success(message)
}

func Warning(message string) {
	defaultPresenter.Warning(message)
}

func Info(message string) {
	defaultPresenter.Info(message)
}

func Section(title string) {
	defaultPresenter.Section(title)
}

func Failure(subject string, problems []string) {
	defaultPresenter.Failure(subject, problems)
}

func Summary(total, passed, failed int) {
	defaultPresenter.Summary(total, passed, failed)
}

func Separator() {
	defaultPresenter.Separator()
}

func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
