package diag

import (
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/logger"
)

// CLISink prints diagnostics to the terminal. What is shown depends on the
// verbosity level (see logger.ShouldOutput).
type CLISink struct {
	verbosity int
}

// NewCLISink creates a terminal sink for the given -v count.
func NewCLISink(verbosity int) *CLISink {
	return &CLISink{verbosity: verbosity}
}

func (s *CLISink) show(category logger.OutputCategory) bool {
	return logger.ShouldOutput(s.verbosity, category)
}

// Stage prints a stage announcement
func (s *CLISink) Stage(stage, message string) {
	if !s.show(logger.OutputStages) {
		return
	}
	pterm.Printf("%s: %s\n", pterm.LightCyan(stage), message)
}

// Dropped prints a skipped declaration
func (s *CLISink) Dropped(pos cdecl.Pos, name, reason string) {
	if !s.show(logger.OutputDropped) {
		return
	}
	pterm.Warning.Printf("%s: dropped %s: %s\n", pos, name, reason)
}

// Duplicate prints which declaration won
func (s *CLISink) Duplicate(name string, kept, ignored cdecl.Pos) {
	if !s.show(logger.OutputDuplicates) {
		return
	}
	pterm.Info.Printf("%s declared again at %s, using %s\n", name, ignored, kept)
}

// Unmockable prints a signature left out of the mock document
func (s *CLISink) Unmockable(name, reason string) {
	if !s.show(logger.OutputUnmockable) {
		return
	}
	pterm.Warning.Printf("no mock for %s: %s\n", name, reason)
}

// MissingHeader prints a header that was not found
func (s *CLISink) MissingHeader(header string, dirs []string) {
	if !s.show(logger.OutputErrors) {
		return
	}
	pterm.Warning.Printf("header %s not found\n", header)
	if s.show(logger.OutputHeaderLookup) {
		pterm.Printf("  searched: %s\n", strings.Join(dirs, ", "))
	}
}

// Wrote prints a generated file
func (s *CLISink) Wrote(path string) {
	if !s.show(logger.OutputFiles) {
		return
	}
	pterm.Success.Printf("wrote %s\n", path)
}
