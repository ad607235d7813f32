// Package diag reports what happened during a generation run.
//
// A Sink is passed explicitly to the stages that produce diagnostics
// (header loading, generation). Implementations:
//   - CLISink: terminal output using pterm, filtered by verbosity
//   - JSONSink: one JSON event per line
//   - Recorder: keeps events in memory, for tests and summaries
//   - Nop: discards everything
package diag

import (
	"time"

	"github.com/teranos/cfw/cdecl"
)

// Sink receives diagnostics from a generation run.
type Sink interface {
	// Stage announces a pipeline stage ("parse", "generate", "write")
	Stage(stage, message string)

	// Dropped reports a declaration that was skipped
	Dropped(pos cdecl.Pos, name, reason string)

	// Duplicate reports a function declared more than once; kept is the
	// declaration that was used
	Duplicate(name string, kept, ignored cdecl.Pos)

	// Unmockable reports a wrapper or aggregate left out of the mock document
	Unmockable(name, reason string)

	// MissingHeader reports a header absent from every include directory
	MissingHeader(header string, dirs []string)

	// Wrote reports a written (or, in dry-run mode, rendered) file
	Wrote(path string)
}

// Event types
const (
	EventStage         = "stage"
	EventDropped       = "dropped"
	EventDuplicate     = "duplicate"
	EventUnmockable    = "unmockable"
	EventMissingHeader = "missing_header"
	EventWrote         = "wrote"
)

// Event is the structured form of one diagnostic.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Nop discards all diagnostics.
type Nop struct{}

func (Nop) Stage(string, string) {}
func (Nop) Dropped(cdecl.Pos, string, string) {}
func (Nop) Duplicate(string, cdecl.Pos, cdecl.Pos) {}
func (Nop) Unmockable(string, string) {}
func (Nop) MissingHeader(string, []string) {}
func (Nop) Wrote(string) {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}
