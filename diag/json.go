package diag

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/teranos/cfw/cdecl"
)

// JSONSink writes one JSON event per line.
type JSONSink struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONSink creates a sink writing to w, or stdout when w is nil.
func NewJSONSink(w io.Writer) *JSONSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONSink{encoder: json.NewEncoder(w)}
}

func (s *JSONSink) emit(typ string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoder.Encode(Event{Type: typ, Timestamp: time.Now(), Data: data})
}

// Stage emits a stage event
func (s *JSONSink) Stage(stage, message string) {
	s.emit(EventStage, map[string]interface{}{"stage": stage, "message": message})
}

// Dropped emits a dropped-declaration event
func (s *JSONSink) Dropped(pos cdecl.Pos, name, reason string) {
	s.emit(EventDropped, map[string]interface{}{"position": pos, "function": name, "reason": reason})
}

// Duplicate emits a duplicate-declaration event
func (s *JSONSink) Duplicate(name string, kept, ignored cdecl.Pos) {
	s.emit(EventDuplicate, map[string]interface{}{"function": name, "kept": kept, "ignored": ignored})
}

// Unmockable emits an unmockable-signature event
func (s *JSONSink) Unmockable(name, reason string) {
	s.emit(EventUnmockable, map[string]interface{}{"function": name, "reason": reason})
}

// MissingHeader emits a missing-header event
func (s *JSONSink) MissingHeader(header string, dirs []string) {
	s.emit(EventMissingHeader, map[string]interface{}{"header": header, "dirs": dirs})
}

// Wrote emits a written-file event
func (s *JSONSink) Wrote(path string) {
	s.emit(EventWrote, map[string]interface{}{"path": path})
}
