package diag

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/logger"
)

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(typ string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: typ, Timestamp: time.Now(), Data: data})
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of one type.
func (r *Recorder) OfType(typ string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the "function" field of every event of typ.
func (r *Recorder) Names(typ string) []string {
	var out []string
	for _, e := range r.OfType(typ) {
		if name, ok := e.Data["function"].(string); ok {
			out = append(out, name)
		}
	}
	return out
}

func (r *Recorder) Stage(stage, message string) {
	r.add(EventStage, map[string]interface{}{"stage": stage, "message": message})
}

func (r *Recorder) Dropped(pos cdecl.Pos, name, reason string) {
	r.add(EventDropped, map[string]interface{}{"position": pos, "function": name, "reason": reason})
}

func (r *Recorder) Duplicate(name string, kept, ignored cdecl.Pos) {
	r.add(EventDuplicate, map[string]interface{}{"function": name, "kept": kept, "ignored": ignored})
}

func (r *Recorder) Unmockable(name, reason string) {
	r.add(EventUnmockable, map[string]interface{}{"function": name, "reason": reason})
}

func (r *Recorder) MissingHeader(header string, dirs []string) {
	r.add(EventMissingHeader, map[string]interface{}{"header": header, "dirs": dirs})
}

func (r *Recorder) Wrote(path string) {
	r.add(EventWrote, map[string]interface{}{"path": path})
}

// loggingSink mirrors every diagnostic to the structured logger before
// passing it on.
type loggingSink struct {
	underlying Sink
	log        *zap.SugaredLogger
}

// WithLogging wraps s so every diagnostic is also written to the cfw logger.
func WithLogging(s Sink) Sink {
	return &loggingSink{underlying: OrNop(s), log: logger.ComponentLogger("diag")}
}

func (l *loggingSink) Stage(stage, message string) {
	l.log.Infow(message, logger.FieldStage, stage)
	l.underlying.Stage(stage, message)
}

func (l *loggingSink) Dropped(pos cdecl.Pos, name, reason string) {
	l.log.Infow("Declaration dropped",
		logger.FieldFunction, name,
		logger.FieldFile, pos.File,
		logger.FieldLine, pos.Line,
		logger.FieldReason, reason)
	l.underlying.Dropped(pos, name, reason)
}

func (l *loggingSink) Duplicate(name string, kept, ignored cdecl.Pos) {
	l.log.Infow("Duplicate declaration ignored",
		logger.FieldFunction, name,
		"kept", kept.String(),
		"ignored", ignored.String())
	l.underlying.Duplicate(name, kept, ignored)
}

func (l *loggingSink) Unmockable(name, reason string) {
	l.log.Warnw("Mock omitted", logger.FieldFunction, name, logger.FieldReason, reason)
	l.underlying.Unmockable(name, reason)
}

func (l *loggingSink) MissingHeader(header string, dirs []string) {
	l.log.Warnw("Header not found", logger.FieldHeader, header, "dirs", dirs)
	l.underlying.MissingHeader(header, dirs)
}

func (l *loggingSink) Wrote(path string) {
	l.log.Debugw("File written", logger.FieldPath, path)
	l.underlying.Wrote(path)
}
