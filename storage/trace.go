package storage

import (
	"fmt"
	"log"
	"sync"
)

// TraceSink is the collaborator lock-contention and failure diagnostics
// log through. A narrow interface rather than a direct *log.Logger
// dependency, so tests can swap in a recording sink.
type TraceSink interface {
	Logf(format string, args ...interface{})
}

// LogTraceSink writes to a *log.Logger, the default behavior.
type LogTraceSink struct {
	logger *log.Logger
}

// NewLogTraceSink wraps logger, or the standard logger if nil.
func NewLogTraceSink(logger *log.Logger) *LogTraceSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogTraceSink{logger: logger}
}

func (s *LogTraceSink) Logf(format string, args ...interface{}) {
	s.logger.Printf(format, args...)
}

// RecordingTraceSink collects formatted lines in memory, for tests that
// assert on what was traced.
type RecordingTraceSink struct {
	mu    sync.Mutex
	lines []string
}

// NewRecordingTraceSink creates an empty recording sink.
func NewRecordingTraceSink() *RecordingTraceSink {
	return &RecordingTraceSink{}
}

func (s *RecordingTraceSink) Logf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of everything recorded so far.
func (s *RecordingTraceSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
