// Package display sends operator status lines to the console, a serial
// character display, or both. Emit never blocks and never fails: a broken
// display must not hold up heater control.
package display

import "github.com/jjroth89/sous-vide/internal/logger"

// Sink accepts human-readable status lines.
type Sink interface {
	Emit(line string)
}

// LogSink writes lines to the structured log.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit logs the line.
func (s *LogSink) Emit(line string) {
	s.log.Info(line)
}

// Multi fans each line out to several sinks.
type Multi []Sink

// Emit forwards line to every sink.
func (m Multi) Emit(line string) {
	for _, s := range m {
		s.Emit(line)
	}
}

// FakeSink records emitted lines.
type FakeSink struct {
	Lines []string
}

// Emit records the line.
func (f *FakeSink) Emit(line string) {
	f.Lines = append(f.Lines, line)
}
