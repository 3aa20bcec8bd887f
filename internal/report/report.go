package report

import (
	"log/slog"
	"sync"
)

// Severity classifies a progress message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Sink receives progress messages from a pipeline run.
type Sink interface {
	Report(message string, severity Severity)
}

// Func adapts a function to the Sink interface.
type Func func(message string, severity Severity)

func (f Func) Report(message string, severity Severity) {
	if f != nil {
		f(message, severity)
	}
}

// Discard returns a sink that drops all messages.
func Discard() Sink {
	return Func(nil)
}

// NewLoggerSink forwards progress messages to a slog logger. Success maps to
// info level with an outcome attribute so it stays visible in console output.
func NewLoggerSink(logger *slog.Logger) Sink {
	return Func(func(message string, severity Severity) {
		if logger == nil {
			return
		}
		switch severity {
		case SeverityWarning:
			logger.Warn(message)
		case SeverityError:
			logger.Error(message)
		case SeveritySuccess:
			logger.Info(message, slog.String("outcome", "success"))
		default:
			logger.Info(message)
		}
	})
}

// Multi fans one message out to every provided sink, skipping nils.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return Func(func(message string, severity Severity) {
		for _, sink := range filtered {
			sink.Report(message, severity)
		}
	})
}

// Entry is one recorded progress message.
type Entry struct {
	Message  string
	Severity Severity
}

// Recorder is a Sink that retains every message. Safe for concurrent use;
// used by tests and by the history fan-in.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Report(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: message, Severity: severity})
}

// Entries returns a copy of the recorded messages in order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
