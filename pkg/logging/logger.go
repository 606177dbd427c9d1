// Package logging provides the small logger contract used across the editor
// core. Components accept a Logger through their options and fall back to a
// no-op implementation, so hosts decide where entries go.
package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of an Event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes one log entry.
type Event struct {
	Level    Level
	Op       string
	Message  string
	Path     string
	Duration time.Duration
	Err      error
}

// Logger records events.
type Logger interface {
	Log(Event)
}

// Func adapts a function to Logger.
type Func func(Event)

// Log implements Logger.
func (f Func) Log(event Event) {
	if f != nil {
		f(event)
	}
}

type nop struct{}

func (nop) Log(Event) {}

// Nop returns a Logger that drops every event.
func Nop() Logger {
	return nop{}
}

// OrNop returns logger, or Nop when logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return nop{}
	}
	return logger
}

// Slog forwards events to a structured slog.Logger.
func Slog(logger *slog.Logger) Logger {
	if logger == nil {
		return nop{}
	}
	return Func(func(event Event) {
		attrs := []slog.Attr{slog.String("op", event.Op)}
		if event.Path != "" {
			attrs = append(attrs, slog.String("path", event.Path))
		}
		if event.Duration > 0 {
			attrs = append(attrs, slog.Duration("duration", event.Duration))
		}
		if event.Err != nil {
			attrs = append(attrs, slog.String("error", event.Err.Error()))
		}
		logger.LogAttrs(context.Background(), slogLevel(event.Level), event.Message, attrs...)
	})
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Recorder keeps every event in memory. Intended for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Log implements Logger.
func (r *Recorder) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// AtLeast returns the recorded events whose level is >= level.
func (r *Recorder) AtLeast(level Level) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, event := range r.events {
		if event.Level >= level {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
