// Package logger wraps the standard log package behind a small leveled
// interface so stores and flows can be handed a logger explicitly.
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
)

// ParseLevel maps "debug", "info" or "error" to a Level. Unknown values
// fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger is the logging surface used across the storefront.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// StdLogger writes through the standard library logger with a level prefix.
type StdLogger struct {
	level  Level
	prefix string
}

// New returns a StdLogger that drops messages below level. A non-empty
// component is added to every line as "[component]".
func New(level Level, component string) *StdLogger {
	p := ""
	if component != "" {
		p = "[" + component + "] "
	}
	return &StdLogger{level: level, prefix: p}
}

func (l *StdLogger) Debug(format string, v ...interface{}) {
	if l.level <= DebugLevel {
		log.Printf("[DEBUG] "+l.prefix+format, v...)
	}
}

func (l *StdLogger) Info(format string, v ...interface{}) {
	if l.level <= InfoLevel {
		log.Printf("[INFO] "+l.prefix+format, v...)
	}
}

func (l *StdLogger) Error(format string, v ...interface{}) {
	if l.level <= ErrorLevel {
		log.Printf("[ERROR] "+l.prefix+format, v...)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}

// Recorder keeps formatted lines in memory. Tests use it to assert that a
// failure was logged rather than surfaced.
type Recorder struct {
	mu    sync.Mutex
	Lines []string
}

func (r *Recorder) record(level, format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, level+" "+fmt.Sprintf(format, v...))
}

func (r *Recorder) Debug(format string, v ...interface{}) { r.record("DEBUG", format, v...) }
func (r *Recorder) Info(format string, v ...interface{})  { r.record("INFO", format, v...) }
func (r *Recorder) Error(format string, v ...interface{}) { r.record("ERROR", format, v...) }

// Contains reports whether any recorded line contains substr.
func (r *Recorder) Contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.Lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
