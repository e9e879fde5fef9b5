package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type Logger struct {
	level  int
	out    *log.Logger
	prefix string
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

func New(level string) *Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter builds a logger that writes to w; tests pass io.Discard.
func NewWithWriter(level string, w io.Writer) *Logger {
	return &Logger{
		level: parseLevel(level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

// With returns a logger that prefixes every line with the given component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		level:  l.level,
		out:    l.out,
		prefix: l.prefix + "[" + component + "] ",
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= levelDebug {
		l.out.Printf("[DEBUG] "+l.prefix+msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= levelInfo {
		l.out.Printf("[INFO] "+l.prefix+msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= levelWarn {
		l.out.Printf("[WARN] "+l.prefix+msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.out.Printf("[ERROR] "+l.prefix+msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.out.Printf("[FATAL] "+l.prefix+msg, args...)
	os.Exit(1)
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}
