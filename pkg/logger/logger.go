package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level controls which messages are written.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger is a leveled logger with a component prefix.
type Logger interface {
	Info(message string, v ...any)
	Warn(message string, v ...any)
	Error(message string, v ...any)
	Debug(message string, v ...any)
	Writer() io.Writer
}

type logger struct {
	prefix string
	inner  *log.Logger
	level  Level
}

// New creates a logger writing to stderr.
func New(prefix string, level Level) Logger {
	return NewWithWriter(os.Stderr, prefix, level)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, prefix string, level Level) Logger {
	return &logger{
		prefix: prefix,
		inner:  log.New(w, "", log.Ldate|log.Ltime),
		level:  level,
	}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return NewWithWriter(io.Discard, "", LevelError)
}

// ParseLevel converts a level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func (l *logger) Info(message string, v ...any) {
	if l.level < LevelInfo {
		return
	}
	l.log("INFO", message, v...)
}

func (l *logger) Warn(message string, v ...any) {
	if l.level < LevelWarn {
		return
	}
	l.log("WARN", message, v...)
}

func (l *logger) Error(message string, v ...any) {
	l.log("ERROR", message, v...)
}

func (l *logger) Debug(message string, v ...any) {
	if l.level < LevelDebug {
		return
	}
	l.log("DEBUG", message, v...)
}

func (l *logger) log(tag, message string, v ...any) {
	if l.prefix == "" {
		l.inner.Printf("[%s] %s", tag, fmt.Sprintf(message, v...))
		return
	}
	l.inner.Printf("[%s] %s %s", tag, l.prefix, fmt.Sprintf(message, v...))
}

func (l *logger) Writer() io.Writer {
	return l.inner.Writer()
}
