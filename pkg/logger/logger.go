// Package logger provides the leveled logger used for non-fatal diagnostics
// such as unresolved forward references and unchecked protocols.
//
// Lines have the form
//
//	[15:04:05] typematch [WARN] Cannot resolve forward reference "Node" code=unresolved
//
// where trailing key=value pairs come from With.
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l >= LevelNone {
		return ""
	}
	return levelNames[l]
}

// ParseLevel converts a level name ("debug", "warn", "none", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "none", "off":
		return LevelNone, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// sink is the writer shared by a logger and every child made with With.
type sink struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// Logger writes leveled lines to an output. Children created by With and
// WithPrefix share the parent's output and level.
type Logger struct {
	sink   *sink
	prefix string
	fields string
}

var defaultLogger = New(os.Stderr, LevelInfo)

// Default returns the package logger used when no logger is configured.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the package logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// New creates a logger writing lines at or above level to output.
func New(output io.Writer, level Level) *Logger {
	return &Logger{
		sink:   &sink{w: output, level: level},
		prefix: "typematch",
	}
}

// WithPrefix returns a logger that tags lines with prefix instead of
// "typematch".
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{sink: l.sink, prefix: prefix, fields: l.fields}
}

// With returns a logger that appends the key/value pairs kv to every line.
// A trailing key without a value is ignored.
func (l *Logger) With(kv ...any) *Logger {
	var b strings.Builder
	b.WriteString(l.fields)
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, kv[i])
		b.WriteByte('=')
		b.WriteString(formatValue(kv[i+1]))
	}
	return &Logger{sink: l.sink, prefix: l.prefix, fields: b.String()}
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// SetLevel changes the level for this logger and its children.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.enabled(level)
}

func (s *sink) enabled(level Level) bool {
	return level >= s.level && s.level != LevelNone
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if !l.sink.enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.sink.w, "[%s] %s [%s] %s%s\n",
		time.Now().Format("15:04:05"), l.prefix, level, msg, l.fields)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }
