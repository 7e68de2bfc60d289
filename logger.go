package lpphot

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel type defines the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelNone // Disables logging
)

// LevelToString maps LogLevel to its string representation.
var LevelToString = map[LogLevel]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
	LevelNone:    "NONE",
}

// StringToLevel maps string representation of LogLevel to its value.
var StringToLevel = map[string]LogLevel{
	"DEBUG":   LevelDebug,
	"INFO":    LevelInfo,
	"WARNING": LevelWarning,
	"ERROR":   LevelError,
	"NONE":    LevelNone,
}

// SimpleLogger implements io.WriteCloser and supports setting a log level.
// It is the logger the driver expects in Probe.SetLogger, but any io.Writer
// works there.
type SimpleLogger struct {
	mu         sync.Mutex
	level      LogLevel
	output     io.WriteCloser
	timeFormat string
	prefix     string
}

// NewSimpleLogger creates a new SimpleLogger instance.
// If output is nil, it defaults to os.Stdout.
func NewSimpleLogger(output io.WriteCloser, level LogLevel, prefix string) *SimpleLogger {
	if output == nil {
		output = os.Stdout
	}
	return &SimpleLogger{
		level:      level,
		output:     output,
		timeFormat: time.RFC3339,
		prefix:     prefix,
	}
}

// SetLevel sets the logging level.
func (l *SimpleLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level.
func (l *SimpleLogger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevelFromString sets the logging level from a string such as "DEBUG".
func (l *SimpleLogger) SetLevelFromString(levelStr string) error {
	if level, ok := StringToLevel[strings.ToUpper(levelStr)]; ok {
		l.SetLevel(level)
		return nil
	}
	return fmt.Errorf("invalid log level: %s", levelStr)
}

// Write implements io.Writer. Messages are classified by their "Error:"
// prefix the way the driver emits them; everything else counts as info.
func (l *SimpleLogger) Write(p []byte) (n int, err error) {
	message := strings.TrimSpace(string(p))
	level := determineLevel(message)

	if level >= l.GetLevel() && l.GetLevel() != LevelNone {
		l.mu.Lock()
		defer l.mu.Unlock()
		timestamp := time.Now().Format(l.timeFormat)
		formatted := fmt.Sprintf("%s [%s] <%s> %s\n", timestamp, LevelToString[level], l.prefix, message)
		return l.output.Write([]byte(formatted))
	}
	return len(p), nil
}

// Close implements io.Closer. It closes the underlying output unless it is
// os.Stdout.
func (l *SimpleLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.output != os.Stdout {
		return l.output.Close()
	}
	return nil
}

// determineLevel infers the log level from the message text. Driver
// diagnostics carry an "Error:" marker after the "lpphot:" prefix; frame
// traces count as debug.
func determineLevel(message string) LogLevel {
	trimmed := strings.TrimPrefix(message, "lpphot: ")
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "ERROR"):
		return LevelError
	case strings.HasPrefix(upper, "WARNING"), strings.HasPrefix(upper, "WARN:"):
		return LevelWarning
	case strings.HasPrefix(upper, "DEBUG"),
		strings.HasPrefix(upper, "SENDING"),
		strings.HasPrefix(upper, "RECEIVED"):
		return LevelDebug
	default:
		return LevelInfo
	}
}
