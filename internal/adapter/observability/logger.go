// Package observability provides the structured logger the engine and use
// cases report progress through.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
)

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warning", "warn":
		return LogLevelWarning
	default:
		return LogLevelInfo
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseFormat maps a config string to a LogFormat, defaulting to human.
func ParseFormat(s string) LogFormat {
	if strings.ToLower(s) == "json" {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// DefaultLogger writes structured log lines to a writer. It satisfies the
// engine's Logger interface.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
	out    *log.Logger
}

// NewDefaultLogger creates a logger with the specified verbosity and format.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		format: format,
		out:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetOutput redirects log output (used in tests).
func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.out.SetOutput(w)
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(_ context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.write("info", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(_ context.Context, message string, fields map[string]interface{}) {
	l.write("warning", message, fields)
}

func (l *DefaultLogger) write(level, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		entry := map[string]interface{}{"level": level, "message": message}
		for k, v := range fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			l.out.Printf("[%s] %s (unmarshalable fields: %v)", strings.ToUpper(level), message, err)
			return
		}
		l.out.Print(string(data))
		return
	}

	l.out.Printf("[%s] %s%s", strings.ToUpper(level), message, formatFields(fields))
}

// formatFields renders fields as " (k=v, k=v)" in stable key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
