// Package logging provides the structured logger used across the server.
// Entries carry key/value fields and are rendered by a text or JSON
// formatter; request ids and trace ids flow in through the context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
)

// Level represents the severity of a log message
type Level int

const (
	// DebugLevel is for detailed information useful for debugging
	DebugLevel Level = iota - 1
	// InfoLevel is for general informational messages
	InfoLevel
	// WarnLevel is for warning messages
	WarnLevel
	// ErrorLevel is for error messages
	ErrorLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configured level name onto a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates a 64-bit integer field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates an error field
func ErrorField(err error) Field {
	return Field{Key: "error", Value: err}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Component tags entries with the emitting component
func Component(name string) Field {
	return Field{Key: "component", Value: name}
}

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithFields returns a new logger with additional fields
	WithFields(fields ...Field) Logger
	// WithContext returns a new logger carrying the request and trace ids found in ctx
	WithContext(ctx context.Context) Logger
	// WithError returns a new logger with error context
	WithError(err error) Logger

	SetLevel(level Level)
}

// Entry represents a log entry
type Entry struct {
	Level     Level
	Message   string
	Fields    map[string]interface{}
	Timestamp time.Time
	RequestID string
	Component string
	Operation string
}

// Formatter formats log entries
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// lockedWriter serializes writes from a logger and everything derived from it
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

type baseLogger struct {
	mu         sync.RWMutex
	level      Level
	output     *lockedWriter
	formatter  Formatter
	fields     map[string]interface{}
	requestKey string
}

// New creates a new structured logger
func New(output io.Writer, formatter Formatter) Logger {
	if output == nil {
		output = os.Stdout
	}
	if formatter == nil {
		formatter = NewTextFormatter()
	}

	return &baseLogger{
		level:      InfoLevel,
		output:     &lockedWriter{w: output},
		formatter:  formatter,
		fields:     make(map[string]interface{}),
		requestKey: "request_id",
	}
}

// Options selects level and output format for NewWithOptions
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// NewWithOptions builds a logger from configured level and format names
func NewWithOptions(opts Options) (Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(opts.Format) {
	case "", "text":
		text := NewTextFormatter()
		text.DisableColors = opts.Output != nil && opts.Output != os.Stdout && opts.Output != os.Stderr
		formatter = text
	case "json":
		formatter = NewJSONFormatter()
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	logger := New(opts.Output, formatter)
	logger.SetLevel(level)
	return logger, nil
}

// Nop returns a logger that discards everything
func Nop() Logger {
	logger := New(io.Discard, NewJSONFormatter())
	logger.SetLevel(ErrorLevel + 1)
	return logger
}

func (l *baseLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

func (l *baseLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

func (l *baseLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

func (l *baseLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// WithFields returns a new logger with additional fields
func (l *baseLogger) WithFields(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for _, field := range fields {
		newFields[field.Key] = field.Value
	}

	return &baseLogger{
		level:      l.level,
		output:     l.output,
		formatter:  l.formatter,
		fields:     newFields,
		requestKey: l.requestKey,
	}
}

// WithContext returns a new logger with context fields
func (l *baseLogger) WithContext(ctx context.Context) Logger {
	var fields []Field

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, String(l.requestKey, requestID))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, String("trace_id", sc.TraceID().String()))
	}

	return l.WithFields(fields...)
}

// WithError returns a new logger with error context
func (l *baseLogger) WithError(err error) Logger {
	fields := []Field{ErrorField(err)}

	if mcpErr, ok := mcperrors.AsMCPError(err); ok {
		fields = append(fields,
			Int("error_code", mcpErr.Code()),
			String("error_name", mcperrors.GetErrorCodeName(mcpErr.Code())),
			String("error_category", string(mcpErr.Category())),
			String("error_severity", string(mcpErr.Severity())),
		)

		if ctx := mcpErr.Context(); ctx != nil {
			if ctx.RequestID != "" {
				fields = append(fields, String(l.requestKey, ctx.RequestID))
			}
			if ctx.Component != "" {
				fields = append(fields, String("component", ctx.Component))
			}
			if ctx.Operation != "" {
				fields = append(fields, String("operation", ctx.Operation))
			}
			if ctx.Tool != "" {
				fields = append(fields, String("tool", ctx.Tool))
			}
			if ctx.Target != "" {
				fields = append(fields, String("target", ctx.Target))
			}
		}
	}

	return l.WithFields(fields...)
}

func (l *baseLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *baseLogger) log(level Level, msg string, fields ...Field) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}

	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
		Timestamp: time.Now(),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	l.mu.RUnlock()

	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	if requestID, ok := entry.Fields[l.requestKey].(string); ok {
		entry.RequestID = requestID
	}
	if component, ok := entry.Fields["component"].(string); ok {
		entry.Component = component
	}
	if operation, ok := entry.Fields["operation"].(string); ok {
		entry.Operation = operation
	}

	data, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to format log entry: %v\n", err)
		return
	}

	if _, err := l.output.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log entry: %v\n", err)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID returns a context with a request ID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from a context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
