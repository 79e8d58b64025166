package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	textTimeLayout = "2006-01-02 15:04:05.000"
	jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ANSI colors per level, reset after the level tag
var levelColors = map[Level]string{
	DebugLevel: "\033[90m",
	InfoLevel:  "\033[34m",
	WarnLevel:  "\033[33m",
	ErrorLevel: "\033[31m",
}

const colorReset = "\033[0m"

// TextFormatter writes one line per entry:
//
//	<time> [LEVEL] [request-id] component/operation: message | k=v k=v
type TextFormatter struct {
	DisableColors bool
}

// NewTextFormatter returns a colored text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format renders entry as a text line
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(entry.Timestamp.Format(textTimeLayout))
	buf.WriteByte(' ')

	color, ok := levelColors[entry.Level]
	if f.DisableColors || !ok {
		fmt.Fprintf(&buf, "[%s] ", entry.Level)
	} else {
		fmt.Fprintf(&buf, "%s[%s]%s ", color, entry.Level, colorReset)
	}

	if entry.RequestID != "" {
		fmt.Fprintf(&buf, "[%s] ", entry.RequestID)
	}
	if entry.Component != "" {
		buf.WriteString(entry.Component)
		if entry.Operation != "" {
			buf.WriteByte('/')
			buf.WriteString(entry.Operation)
		}
		buf.WriteString(": ")
	}
	buf.WriteString(entry.Message)

	if pairs := textPairs(entry); len(pairs) > 0 {
		buf.WriteString(" | ")
		buf.WriteString(strings.Join(pairs, " "))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// textPairs renders the fields not already shown in the line prefix,
// sorted by key
func textPairs(entry *Entry) []string {
	pairs := make([]string, 0, len(entry.Fields))
	for k, v := range entry.Fields {
		switch {
		case k == "request_id":
			continue
		case k == "component" && entry.Component != "":
			continue
		case k == "operation" && entry.Component != "" && entry.Operation != "":
			continue
		}

		s, isText := plainValue(v)
		if isText && strings.ContainsAny(s, " \t\n") {
			s = fmt.Sprintf("%q", s)
		}
		pairs = append(pairs, k+"="+s)
	}
	sort.Strings(pairs)
	return pairs
}

// plainValue stringifies a field value; isText reports whether the value
// was free text that may need quoting
func plainValue(v interface{}) (s string, isText bool) {
	switch val := v.(type) {
	case error:
		return val.Error(), true
	case string:
		return val, true
	default:
		return fmt.Sprintf("%v", v), false
	}
}

// JSONFormatter writes one JSON object per entry with level, message,
// timestamp and every field at the top level
type JSONFormatter struct{}

// NewJSONFormatter returns a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format renders entry as a JSON line
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		data[k] = jsonValue(v)
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["timestamp"] = entry.Timestamp.Format(jsonTimeLayout)

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(out, '\n'), nil
}

func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}
