package logging

import (
	"bytes"
	"log"
	"strings"
)

// writerAdapter turns lines written by the standard library into entries
type writerAdapter struct {
	logger Logger
	level  Level
}

func (a *writerAdapter) Write(p []byte) (int, error) {
	msg := string(bytes.TrimRight(p, "\r\n"))
	fields := extractFieldsFromMessage(msg)

	switch {
	case a.level <= DebugLevel:
		a.logger.Debug(msg, fields...)
	case a.level == InfoLevel:
		a.logger.Info(msg, fields...)
	case a.level == WarnLevel:
		a.logger.Warn(msg, fields...)
	default:
		a.logger.Error(msg, fields...)
	}
	return len(p), nil
}

// StdLogger returns a *log.Logger that forwards to logger at level, for
// packages such as net/http that only accept the standard logger.
func StdLogger(logger Logger, level Level) *log.Logger {
	return log.New(&writerAdapter{logger: logger, level: level}, "", 0)
}

// extractFieldsFromMessage picks well known key=value pairs out of a
// free-form message.
func extractFieldsFromMessage(msg string) []Field {
	var fields []Field

	patterns := []struct {
		prefix string
		field  string
	}{
		{"remote=", "remote_addr"},
		{"addr=", "addr"},
		{"error=", "error_detail"},
	}

	for _, pattern := range patterns {
		idx := strings.Index(msg, pattern.prefix)
		if idx < 0 {
			continue
		}

		start := idx + len(pattern.prefix)
		end := start
		for end < len(msg) && msg[end] != ' ' && msg[end] != ',' && msg[end] != '\n' {
			end++
		}

		if end > start {
			fields = append(fields, String(pattern.field, msg[start:end]))
		}
	}

	// net/http reports "http: TLS handshake error from 1.2.3.4:5678: ..."
	if i := strings.Index(msg, " from "); i >= 0 {
		rest := msg[i+len(" from "):]
		if j := strings.Index(rest, ": "); j > 0 {
			fields = append(fields, String("remote_addr", rest[:j]))
		}
	}

	return fields
}
