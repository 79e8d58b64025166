package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
)

// HTTPMiddleware starts a server span per HTTP request, continuing any trace
// context the caller propagated in the request headers.
func HTTPMiddleware(tracing *TracingProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracing.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
					attribute.String("net.peer.address", r.RemoteAddr),
				),
			)
			defer span.End()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// ErrorType categorizes errors for metric labels
func ErrorType(err error) string {
	if err == nil {
		return ""
	}

	if mcpErr, ok := mcperrors.AsMCPError(err); ok {
		switch mcpErr.Code() {
		case mcperrors.CodeParseError:
			return "parse_error"
		case mcperrors.CodeInvalidRequest:
			return "invalid_request"
		case mcperrors.CodeMethodNotFound:
			return "method_not_found"
		case mcperrors.CodeInvalidParams:
			if mcpErr.Category() == mcperrors.CategoryNotFound {
				return "unknown_tool"
			}
			return "invalid_params"
		case mcperrors.CodeInternalError:
			return "internal_error"
		}
		return string(mcpErr.Category())
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "unknown"
	}
}
