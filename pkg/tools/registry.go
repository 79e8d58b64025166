// Package tools holds the tool registry and the built-in diagnostic tools.
//
// The registry is built once at startup and never mutated, so it is safe for
// unsynchronized concurrent reads. Every invocation goes through CallTool,
// which turns handler errors and panics into error results.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

// ErrUnknownTool is returned by CallTool for names that are not registered
var ErrUnknownTool = errors.New("unknown tool")

// Handler runs a tool. Tool level failures belong in the returned result;
// a returned error is reported as an internal_error result.
type Handler func(ctx context.Context, args json.RawMessage) (*protocol.CallToolResult, error)

// SyncHandler adapts a pure function that needs no context
func SyncHandler(fn func(args json.RawMessage) (*protocol.CallToolResult, error)) Handler {
	return func(_ context.Context, args json.RawMessage) (*protocol.CallToolResult, error) {
		return fn(args)
	}
}

// Entry pairs a tool descriptor with its handler
type Entry struct {
	Tool    protocol.Tool
	Handler Handler
}

// Registry is an immutable name to tool table that preserves registration order
type Registry struct {
	entries []Entry
	index   map[string]int

	metrics observability.MetricsProvider
	tracing *observability.TracingProvider
	logger  logging.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithMetrics records one tool_call sample per invocation
func WithMetrics(metrics observability.MetricsProvider) RegistryOption {
	return func(r *Registry) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithTracing starts a span per invocation
func WithTracing(tracing *observability.TracingProvider) RegistryOption {
	return func(r *Registry) {
		if tracing != nil {
			r.tracing = tracing
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry builds a registry from entries. It panics on an empty or
// duplicate name or a nil handler, which are programming errors.
func NewRegistry(entries []Entry, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
		metrics: observability.NoopMetricsProvider{},
		tracing: observability.DisabledTracing(),
		logger:  logging.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithFields(logging.Component("tools"))

	for _, e := range entries {
		if e.Tool.Name == "" {
			panic("tools: entry without a name")
		}
		if e.Handler == nil {
			panic(fmt.Sprintf("tools: %q has no handler", e.Tool.Name))
		}
		if _, dup := r.index[e.Tool.Name]; dup {
			panic(fmt.Sprintf("tools: %q registered twice", e.Tool.Name))
		}
		r.index[e.Tool.Name] = len(r.entries)
		r.entries = append(r.entries, e)
	}

	return r
}

// ListTools returns every descriptor in registration order
func (r *Registry) ListTools() []protocol.Tool {
	tools := make([]protocol.Tool, len(r.entries))
	for i, e := range r.entries {
		tools[i] = e.Tool
	}
	return tools
}

// Lookup returns the entry registered under name
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.index[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.entries)
}

// CallTool invokes the named tool. The only error is ErrUnknownTool; every
// failure inside the tool, panics included, comes back as a result with
// IsError set.
func (r *Registry) CallTool(ctx context.Context, name string, args json.RawMessage) (*protocol.CallToolResult, error) {
	entry, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	ctx, span := r.tracing.StartToolSpan(ctx, name)
	defer span.End()

	start := time.Now()
	result := r.invoke(ctx, entry, args)
	status := resultStatus(result)

	r.metrics.RecordToolCall(ctx, name, status, time.Since(start))
	r.tracing.SetAttributes(ctx,
		attribute.String("mcp.tool.status", status),
		attribute.Bool("mcp.tool.is_error", result.IsError),
	)

	r.logger.WithContext(ctx).Debug("Tool call finished",
		logging.String("tool", name),
		logging.String("status", status),
		logging.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (r *Registry) invoke(ctx context.Context, entry Entry, args json.RawMessage) (result *protocol.CallToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			cause := fmt.Errorf("panic: %v", rec)
			err := mcperrors.CreateInternalError("tool "+entry.Tool.Name, cause).WithDetail(cause.Error())
			r.logger.WithContext(ctx).WithError(err).Error("Tool panicked",
				logging.String("tool", entry.Tool.Name),
				logging.String("stack", string(debug.Stack())),
			)
			r.tracing.RecordError(ctx, err)
			result = internalErrorResult(err)
		}
	}()

	res, err := entry.Handler(ctx, args)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("Tool returned an error",
			logging.String("tool", entry.Tool.Name),
		)
		r.tracing.RecordError(ctx, err)
		return internalErrorResult(err)
	}
	if res == nil {
		return internalErrorResult(fmt.Errorf("tool %s returned no result", entry.Tool.Name))
	}
	return res
}

// internalErrorResult reports an unexpected fault as a tool result
func internalErrorResult(err error) *protocol.CallToolResult {
	return protocol.NewToolResult(err.Error(), errorPayload{
		Error:  err.Error(),
		Status: mcperrors.StatusInternalError,
	}, true)
}
