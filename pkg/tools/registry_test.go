package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

func staticEntry(name string, handler Handler) Entry {
	return Entry{
		Tool:    protocol.Tool{Name: name, Description: name, InputSchema: protocol.ObjectSchema(nil)},
		Handler: handler,
	}
}

func okHandler(text string) Handler {
	return SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
		return protocol.NewToolResult(text, nil, false), nil
	})
}

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry([]Entry{
		staticEntry("zeta", okHandler("z")),
		staticEntry("alpha", okHandler("a")),
		staticEntry("mid", okHandler("m")),
	})

	names := []string{}
	for _, tool := range r.ListTools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	assert.Equal(t, 3, r.Len())

	entry, ok := r.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", entry.Tool.Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestNewRegistryRejectsBadEntries(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Entry{staticEntry("dup", okHandler("1")), staticEntry("dup", okHandler("2"))})
	})
	assert.Panics(t, func() {
		NewRegistry([]Entry{staticEntry("", okHandler("1"))})
	})
	assert.Panics(t, func() {
		NewRegistry([]Entry{staticEntry("nil", nil)})
	})
}

func TestCallToolUnknown(t *testing.T) {
	r := NewRegistry([]Entry{staticEntry("known", okHandler("ok"))})

	result, err := r.CallTool(context.Background(), "nope", nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Contains(t, err.Error(), "nope")
}

func TestCallToolPassesArguments(t *testing.T) {
	var got json.RawMessage
	r := NewRegistry([]Entry{staticEntry("echo", func(_ context.Context, args json.RawMessage) (*protocol.CallToolResult, error) {
		got = args
		return protocol.NewToolResult(string(args), nil, false), nil
	})})

	result, err := r.CallTool(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"x":1}`, string(got))
	assert.Equal(t, `{"x":1}`, result.Content[0].Text)
}

func TestCallToolConvertsHandlerError(t *testing.T) {
	r := NewRegistry([]Entry{staticEntry("broken", SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
		return nil, errors.New("disk on fire")
	}))})

	result, err := r.CallTool(context.Background(), "broken", nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Equal(t, "disk on fire", result.Content[0].Text)

	payload, ok := result.StructuredContent.(errorPayload)
	require.True(t, ok)
	assert.Equal(t, mcperrors.StatusInternalError, payload.Status)
	assert.Equal(t, "disk on fire", payload.Error)
}

func TestCallToolConvertsNilResult(t *testing.T) {
	r := NewRegistry([]Entry{staticEntry("empty", SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
		return nil, nil
	}))})

	result, err := r.CallTool(context.Background(), "empty", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, mcperrors.StatusInternalError, resultStatus(result))
}

func TestCallToolRecoversPanic(t *testing.T) {
	r := NewRegistry([]Entry{
		staticEntry("panics", SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
			panic("boom")
		})),
		staticEntry("fine", okHandler("still here")),
	})

	result, err := r.CallTool(context.Background(), "panics", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "boom")
	assert.Equal(t, mcperrors.StatusInternalError, resultStatus(result))

	// the registry keeps serving after a panic
	result, err = r.CallTool(context.Background(), "fine", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "still here", result.Content[0].Text)
}

func TestCallToolRecordsMetrics(t *testing.T) {
	metrics, err := observability.NewMetricsProvider(observability.MetricsConfig{})
	require.NoError(t, err)

	r := NewRegistry([]Entry{
		staticEntry("fine", okHandler("ok")),
		staticEntry("broken", SyncHandler(func(json.RawMessage) (*protocol.CallToolResult, error) {
			return nil, errors.New("nope")
		})),
	}, WithMetrics(metrics))

	_, err = r.CallTool(context.Background(), "fine", nil)
	require.NoError(t, err)
	_, err = r.CallTool(context.Background(), "broken", nil)
	require.NoError(t, err)
	_, err = r.CallTool(context.Background(), "unknown", nil)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(metrics.Registry(), "mcp_tool_call_duration_milliseconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestResultStatus(t *testing.T) {
	assert.Equal(t, mcperrors.StatusSuccess, resultStatus(protocol.NewToolResult("x", nil, false)))
	assert.Equal(t, mcperrors.StatusInternalError, resultStatus(protocol.NewToolResult("x", nil, true)))
	assert.Equal(t, mcperrors.StatusTimeout, resultStatus(protocol.NewToolResult("x", errorPayload{Status: mcperrors.StatusTimeout}, true)))
}

func TestDefaultRegistersEveryTool(t *testing.T) {
	r := Default(Options{})

	names := []string{}
	for _, tool := range r.ListTools() {
		names = append(names, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{
		"get_system_type",
		"get_current_time",
		"ping",
		"read ip",
		"cat file",
		"list files",
		"random string",
	}, names)
}
