package tools

import (
	"bytes"
	"encoding/json"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

// statusReporter is implemented by structured payloads that carry a status tag
type statusReporter interface {
	ToolStatus() string
}

// errorPayload is the structured content of a failed tool call
type errorPayload struct {
	Error  string `json:"error"`
	Target string `json:"target,omitempty"`
	Status string `json:"status"`
}

func (p errorPayload) ToolStatus() string { return p.Status }

// failure turns err into an error result whose status is derived from the
// error code.
func failure(err error) *protocol.CallToolResult {
	return protocol.NewToolResult(err.Error(), errorPayload{
		Error:  err.Error(),
		Status: mcperrors.StatusTag(err),
	}, true)
}

// resultStatus is the status tag recorded for a finished call
func resultStatus(res *protocol.CallToolResult) string {
	if sr, ok := res.StructuredContent.(statusReporter); ok {
		return sr.ToolStatus()
	}
	if res.IsError {
		return mcperrors.StatusInternalError
	}
	return mcperrors.StatusSuccess
}

// hasArgs reports whether the caller sent any arguments at all
func hasArgs(args json.RawMessage) bool {
	trimmed := bytes.TrimSpace(args)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeArgs decodes the argument object into target
func decodeArgs(args json.RawMessage, target interface{}) error {
	return json.Unmarshal(args, target)
}

func float(v float64) *float64 {
	return &v
}
