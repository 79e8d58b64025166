package protocol

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Content types used in tool results
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// Tool represents a tool in the MCP protocol
type Tool struct {
	Name         string             `json:"name"`
	Title        string             `json:"title,omitempty"`
	Description  string             `json:"description"`
	InputSchema  InputSchema        `json:"inputSchema"`
	OutputSchema *jsonschema.Schema `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations   `json:"annotations,omitempty"`
}

// InputSchema declares the shape of a tool's arguments
type InputSchema struct {
	Type       string                        `json:"type"`
	Properties map[string]*jsonschema.Schema `json:"properties,omitempty"`
	Required   []string                      `json:"required,omitempty"`
}

// ObjectSchema returns an object input schema with the given properties
func ObjectSchema(properties map[string]*jsonschema.Schema, required ...string) InputSchema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return InputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// ToolAnnotations carries optional hints about tool behaviour
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    *bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

// ListToolsParams defines parameters for listing tools
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult defines the response for listing tools.
// NextCursor is never set: every listing is a single page.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CallToolParams defines parameters for calling a tool
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Content is one block of a tool result
type Content struct {
	Type        string              `json:"type"`
	Text        string              `json:"text,omitempty"`
	Data        string              `json:"data,omitempty"`
	MimeType    string              `json:"mimeType,omitempty"`
	Annotations *ContentAnnotations `json:"annotations,omitempty"`
}

// ContentAnnotations tells the client who a content block is for
type ContentAnnotations struct {
	Audience []string `json:"audience,omitempty"`
	Priority *float64 `json:"priority,omitempty"`
}

// CallToolResult defines the response for tool calls. IsError reports a tool
// level failure and travels inside a successful response envelope.
type CallToolResult struct {
	Content           []Content   `json:"content"`
	IsError           bool        `json:"isError"`
	StructuredContent interface{} `json:"structuredContent,omitempty"`
}

// TextContent returns a text content block
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// NewToolResult builds a result with one text block and a structured payload
func NewToolResult(text string, structured interface{}, isError bool) *CallToolResult {
	return &CallToolResult{
		Content:           []Content{TextContent(text)},
		IsError:           isError,
		StructuredContent: structured,
	}
}
