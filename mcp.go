package localmcp

import (
	"github.com/liunian321/local-mcp-servers/pkg/server"
	"github.com/liunian321/local-mcp-servers/pkg/tools"
)

// Version is the release reported in serverInfo
const Version = server.DefaultVersion

// ToolOptions configures the built-in tool set
type ToolOptions = tools.Options

var (
	// NewRegistry builds a tool registry from explicit entries
	NewRegistry = tools.NewRegistry

	// DefaultTools returns a registry holding every built-in tool
	DefaultTools = tools.Default

	// NewServerWithTools serves an arbitrary tool provider
	NewServerWithTools = server.New
)

// NewServer serves the built-in tool set
func NewServer(opts ToolOptions, serverOpts ...server.ServerOption) *server.Server {
	return server.New(tools.Default(opts), serverOpts...)
}
