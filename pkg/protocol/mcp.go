package protocol

const (
	// Current protocol revision
	ProtocolRevision = "2025-06-18"

	// Methods for lifecycle management
	MethodInitialize = "initialize"

	// Methods for server features
	MethodListTools = "tools/list"
	MethodCallTool  = "tools/call"
)

// CapabilityType defines the types of capabilities in MCP
type CapabilityType string

const (
	// CapabilityTools indicates the server supports tools
	CapabilityTools CapabilityType = "tools"
)

// InitializeResult defines the response for the initialize request
type InitializeResult struct {
	Capabilities    ServerCapabilities `json:"capabilities"`
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// ServerCapabilities describes what features the server supports
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability indicates that the server supports tools.
// ListChanged is always serialized; this server never emits list updates.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerInfo provides additional information about the server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewInitializeResult builds the fixed handshake payload for a server
func NewInitializeResult(name, version string) *InitializeResult {
	return &InitializeResult{
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ProtocolVersion: ProtocolRevision,
		ServerInfo: ServerInfo{
			Name:    name,
			Version: version,
		},
	}
}
