// Package protocol defines the JSON-RPC envelopes and MCP types spoken by the
// server.
//
// # Package Organization
//
//   - jsonrpc.go: RequestID, Request, Response and Error envelopes
//   - codec.go: strict and lenient request decoding
//   - mcp.go: method names, protocol revision, initialize handshake
//   - tools.go: tool descriptors and tool call results
//
// # Request identifiers
//
// A RequestID is a string, an unsigned integer or null, and is echoed back
// with the variant the client used. A request without an id is a
// notification.
//
// # Decoding tiers
//
// DecodeStrict only accepts a well-formed envelope. DecodeLenient falls back
// to extracting each field from an untyped JSON tree, defaulting jsonrpc to
// "2.0" and method to "unknown", and dropping ids of any other type:
//
//	{"jsonrpc": "2.0", "id": 1, "method": "initialize"}
//
// Initialize response:
//
//	{
//	    "jsonrpc": "2.0",
//	    "id": 1,
//	    "result": {
//	        "capabilities": {"tools": {"listChanged": false}},
//	        "protocolVersion": "2025-06-18",
//	        "serverInfo": {"name": "local_mcp_servers", "version": "0.1.0"}
//	    }
//	}
package protocol
