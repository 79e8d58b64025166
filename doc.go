// Package localmcp serves a fixed set of local system and network tools to
// MCP clients over JSON-RPC on HTTP.
//
// The root package re-exports the pieces most embedders need. The server
// itself lives in pkg/server, the tool set in pkg/tools and the network
// probes behind ping and read ip in pkg/netprobe.
//
// # Running a server
//
//	s := localmcp.NewServer(localmcp.ToolOptions{})
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := s.ListenAndServe(ctx, "127.0.0.1:8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
//	POST /             lenient JSON-RPC, every error is a 200 envelope
//	POST /tools/list   strict JSON-RPC, errors are 400
//	POST /tools/call   strict JSON-RPC, errors are 400
//	GET  /sse          event stream with an initialize event and heartbeats
//	GET  /metrics      Prometheus metrics, when enabled
//
// The cmd/local-mcp-servers command wraps all of this with a YAML config
// file, environment overrides and signal handling.
package localmcp
