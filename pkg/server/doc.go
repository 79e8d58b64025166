// Package server exposes a tool registry as an MCP JSON-RPC server over HTTP.
//
// Requests arrive on two tiers. POST / accepts any JSON body, fills in
// missing envelope fields and always answers with HTTP 200, carrying protocol
// errors inside the envelope. POST /tools/list and POST /tools/call require a
// well formed envelope and answer protocol errors with HTTP 400.
//
// GET /sse opens an event stream that announces the initialize result once
// and then emits a heartbeat event every 30 seconds and a keep-alive comment
// every 15 seconds until the client disconnects.
//
// A minimal server:
//
//	registry := tools.Default(tools.Options{})
//	srv := server.New(registry, server.WithLogger(logger))
//	if err := srv.ListenAndServe(ctx, "127.0.0.1:8080"); err != nil {
//	    // handle error
//	}
package server
