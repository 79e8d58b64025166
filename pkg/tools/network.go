package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/netprobe"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

const (
	// PingToolName is the registered name of the connectivity probe
	PingToolName = "ping"

	// ReadIPToolName is the registered name of the resolve-and-rank tool
	ReadIPToolName = "read ip"
)

type pingArgs struct {
	Target *string `json:"target"`
}

type pingPayload struct {
	*netprobe.PingResult
	Error string `json:"error,omitempty"`
}

func (p pingPayload) ToolStatus() string { return p.Status }

// PingTool tests TCP connectivity to a single target
func PingTool(prober *netprobe.Prober) Entry {
	return Entry{
		Tool: protocol.Tool{
			Name:        PingToolName,
			Title:       "Ping",
			Description: "Test TCP connectivity to a target and report the connect latency",
			InputSchema: protocol.ObjectSchema(map[string]*jsonschema.Schema{
				"target": {
					Type:        "string",
					Description: "Address to probe: a URL, host:port, IP address or domain",
				},
			}, "target"),
			Annotations: &protocol.ToolAnnotations{OpenWorldHint: boolPtr(true), ReadOnlyHint: boolPtr(true)},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (*protocol.CallToolResult, error) {
			return ping(ctx, prober, args), nil
		},
	}
}

func ping(ctx context.Context, prober *netprobe.Prober, args json.RawMessage) *protocol.CallToolResult {
	if !hasArgs(args) {
		return failure(mcperrors.MissingParameter("target"))
	}

	var a pingArgs
	if err := decodeArgs(args, &a); err != nil || a.Target == nil {
		return failure(mcperrors.InvalidFormat("arguments", string(args), `{"target": string}`))
	}

	target, err := netprobe.ParseTarget(*a.Target)
	if err != nil {
		invalid := mcperrors.InvalidFormat("target", *a.Target, "URL, host:port, IP address or domain")
		return protocol.NewToolResult(invalid.Error(), errorPayload{
			Error:  invalid.Error(),
			Target: *a.Target,
			Status: mcperrors.StatusTag(invalid),
		}, true)
	}

	result, err := prober.Ping(ctx, target, 0)
	payload := pingPayload{PingResult: result}

	var text string
	switch result.Status {
	case mcperrors.StatusSuccess:
		text = fmt.Sprintf("Connected to %s in %dms", result.Target, result.LatencyMs)
	case mcperrors.StatusTimeout:
		text = fmt.Sprintf("Connection to %s timed out after %dms", result.Target, result.LatencyMs)
	case mcperrors.StatusConnectionFailed:
		text = fmt.Sprintf("Connection to %s failed after %dms", result.Target, result.LatencyMs)
	default:
		text = err.Error()
	}
	if err != nil {
		payload.Error = err.Error()
	}

	return protocol.NewToolResult(text, payload, err != nil)
}

type readIPArgs struct {
	Domain *string `json:"domain"`
	DNS    string  `json:"dns"`
	Port   *uint16 `json:"port"`
}

type publicIPPayload struct {
	*netprobe.PublicIPOutcome
	Status string `json:"status"`
}

func (p publicIPPayload) ToolStatus() string { return p.Status }

type resolvePayload struct {
	*netprobe.ResolveOutcome
	Status string `json:"status"`
}

func (p resolvePayload) ToolStatus() string { return p.Status }

// ReadIPTool resolves a domain and ranks its addresses by TCP latency, or
// reports the public address of this host when no domain is given.
func ReadIPTool(prober *netprobe.Prober) Entry {
	return Entry{
		Tool: protocol.Tool{
			Name:  ReadIPToolName,
			Title: "Read IP",
			Description: "Resolve a domain and rank its addresses by connect latency; " +
				"without a domain, report the public IP of this host",
			InputSchema: protocol.ObjectSchema(map[string]*jsonschema.Schema{
				"domain": {
					Type:        "string",
					Description: "Domain to resolve (optional)",
				},
				"dns": {
					Type:        "string",
					Description: "DNS server as ip or ip:port (optional, defaults to 8.8.8.8 and 1.1.1.1)",
				},
				"port": {
					Type:        "integer",
					Description: "Port used to measure latency (optional, default 80)",
					Minimum:     float(1),
					Maximum:     float(65535),
				},
			}),
			Annotations: &protocol.ToolAnnotations{OpenWorldHint: boolPtr(true), ReadOnlyHint: boolPtr(true)},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (*protocol.CallToolResult, error) {
			return readIP(ctx, prober, args), nil
		},
	}
}

func readIP(ctx context.Context, prober *netprobe.Prober, args json.RawMessage) *protocol.CallToolResult {
	var a readIPArgs
	if hasArgs(args) {
		if err := decodeArgs(args, &a); err != nil {
			return failure(mcperrors.InvalidParameter("arguments", string(args), "object with optional domain, dns and port").
				WithDetail(err.Error()))
		}
	}

	if a.Domain == nil {
		outcome, err := prober.PublicIP(ctx)
		if err != nil {
			return failure(err)
		}
		return protocol.NewToolResult(
			fmt.Sprintf("Public IP: %s", outcome.PublicIP),
			publicIPPayload{PublicIPOutcome: outcome, Status: mcperrors.StatusSuccess},
			false,
		)
	}

	port := netprobe.DefaultProbePort
	if a.Port != nil {
		if *a.Port == 0 {
			return failure(mcperrors.InvalidParameter("port", int(*a.Port), "a port between 1 and 65535"))
		}
		port = *a.Port
	}

	// a blank domain resolves to nothing and is reported as resolve_failed
	outcome, err := prober.ResolveAndRank(ctx, strings.TrimSpace(*a.Domain), a.DNS, port)
	if err != nil {
		return failure(err)
	}

	return protocol.NewToolResult(
		rankText(outcome, port),
		resolvePayload{ResolveOutcome: outcome, Status: mcperrors.StatusSuccess},
		false,
	)
}

func rankText(outcome *netprobe.ResolveOutcome, port uint16) string {
	if len(outcome.TopIPs) == 0 {
		return fmt.Sprintf("Resolved %d address(es) for %s but none is reachable on port %d",
			len(outcome.Records), outcome.Domain, port)
	}

	parts := make([]string, len(outcome.TopIPs))
	for i, r := range outcome.TopIPs {
		parts[i] = fmt.Sprintf("%s (%s) %dms", r.IP, r.Family, *r.LatencyMs)
	}
	return fmt.Sprintf("Fastest addresses for %s: %s", outcome.Domain, strings.Join(parts, ", "))
}

func boolPtr(v bool) *bool {
	return &v
}
