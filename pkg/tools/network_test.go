package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/netprobe"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

func startListener(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// countingDialer fails the test if any connection is attempted
type countingDialer struct {
	t *testing.T
}

func (d countingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.t.Errorf("unexpected dial to %s", address)
	return nil, fmt.Errorf("dial not allowed")
}

type hangingDialer struct{}

func (hangingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func callPing(t *testing.T, prober *netprobe.Prober, args string) *protocol.CallToolResult {
	t.Helper()
	var raw json.RawMessage
	if args != "" {
		raw = json.RawMessage(args)
	}
	result, err := PingTool(prober).Handler(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestPingToolSuccess(t *testing.T) {
	port := startListener(t)

	result := callPing(t, netprobe.New(), fmt.Sprintf(`{"target":"127.0.0.1:%d"}`, port))

	assert.False(t, result.IsError)
	payload, ok := result.StructuredContent.(pingPayload)
	require.True(t, ok)
	assert.Equal(t, mcperrors.StatusSuccess, payload.Status)
	assert.True(t, payload.Connected)
	assert.False(t, payload.Timeout)
	assert.Empty(t, payload.Error)
	assert.Contains(t, result.Content[0].Text, fmt.Sprintf("Connected to 127.0.0.1:%d", port))
}

func TestPingToolConnectionFailed(t *testing.T) {
	port := closedPort(t)

	result := callPing(t, netprobe.New(), fmt.Sprintf(`{"target":"127.0.0.1:%d"}`, port))

	assert.True(t, result.IsError)
	payload := result.StructuredContent.(pingPayload)
	assert.Equal(t, mcperrors.StatusConnectionFailed, payload.Status)
	assert.False(t, payload.Connected)
	assert.NotEmpty(t, payload.Error)
}

func TestPingToolTimeout(t *testing.T) {
	prober := netprobe.New(netprobe.WithDialer(hangingDialer{}), netprobe.WithPingTimeout(40*time.Millisecond))

	result := callPing(t, prober, `{"target":"192.0.2.1:80"}`)

	assert.True(t, result.IsError)
	payload := result.StructuredContent.(pingPayload)
	assert.Equal(t, mcperrors.StatusTimeout, payload.Status)
	assert.True(t, payload.Timeout)
	assert.Equal(t, int64(40), payload.LatencyMs)
	assert.Contains(t, result.Content[0].Text, "timed out after 40ms")
}

func TestPingToolRejectsArgumentsWithoutNetwork(t *testing.T) {
	prober := netprobe.New(netprobe.WithDialer(countingDialer{t: t}))

	tests := []struct {
		name   string
		args   string
		status string
	}{
		{"absent", "", mcperrors.StatusMissingArguments},
		{"null", "null", mcperrors.StatusMissingArguments},
		{"not an object", `"example.com"`, mcperrors.StatusInvalidFormat},
		{"wrong type", `{"target": 42}`, mcperrors.StatusInvalidFormat},
		{"no target", `{"host":"example.com"}`, mcperrors.StatusInvalidFormat},
		{"bad target", `{"target":"not a host"}`, mcperrors.StatusInvalidFormat},
		{"empty target", `{"target":"   "}`, mcperrors.StatusInvalidFormat},
		{"bad port", `{"target":"example.com:99999"}`, mcperrors.StatusInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callPing(t, prober, tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.status, resultStatus(result))
		})
	}
}

func TestPingToolEchoesBadTarget(t *testing.T) {
	result := callPing(t, netprobe.New(netprobe.WithDialer(countingDialer{t: t})), `{"target":"nohost"}`)

	payload, ok := result.StructuredContent.(errorPayload)
	require.True(t, ok)
	assert.Equal(t, "nohost", payload.Target)
	assert.Equal(t, mcperrors.StatusInvalidFormat, payload.Status)
}

func callReadIP(t *testing.T, prober *netprobe.Prober, args string) *protocol.CallToolResult {
	t.Helper()
	var raw json.RawMessage
	if args != "" {
		raw = json.RawMessage(args)
	}
	result, err := ReadIPTool(prober).Handler(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestReadIPToolPublicAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ip":"203.0.113.9"}`)
	}))
	t.Cleanup(srv.Close)
	prober := netprobe.New(netprobe.WithPublicIPServices(srv.URL))

	for _, args := range []string{"", "{}", "null"} {
		result := callReadIP(t, prober, args)
		assert.False(t, result.IsError)
		assert.Equal(t, "Public IP: 203.0.113.9", result.Content[0].Text)

		payload, ok := result.StructuredContent.(publicIPPayload)
		require.True(t, ok)
		assert.Equal(t, "203.0.113.9", payload.PublicIP)
		assert.Equal(t, mcperrors.StatusSuccess, payload.Status)
	}
}

func TestReadIPToolPublicAddressFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	result := callReadIP(t, netprobe.New(netprobe.WithPublicIPServices(srv.URL)), "")

	assert.True(t, result.IsError)
	assert.Equal(t, mcperrors.StatusNetworkError, resultStatus(result))
}

func TestReadIPToolRanksLiteral(t *testing.T) {
	port := startListener(t)

	result := callReadIP(t, netprobe.New(), fmt.Sprintf(`{"domain":"127.0.0.1","port":%d}`, port))

	assert.False(t, result.IsError)
	payload, ok := result.StructuredContent.(resolvePayload)
	require.True(t, ok)
	assert.Equal(t, mcperrors.StatusSuccess, payload.Status)
	require.Len(t, payload.Records, 1)
	require.Len(t, payload.TopIPs, 1)
	assert.Equal(t, "127.0.0.1", payload.TopIPs[0].IP)
	assert.Contains(t, result.Content[0].Text, "Fastest addresses for 127.0.0.1: 127.0.0.1 (v4)")
}

func TestReadIPToolNothingReachable(t *testing.T) {
	port := closedPort(t)

	result := callReadIP(t, netprobe.New(), fmt.Sprintf(`{"domain":"127.0.0.1","port":%d}`, port))

	assert.False(t, result.IsError)
	payload := result.StructuredContent.(resolvePayload)
	assert.NotNil(t, payload.TopIPs)
	assert.Empty(t, payload.TopIPs)
	assert.Len(t, payload.Records, 1)
	assert.Contains(t, result.Content[0].Text, "none is reachable")
}

func TestReadIPToolInvalidArguments(t *testing.T) {
	prober := netprobe.New(netprobe.WithDialer(countingDialer{t: t}))

	tests := []struct {
		name string
		args string
	}{
		{"not an object", `[1,2]`},
		{"bad dns", `{"domain":"example.com","dns":"not-an-ip"}`},
		{"port out of range", `{"domain":"example.com","port":70000}`},
		{"zero port", `{"domain":"127.0.0.1","port":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callReadIP(t, prober, tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, mcperrors.StatusInvalidArguments, resultStatus(result))
		})
	}
}

func TestReadIPToolBlankDomain(t *testing.T) {
	prober := netprobe.New(netprobe.WithDialer(countingDialer{t: t}))

	for _, args := range []string{`{"domain":""}`, `{"domain":"  "}`} {
		result := callReadIP(t, prober, args)
		assert.True(t, result.IsError, args)
		assert.Equal(t, mcperrors.StatusResolveFailed, resultStatus(result), args)
		assert.Contains(t, result.Content[0].Text, "empty domain", args)
	}
}
