package server

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liunian321/local-mcp-servers/pkg/observability"
)

// fakeClock hands out tickers that only fire when the test advances time
type fakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	tickers []*fakeTicker
	created chan struct{}
}

type fakeTicker struct {
	period  time.Duration
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

func newFakeClock() *fakeClock {
	return &fakeClock{created: make(chan struct{}, 16)}
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{period: d, c: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	c.created <- struct{}{}
	return t
}

// waitTickers blocks until n tickers exist
func (c *fakeClock) waitTickers(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.created:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d tickers created", i, n)
		}
	}
}

// Advance moves time forward one second at a time and fires every ticker
// whose period divides the new time, in creation order. Each tick is handed
// over synchronously.
func (c *fakeClock) Advance(d time.Duration) {
	for step := time.Second; step <= d; step += time.Second {
		c.mu.Lock()
		c.now += time.Second
		now := c.now
		tickers := append([]*fakeTicker(nil), c.tickers...)
		c.mu.Unlock()

		for _, t := range tickers {
			if now%t.period != 0 {
				continue
			}
			select {
			case t.c <- time.Unix(0, 0).Add(now):
			case <-t.stopped:
			}
		}
	}
}

type sseReader struct {
	t       *testing.T
	lines   chan string
	cancel  context.CancelFunc
	resp    *http.Response
	closeCh chan struct{}
}

func openStream(t *testing.T, url, accept string) *sseReader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	r := &sseReader{t: t, lines: make(chan string, 64), cancel: cancel, resp: resp, closeCh: make(chan struct{})}
	go func() {
		defer close(r.closeCh)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			r.lines <- scanner.Text()
		}
		close(r.lines)
	}()

	t.Cleanup(r.Close)
	return r
}

func (r *sseReader) Close() {
	r.cancel()
	_ = r.resp.Body.Close()
	<-r.closeCh
}

// next returns the next non-empty line
func (r *sseReader) next() string {
	r.t.Helper()
	for {
		select {
		case line, ok := <-r.lines:
			if !ok {
				r.t.Fatal("stream closed")
			}
			if line != "" {
				return line
			}
		case <-time.After(5 * time.Second):
			r.t.Fatal("timed out waiting for stream data")
		}
	}
}

// pending reports whether a non-empty line is ready without waiting long
func (r *sseReader) pending() bool {
	for {
		select {
		case line, ok := <-r.lines:
			if !ok {
				return false
			}
			if line != "" {
				return true
			}
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}
}

func TestSSEHandshake(t *testing.T) {
	clock := newFakeClock()
	srv := newTestServer(t, WithTickerFactory(clock.NewTicker))

	stream := openStream(t, srv.URL+"/sse", "text/event-stream")

	assert.Equal(t, http.StatusOK, stream.resp.StatusCode)
	assert.Equal(t, "text/event-stream", stream.resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", stream.resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", stream.resp.Header.Get("Access-Control-Allow-Origin"))

	assert.Equal(t, "event: initialize", stream.next())
	data := stream.next()
	require.True(t, strings.HasPrefix(data, "data: "), data)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{"capabilities":{"tools":{"listChanged":false}},"protocolVersion":"2025-06-18","serverInfo":{"name":"local_mcp_servers","version":"0.1.0"}}}`,
		strings.TrimPrefix(data, "data: "))
}

func TestSSESchedule(t *testing.T) {
	clock := newFakeClock()
	srv := newTestServer(t, WithTickerFactory(clock.NewTicker))

	stream := openStream(t, srv.URL+"/sse", "")
	assert.Equal(t, "event: initialize", stream.next())
	stream.next()
	clock.waitTickers(t, 2)

	// nothing before the first keep-alive period
	clock.Advance(14 * time.Second)
	assert.False(t, stream.pending())

	clock.Advance(time.Second)
	assert.Equal(t, ": keep-alive", stream.next())

	// no heartbeat before 30s
	clock.Advance(14 * time.Second)
	assert.False(t, stream.pending())

	clock.Advance(time.Second)
	assert.Equal(t, "event: heartbeat", stream.next())
	assert.Equal(t, "data: ping", stream.next())
	assert.Equal(t, ": keep-alive", stream.next())

	clock.Advance(15 * time.Second)
	assert.Equal(t, ": keep-alive", stream.next())

	clock.Advance(15 * time.Second)
	assert.Equal(t, "event: heartbeat", stream.next())
	assert.Equal(t, "data: ping", stream.next())
	assert.Equal(t, ": keep-alive", stream.next())
}

func TestSSERejectsJSONOnlyClients(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "Expected text/event-stream", string(body[:n]))
}

func TestAcceptsEventStream(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", true},
		{"*/*", true},
		{"text/event-stream", true},
		{"application/json, text/event-stream", true},
		{"application/json, */*", true},
		{"text/html", true},
		{"application/json", false},
		{"application/json; charset=utf-8", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, acceptsEventStream(tt.accept), tt.accept)
	}
}

func TestSSEActiveStreamsGauge(t *testing.T) {
	metrics, err := observability.NewMetricsProvider(observability.MetricsConfig{})
	require.NoError(t, err)
	clock := newFakeClock()
	s := New(testRegistry(), WithMetrics(metrics), WithTickerFactory(clock.NewTicker))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	stream := openStream(t, srv.URL+"/sse", "text/event-stream")
	stream.next()
	clock.waitTickers(t, 2)

	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(activeStreams(1)), "mcp_active_streams"))

	stream.Close()
	assert.Eventually(t, func() bool {
		return testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(activeStreams(0)), "mcp_active_streams") == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func activeStreams(n int) string {
	return fmt.Sprintf(`# HELP mcp_active_streams Number of open event streams
# TYPE mcp_active_streams gauge
mcp_active_streams %d
`, n)
}
