package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

const (
	// HeartbeatInterval paces the heartbeat event
	HeartbeatInterval = 30 * time.Second

	// KeepAliveInterval paces the keep-alive comment
	KeepAliveInterval = 15 * time.Second
)

// Ticker is the part of time.Ticker an event stream needs
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the TickerFactory backed by time.NewTicker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// acceptsEventStream rejects only clients that ask for JSON and nothing
// that could be an event stream. A missing header counts as */*.
func acceptsEventStream(accept string) bool {
	if accept == "" {
		return true
	}
	return !strings.Contains(accept, "application/json") ||
		strings.Contains(accept, "text/event-stream") ||
		strings.Contains(accept, "*/*")
}

// handleSSE sends the initialize envelope once, then a heartbeat event and a
// keep-alive comment on their own periods until the client goes away or a
// write fails.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if !acceptsEventStream(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Expected text/event-stream")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Streaming not supported")
		return
	}

	ctx := r.Context()
	connID := ulid.Make().String()
	log := s.logger.WithContext(ctx).WithFields(logging.String("connection_id", connID))

	handshake, err := protocol.NewResponse(protocol.NullID(), s.initializeResult())
	if err != nil {
		log.WithError(err).Error("Failed to build handshake")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	data, err := json.Marshal(handshake)
	if err != nil {
		log.WithError(err).Error("Failed to encode handshake")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	s.metrics.RecordActiveStreams(ctx, 1)
	defer s.metrics.RecordActiveStreams(ctx, -1)
	log.Info("Event stream opened")
	defer log.Info("Event stream closed")

	if err := writeEvent(w, "initialize", string(data)); err != nil {
		log.Debug("Event stream write failed", logging.ErrorField(err))
		return
	}
	flusher.Flush()

	heartbeat := s.newTicker(s.heartbeatPeriod)
	defer heartbeat.Stop()
	keepAlive := s.newTicker(s.keepAlivePeriod)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C():
			err = writeEvent(w, "heartbeat", "ping")
		case <-keepAlive.C():
			_, err = io.WriteString(w, ": keep-alive\n\n")
		}
		if err != nil {
			log.Debug("Event stream write failed", logging.ErrorField(err))
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
