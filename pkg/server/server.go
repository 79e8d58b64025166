package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
)

const (
	// DefaultName is reported in serverInfo
	DefaultName = "local_mcp_servers"

	// DefaultVersion is reported in serverInfo
	DefaultVersion = "0.1.0"

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second

	defaultReadHeaderTimeout = 10 * time.Second
)

// Server serves the MCP JSON-RPC surface and the event stream over HTTP
type Server struct {
	name    string
	version string

	tools ToolsProvider

	metrics observability.MetricsProvider
	tracing *observability.TracingProvider
	logger  logging.Logger

	// metricsEnabled exposes GET /metrics
	metricsEnabled bool

	newTicker       TickerFactory
	heartbeatPeriod time.Duration
	keepAlivePeriod time.Duration

	shutdownTimeout time.Duration
}

// ServerOption defines options for creating a server
type ServerOption func(*Server)

// WithName sets the server name
func WithName(name string) ServerOption {
	return func(s *Server) {
		s.name = name
	}
}

// WithVersion sets the server version
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithMetrics records request metrics and serves them at /metrics
func WithMetrics(metrics observability.MetricsProvider) ServerOption {
	return func(s *Server) {
		if metrics != nil {
			s.metrics = metrics
			s.metricsEnabled = true
		}
	}
}

// WithTracing sets the tracing provider
func WithTracing(tracing *observability.TracingProvider) ServerOption {
	return func(s *Server) {
		if tracing != nil {
			s.tracing = tracing
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTickerFactory replaces the ticker source of event streams
func WithTickerFactory(f TickerFactory) ServerOption {
	return func(s *Server) {
		if f != nil {
			s.newTicker = f
		}
	}
}

// WithShutdownTimeout bounds how long Serve waits for in-flight requests
func WithShutdownTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// New creates a server exposing tools
func New(tools ToolsProvider, options ...ServerOption) *Server {
	if tools == nil {
		panic("server: nil ToolsProvider")
	}

	s := &Server{
		name:            DefaultName,
		version:         DefaultVersion,
		tools:           tools,
		metrics:         observability.NoopMetricsProvider{},
		tracing:         observability.DisabledTracing(),
		logger:          logging.Nop(),
		newTicker:       NewTimeTicker,
		heartbeatPeriod: HeartbeatInterval,
		keepAlivePeriod: KeepAliveInterval,
		shutdownTimeout: DefaultShutdownTimeout,
	}

	for _, option := range options {
		option(s)
	}

	s.logger = s.logger.WithFields(logging.Component("server"))
	return s
}

// ListenAndServe listens on addr and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return mcperrors.NetworkError("listen", err).
			WithContext(&mcperrors.Context{
				Component: "Server",
				Operation: "ListenAndServe",
				Timestamp: time.Now(),
			}).
			WithDetail(fmt.Sprintf("address %s: %v", addr, err))
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. Open event streams are ended as part of the shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ErrorLog:          logging.StdLogger(s.logger, logging.ErrorLevel),
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelStreams)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("Server listening",
		logging.String("address", ln.Addr().String()),
		logging.String("name", s.name),
		logging.String("version", s.version),
		logging.Int("tools", len(s.tools.ListTools())),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", logging.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info("Server stopped")
	return nil
}
