package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

const (
	// RunningMessage is the body of GET /
	RunningMessage = "MCP Server is running!"

	// maxBodyBytes caps request bodies
	maxBodyBytes = 1 << 20
)

// Handler returns the HTTP surface of the server:
//
//	GET  /            liveness text
//	POST /            lenient JSON-RPC entry point, always 200
//	GET  /sse         event stream
//	POST /tools/list  strict tools/list, 400 on protocol errors
//	POST /tools/call  strict tools/call, 400 on protocol errors
//	GET  /metrics     Prometheus exposition, when metrics are enabled
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /{$}", s.handleGeneric)
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("POST /tools/list", s.handleStrict(protocol.MethodListTools))
	mux.HandleFunc("POST /tools/call", s.handleStrict(protocol.MethodCallTool))
	if s.metricsEnabled {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var h http.Handler = mux
	h = observability.HTTPMiddleware(s.tracing)(h)
	h = logging.HTTPMiddleware(s.logger, &logging.UUIDGenerator{})(h)
	return h
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, RunningMessage)
}

// handleGeneric accepts any JSON body. Protocol errors travel in the
// envelope, so the status is always 200.
func (s *Server) handleGeneric(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, r, http.StatusOK, mcperrors.ToErrorResponse(mcperrors.CreateParseError(err.Error()), protocol.NullID()))
		return
	}

	req, err := protocol.DecodeLenient(body)
	if err != nil {
		s.metrics.RecordError(r.Context(), "parse_error", otherMethod)
		s.writeJSON(w, r, http.StatusOK, mcperrors.ToErrorResponse(mcperrors.CreateParseError(err.Error()), protocol.NullID()))
		return
	}

	resp := s.Dispatch(r.Context(), req)
	if resp == nil {
		s.writeJSON(w, r, http.StatusOK, struct{}{})
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleStrict serves a typed endpoint: the body must be a well formed
// request envelope with an id, and params must match the method's shape.
func (s *Server) handleStrict(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.writeStrictError(w, r, method, mcperrors.CreateParseError(err.Error()))
			return
		}

		req, err := protocol.DecodeStrict(body)
		switch {
		case errors.Is(err, protocol.ErrNotJSON):
			s.writeStrictError(w, r, method, mcperrors.CreateParseError(err.Error()))
			return
		case err != nil:
			s.writeStrictError(w, r, method, mcperrors.CreateInvalidRequestError(err.Error()))
			return
		case req.ID == nil:
			s.writeStrictError(w, r, method, mcperrors.CreateInvalidRequestError("missing id"))
			return
		}

		resp := s.dispatchStrict(r.Context(), method, req)
		status := http.StatusOK
		if resp.Error != nil {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, r, status, resp)
	}
}

func (s *Server) writeStrictError(w http.ResponseWriter, r *http.Request, method string, err error) {
	s.metrics.RecordError(r.Context(), observability.ErrorType(err), method)
	s.logger.WithContext(r.Context()).WithError(err).Warn("Rejected request",
		logging.String("rpc_method", method),
	)
	s.writeJSON(w, r, http.StatusBadRequest, mcperrors.ToErrorResponse(err, protocol.NullID()))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("Failed to encode response")
		data = []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":null,"error":{"code":%d,"message":"Internal error"}}`, mcperrors.CodeInternalError))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.WithContext(r.Context()).Debug("Failed to write response", logging.ErrorField(err))
	}
}
