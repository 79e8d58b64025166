package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	mcperrors "github.com/liunian321/local-mcp-servers/pkg/errors"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/protocol"
	"github.com/liunian321/local-mcp-servers/pkg/tools"
)

// ToolsProvider lists and invokes tools. CallTool reports unknown names with
// an error wrapping tools.ErrUnknownTool; every other failure is a result
// with IsError set.
type ToolsProvider interface {
	ListTools() []protocol.Tool
	CallTool(ctx context.Context, name string, args json.RawMessage) (*protocol.CallToolResult, error)
}

// otherMethod labels metrics for methods the server does not implement
const otherMethod = "other"

// Dispatch runs one request on the lenient path and returns its response.
// Notifications do no work and return nil.
func (s *Server) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	if req.IsNotification() {
		s.logger.WithContext(ctx).Debug("Notification ignored", logging.String("rpc_method", req.Method))
		return nil
	}
	return s.dispatch(ctx, req.Method, req, false)
}

// dispatchStrict runs req as method with strict params decoding. It serves
// the typed endpoints, which fix the method by path.
func (s *Server) dispatchStrict(ctx context.Context, method string, req *protocol.Request) *protocol.Response {
	return s.dispatch(ctx, method, req, true)
}

func (s *Server) dispatch(ctx context.Context, method string, req *protocol.Request, strict bool) *protocol.Response {
	id := protocol.NullID()
	if req.ID != nil {
		id = *req.ID
	}

	label := method
	switch method {
	case protocol.MethodInitialize, protocol.MethodListTools, protocol.MethodCallTool:
	default:
		label = otherMethod
	}

	start := time.Now()
	ctx, span := s.tracing.StartMethodSpan(ctx, label)
	defer span.End()
	s.tracing.SetAttributes(ctx, attribute.String("mcp.request_id", id.String()))

	var (
		result interface{}
		err    error
	)
	switch method {
	case protocol.MethodInitialize:
		result = s.initializeResult()
	case protocol.MethodListTools:
		result, err = s.handleListTools(req, id, strict)
	case protocol.MethodCallTool:
		result, err = s.handleCallTool(ctx, req, id, strict)
	default:
		err = mcperrors.CreateMethodNotFoundError(method, id)
	}

	var resp *protocol.Response
	if err == nil {
		resp, err = protocol.NewResponse(id, result)
		if err != nil {
			err = mcperrors.CreateInternalError("encode result", err).WithDetail(err.Error())
		}
	}

	duration := time.Since(start)
	log := s.logger.WithContext(ctx).WithFields(
		logging.String("rpc_method", method),
		logging.String("rpc_id", id.String()),
		logging.Duration("duration", duration),
	)

	if err != nil {
		errType := observability.ErrorType(err)
		s.metrics.RecordRequest(ctx, label, "error", duration)
		s.metrics.RecordError(ctx, errType, label)
		s.tracing.RecordError(ctx, err)
		log.WithError(err).Warn("Request failed", logging.String("error_type", errType))
		return mcperrors.ToErrorResponse(err, id)
	}

	s.metrics.RecordRequest(ctx, label, "ok", duration)
	log.Debug("Request handled")
	return resp
}

func (s *Server) initializeResult() *protocol.InitializeResult {
	return protocol.NewInitializeResult(s.name, s.version)
}

// handleListTools returns every registered tool. The cursor is accepted but
// there is never a second page. On the lenient path malformed params are
// ignored.
func (s *Server) handleListTools(req *protocol.Request, id protocol.RequestID, strict bool) (*protocol.ListToolsResult, error) {
	var params protocol.ListToolsParams
	if err := protocol.DecodeParams(req, &params); err != nil && strict {
		return nil, mcperrors.CreateInvalidParamsError(protocol.MethodListTools, id, err.Error())
	}

	return &protocol.ListToolsResult{Tools: s.tools.ListTools()}, nil
}

// handleCallTool invokes the named tool. Params that do not decode leave the
// name empty on the lenient path, which reports as an unknown tool.
func (s *Server) handleCallTool(ctx context.Context, req *protocol.Request, id protocol.RequestID, strict bool) (*protocol.CallToolResult, error) {
	var params protocol.CallToolParams
	if err := protocol.DecodeParams(req, &params); err != nil {
		if strict {
			return nil, mcperrors.CreateInvalidParamsError(protocol.MethodCallTool, id, err.Error())
		}
		params = protocol.CallToolParams{}
	}

	if params.Name == "" {
		return nil, mcperrors.UnknownTool(params.Name, id)
	}

	result, err := s.tools.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			return nil, mcperrors.UnknownTool(params.Name, id)
		}
		return nil, mcperrors.CreateInternalError("tool "+params.Name, err).WithDetail(err.Error())
	}
	return result, nil
}
