package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/liunian321/local-mcp-servers/pkg/protocol"
)

// ToJSONRPCError converts any error to a JSON-RPC error object
func ToJSONRPCError(err error) *protocol.Error {
	if err == nil {
		return nil
	}

	if mcpErr, ok := AsMCPError(err); ok {
		return &protocol.Error{
			Code:    mcpErr.Code(),
			Message: mcpErr.Message(),
			Data:    mcpErr.Data(),
		}
	}

	converted := ConvertStandardError(err)
	message := converted.Message()
	if converted.Category() == CategoryInternal {
		message = err.Error()
	}
	return &protocol.Error{
		Code:    converted.Code(),
		Message: message,
		Data:    converted.Data(),
	}
}

// ToErrorResponse converts any error to a JSON-RPC error envelope for id
func ToErrorResponse(err error, id protocol.RequestID) *protocol.Response {
	rpcErr := ToJSONRPCError(err)
	if rpcErr == nil {
		rpcErr = &protocol.Error{Code: CodeInternalError, Message: "Internal error"}
	}
	return protocol.NewErrorResponse(id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
}

// ConvertStandardError converts common Go errors to appropriate MCP errors
func ConvertStandardError(err error) MCPError {
	if err == nil {
		return nil
	}

	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr
	}

	if stderrors.Is(err, context.Canceled) {
		return WrapError(err, CodeInternalError, "Operation cancelled", CategoryCancelled, SeverityInfo)
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, CodeConnectionTimeout, "Operation timed out", CategoryTimeout, SeverityWarning)
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return WrapError(err, CodeParseError, "Parse error", CategoryProtocol, SeverityError)
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return WrapError(err, CodeInvalidParams, "Invalid parameter type", CategoryValidation, SeverityError).
			WithData(&ParameterErrorData{Parameter: typeErr.Field, Type: typeErr.Value, Reason: "expected " + typeErr.Type.String()})
	}

	return WrapError(err, CodeInternalError, "Internal error", CategoryInternal, SeverityError)
}

// CreateMethodNotFoundError creates a standardized method not found error
func CreateMethodNotFoundError(method string, requestID fmt.Stringer) MCPError {
	return NewError(
		CodeMethodNotFound,
		fmt.Sprintf("Method not found: %s", method),
		CategoryProtocol,
		SeverityError,
	).WithContext(requestContext(method, requestID))
}

// UnknownTool creates the error returned when tools/call names a tool that
// is not registered. An empty name is reported the same way.
func UnknownTool(name string, requestID fmt.Stringer) MCPError {
	ctx := requestContext(protocol.MethodCallTool, requestID)
	ctx.Tool = name

	return NewError(
		CodeInvalidParams,
		fmt.Sprintf("Unknown tool: %s", name),
		CategoryNotFound,
		SeverityWarning,
	).WithContext(ctx)
}

// CreateInvalidParamsError creates a standardized invalid params error
func CreateInvalidParamsError(method string, requestID fmt.Stringer, details string) MCPError {
	message := "Invalid method parameters"
	if details != "" {
		message = fmt.Sprintf("Invalid method parameters: %s", details)
	}

	return NewError(
		CodeInvalidParams,
		message,
		CategoryValidation,
		SeverityError,
	).WithContext(requestContext(method, requestID))
}

// CreateParseError creates a standardized parse error. The wire message is
// always "Parse error"; details stay in the error chain for logging.
func CreateParseError(details string) MCPError {
	err := NewError(CodeParseError, "Parse error", CategoryProtocol, SeverityError)
	if details != "" {
		err = err.WithDetail(details)
	}
	return err
}

// CreateInvalidRequestError creates a standardized invalid request error
func CreateInvalidRequestError(details string) MCPError {
	message := "Invalid Request"
	if details != "" {
		message = fmt.Sprintf("Invalid Request: %s", details)
	}

	return NewError(
		CodeInvalidRequest,
		message,
		CategoryProtocol,
		SeverityError,
	)
}

// CreateInternalError creates a standardized internal error with optional context
func CreateInternalError(operation string, cause error) MCPError {
	message := "Internal error"
	if operation != "" {
		message = fmt.Sprintf("Internal error during %s", operation)
	}

	err := WrapError(cause, CodeInternalError, message, CategoryInternal, SeverityError)
	if operation != "" {
		err = err.WithContext(&Context{Operation: operation})
	}

	return err
}

func requestContext(method string, requestID fmt.Stringer) *Context {
	ctx := &Context{Method: method}
	if requestID != nil {
		ctx.RequestID = requestID.String()
	}
	return ctx
}
