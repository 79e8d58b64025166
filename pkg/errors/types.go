// Package errors provides structured error handling for the server.
// It defines error types that map to JSON-RPC error codes and to the status
// tags reported by tools, and carries context for logging.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"
)

// Category represents the type/category of an error for classification and handling
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryNetwork    Category = "network"
	CategoryInternal   Category = "internal"
	CategoryTimeout    Category = "timeout"
	CategoryCancelled  Category = "cancelled"
	CategoryProtocol   Category = "protocol"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context provides additional context about where and when an error occurred
type Context struct {
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component,omitempty"`
	Operation string    `json:"operation,omitempty"`
}

// MCPError defines the interface for all errors raised by the server
type MCPError interface {
	error

	// Code returns the JSON-RPC error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Details returns detailed technical description for debugging
	Details() string

	// Data returns structured error data for programmatic handling
	Data() interface{}

	// Category returns the error category for classification
	Category() Category

	// Severity returns the error severity level
	Severity() Severity

	// Context returns the error context information
	Context() *Context

	// WithContext returns a new error with the provided context
	WithContext(ctx *Context) MCPError

	// WithDetail returns a new error with additional detail
	WithDetail(detail string) MCPError

	// WithData returns a new error with structured data
	WithData(data interface{}) MCPError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map
	ToJSON() map[string]interface{}
}

type baseError struct {
	code     int
	message  string
	details  string
	data     interface{}
	category Category
	severity Severity
	context  *Context
	cause    error
}

func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

func (e *baseError) Code() int {
	return e.code
}

func (e *baseError) Message() string {
	return e.message
}

func (e *baseError) Details() string {
	return e.details
}

func (e *baseError) Data() interface{} {
	return e.data
}

func (e *baseError) Category() Category {
	return e.category
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) Context() *Context {
	return e.context
}

// WithContext returns a copy carrying ctx. A zero timestamp is filled in.
func (e *baseError) WithContext(ctx *Context) MCPError {
	newErr := *e
	if ctx != nil && ctx.Timestamp.IsZero() {
		c := *ctx
		c.Timestamp = time.Now()
		ctx = &c
	}
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a copy with detail appended to any existing details
func (e *baseError) WithDetail(detail string) MCPError {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

func (e *baseError) WithData(data interface{}) MCPError {
	newErr := *e
	newErr.data = data
	return &newErr
}

func (e *baseError) Unwrap() error {
	return e.cause
}

// ToJSON returns the error as a JSON-serializable map
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}

	if e.data != nil {
		result["data"] = e.data
	}

	if e.context != nil {
		result["context"] = e.context
	}

	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler for baseError
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// NewError creates a new MCPError with the specified parameters
func NewError(code int, message string, category Category, severity Severity) MCPError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// WrapError wraps an existing error as an MCPError
func WrapError(err error, code int, message string, category Category, severity Severity) MCPError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// AsMCPError finds the first MCPError in err's tree
func AsMCPError(err error) (MCPError, bool) {
	var mcpErr MCPError
	if stderrors.As(err, &mcpErr) {
		return mcpErr, true
	}
	return nil, false
}

// IsMCPError checks if an error is an MCPError
func IsMCPError(err error) bool {
	_, ok := AsMCPError(err)
	return ok
}

// IsCategory checks if an error is of a specific category
func IsCategory(err error, category Category) bool {
	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr.Category() == category
	}
	return false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code int) bool {
	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr.Code() == code
	}
	return false
}
