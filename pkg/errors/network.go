package errors

import (
	"fmt"
	"time"
)

// NetworkErrorData contains structured data for network failures
type NetworkErrorData struct {
	Target    string `json:"target,omitempty"`
	Operation string `json:"operation,omitempty"`
	Timeout   string `json:"timeout,omitempty"`
	Cause     string `json:"cause,omitempty"`
}

// NetworkError creates a generic network error
func NetworkError(operation string, cause error) MCPError {
	data := &NetworkErrorData{Operation: operation}
	if cause != nil {
		data.Cause = cause.Error()
	}

	return WrapError(
		cause,
		CodeNetworkError,
		fmt.Sprintf("Network error during %s", operation),
		CategoryNetwork,
		SeverityError,
	).WithData(data).WithContext(&Context{Operation: operation, Component: "netprobe"})
}

// ResolveFailed creates an error for a host that could not be resolved
func ResolveFailed(host string, cause error) MCPError {
	data := &NetworkErrorData{Target: host, Operation: "resolve"}
	if cause != nil {
		data.Cause = cause.Error()
	}

	return WrapError(
		cause,
		CodeResolveFailed,
		fmt.Sprintf("Failed to resolve %s", host),
		CategoryNotFound,
		SeverityWarning,
	).WithData(data).WithContext(&Context{Target: host, Operation: "resolve", Component: "netprobe"})
}

// ConnectionFailed creates an error for a refused or failed TCP connect
func ConnectionFailed(target string, cause error) MCPError {
	data := &NetworkErrorData{Target: target, Operation: "connect"}
	if cause != nil {
		data.Cause = cause.Error()
	}

	return WrapError(
		cause,
		CodeConnectionFailed,
		fmt.Sprintf("Failed to connect to %s", target),
		CategoryNetwork,
		SeverityWarning,
	).WithData(data).WithContext(&Context{Target: target, Operation: "connect", Component: "netprobe"})
}

// ConnectionTimeout creates an error for a connect that did not finish in time
func ConnectionTimeout(target string, timeout time.Duration) MCPError {
	return NewError(
		CodeConnectionTimeout,
		fmt.Sprintf("Connection to %s timed out after %v", target, timeout),
		CategoryTimeout,
		SeverityWarning,
	).WithData(&NetworkErrorData{
		Target:    target,
		Operation: "connect",
		Timeout:   timeout.String(),
	}).WithContext(&Context{Target: target, Operation: "connect", Component: "netprobe"})
}
