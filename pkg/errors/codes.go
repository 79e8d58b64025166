package errors

// JSON-RPC 2.0 Standard Error Codes
const (
	// CodeParseError indicates invalid JSON was received by the server
	CodeParseError int = -32700

	// CodeInvalidRequest indicates the JSON sent is not a valid Request object
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound indicates the method does not exist / is not available
	CodeMethodNotFound int = -32601

	// CodeInvalidParams indicates invalid method parameter(s), including unknown tools
	CodeInvalidParams int = -32602

	// CodeInternalError indicates internal JSON-RPC error
	CodeInternalError int = -32603
)

// Tool level error codes. These never reach the wire as JSON-RPC errors;
// tools report them through the status tag of their result.
const (
	// File Errors (-32200 to -32299)
	CodeFileNotFound int = -32200 // Path does not exist
	CodeFileAccess   int = -32201 // Path exists but could not be read

	// Network Errors (-32500 to -32599)
	CodeNetworkError      int = -32500 // Generic network failure
	CodeConnectionFailed  int = -32501 // TCP connect refused or errored
	CodeConnectionTimeout int = -32503 // No outcome within the probe budget
	CodeResolveFailed     int = -32504 // Name resolution failed or was empty

	// Validation Errors (-32750 to -32799)
	CodeValidationError  int = -32750 // Generic validation error
	CodeMissingParameter int = -32751 // Required parameter missing
	CodeInvalidParameter int = -32752 // Parameter has invalid value
	CodeInvalidFormat    int = -32755 // Parameter has invalid format
)

// Status tags reported in the structured payload of tool results
const (
	StatusSuccess          = "success"
	StatusMissingArguments = "missing_arguments"
	StatusInvalidFormat    = "invalid_format"
	StatusInvalidArguments = "invalid_arguments"
	StatusResolveFailed    = "resolve_failed"
	StatusConnectionFailed = "connection_failed"
	StatusTimeout          = "timeout"
	StatusNetworkError     = "network_error"
	StatusInternalError    = "internal_error"
	StatusNotFound         = "not_found"
	StatusIOError          = "io_error"
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
	Status      string
}

var errorCodeRegistry = map[int]ErrorCodeInfo{
	CodeParseError:     {CodeParseError, "ParseError", "Invalid JSON was received", CategoryProtocol, SeverityError, StatusInvalidFormat},
	CodeInvalidRequest: {CodeInvalidRequest, "InvalidRequest", "Invalid Request object", CategoryProtocol, SeverityError, StatusInvalidFormat},
	CodeMethodNotFound: {CodeMethodNotFound, "MethodNotFound", "Method does not exist", CategoryProtocol, SeverityError, StatusInvalidArguments},
	CodeInvalidParams:  {CodeInvalidParams, "InvalidParams", "Invalid method parameters", CategoryValidation, SeverityError, StatusInvalidArguments},
	CodeInternalError:  {CodeInternalError, "InternalError", "Internal JSON-RPC error", CategoryInternal, SeverityError, StatusInternalError},

	CodeFileNotFound: {CodeFileNotFound, "FileNotFound", "File or directory not found", CategoryNotFound, SeverityWarning, StatusNotFound},
	CodeFileAccess:   {CodeFileAccess, "FileAccess", "File or directory could not be read", CategoryInternal, SeverityError, StatusIOError},

	CodeNetworkError:      {CodeNetworkError, "NetworkError", "Network error", CategoryNetwork, SeverityError, StatusNetworkError},
	CodeConnectionFailed:  {CodeConnectionFailed, "ConnectionFailed", "Connection failed", CategoryNetwork, SeverityWarning, StatusConnectionFailed},
	CodeConnectionTimeout: {CodeConnectionTimeout, "ConnectionTimeout", "Connection timeout", CategoryTimeout, SeverityWarning, StatusTimeout},
	CodeResolveFailed:     {CodeResolveFailed, "ResolveFailed", "Name resolution failed", CategoryNotFound, SeverityWarning, StatusResolveFailed},

	CodeValidationError:  {CodeValidationError, "ValidationError", "Validation error", CategoryValidation, SeverityError, StatusInvalidArguments},
	CodeMissingParameter: {CodeMissingParameter, "MissingParameter", "Required parameter missing", CategoryValidation, SeverityError, StatusMissingArguments},
	CodeInvalidParameter: {CodeInvalidParameter, "InvalidParameter", "Invalid parameter value", CategoryValidation, SeverityError, StatusInvalidArguments},
	CodeInvalidFormat:    {CodeInvalidFormat, "InvalidFormat", "Invalid parameter format", CategoryValidation, SeverityError, StatusInvalidFormat},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, exists := errorCodeRegistry[code]
	return info, exists
}

// GetErrorCodeName returns the name of an error code
func GetErrorCodeName(code int) string {
	if info, exists := GetErrorCodeInfo(code); exists {
		return info.Name
	}
	return "UnknownError"
}

// StatusTag returns the tool status tag for err. Errors outside the
// registry, and plain Go errors, map to internal_error.
func StatusTag(err error) string {
	if err == nil {
		return StatusSuccess
	}
	if mcpErr, ok := AsMCPError(err); ok {
		if info, exists := GetErrorCodeInfo(mcpErr.Code()); exists {
			return info.Status
		}
	}
	return StatusInternalError
}
