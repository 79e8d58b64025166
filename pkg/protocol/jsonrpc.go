package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// JSONRPCVersion is the supported JSON-RPC version
	JSONRPCVersion = "2.0"
)

// ErrorCode represents standard JSON-RPC 2.0 error codes
type ErrorCode = int

// Standard error codes as per JSON-RPC 2.0 specification
const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603
)

// IDKind identifies which variant a RequestID holds
type IDKind int

const (
	// IDNull is the JSON null identifier
	IDNull IDKind = iota
	// IDString is a string identifier
	IDString
	// IDNumber is an unsigned integer identifier
	IDNumber
)

// RequestID is a JSON-RPC request identifier: a string, an unsigned integer
// or null. The variant supplied by the client is preserved exactly so the
// response can echo it back.
type RequestID struct {
	kind IDKind
	str  string
	num  uint64
}

// StringID returns a string request identifier
func StringID(s string) RequestID {
	return RequestID{kind: IDString, str: s}
}

// NumberID returns an unsigned integer request identifier
func NumberID(n uint64) RequestID {
	return RequestID{kind: IDNumber, num: n}
}

// NullID returns the null request identifier
func NullID() RequestID {
	return RequestID{kind: IDNull}
}

// Kind reports the variant held by the identifier
func (id RequestID) Kind() IDKind {
	return id.kind
}

// String returns a printable form, used for logging and error context
func (id RequestID) String() string {
	switch id.kind {
	case IDString:
		return id.str
	case IDNumber:
		return strconv.FormatUint(id.num, 10)
	default:
		return "null"
	}
}

// MarshalJSON implements json.Marshaler
func (id RequestID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case IDString:
		return json.Marshal(id.str)
	case IDNumber:
		return []byte(strconv.FormatUint(id.num, 10)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Only strings, unsigned integers
// and null are accepted.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty request id")
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid request id %q", data)
		}
		*id = NullID()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid string request id: %w", err)
		}
		*id = StringID(s)
		return nil
	default:
		n, err := strconv.ParseUint(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("request id must be a string, an unsigned integer or null: %s", data)
		}
		*id = NumberID(n)
		return nil
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message
type JSONRPCMessage struct {
	JSONRPC string `json:"jsonrpc"`
}

// Request represents a JSON-RPC 2.0 request. A nil ID marks a notification.
type Request struct {
	JSONRPCMessage
	ID     *RequestID      `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewRequest creates a new JSON-RPC 2.0 request
func NewRequest(id RequestID, method string, params interface{}) (*Request, error) {
	paramsJSON, err := marshalOptional(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	return &Request{
		JSONRPCMessage: JSONRPCMessage{JSONRPC: JSONRPCVersion},
		ID:             &id,
		Method:         method,
		Params:         paramsJSON,
	}, nil
}

// IsNotification reports whether the request carries no id
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC 2.0 response. The id is always serialized,
// as null when the request id was null or unknown.
type Response struct {
	JSONRPCMessage
	ID     RequestID       `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// NewResponse creates a new JSON-RPC 2.0 success response
func NewResponse(id RequestID, result interface{}) (*Response, error) {
	resultJSON, err := marshalOptional(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	if resultJSON == nil {
		resultJSON = json.RawMessage("{}")
	}

	return &Response{
		JSONRPCMessage: JSONRPCMessage{JSONRPC: JSONRPCVersion},
		ID:             id,
		Result:         resultJSON,
	}, nil
}

// NewErrorResponse creates a new JSON-RPC 2.0 error response
func NewErrorResponse(id RequestID, code ErrorCode, message string, data interface{}) *Response {
	return &Response{
		JSONRPCMessage: JSONRPCMessage{JSONRPC: JSONRPCVersion},
		ID:             id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// Error represents a JSON-RPC 2.0 error object
type Error struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error: code = %d desc = %s", e.Code, e.Message)
}

func marshalOptional(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
