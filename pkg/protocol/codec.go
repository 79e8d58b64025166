package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// DefaultMethod is the method name assumed when a lenient request carries none
const DefaultMethod = "unknown"

var (
	// ErrNotJSON is returned when a body is not valid JSON at all
	ErrNotJSON = errors.New("body is not valid JSON")

	// ErrInvalidEnvelope is returned when a body is JSON but not a strict request envelope
	ErrInvalidEnvelope = errors.New("invalid JSON-RPC request envelope")
)

// strictRequest mirrors Request with every field kept raw so presence and
// type can be checked individually.
type strictRequest struct {
	JSONRPC *string         `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// UnmarshalJSON decodes a request strictly: jsonrpc and method must be
// strings, id (when present) must be a string, an unsigned integer or null.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw strictRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.JSONRPC == nil {
		return fmt.Errorf("%w: missing jsonrpc", ErrInvalidEnvelope)
	}
	if raw.Method == nil {
		return fmt.Errorf("%w: missing method", ErrInvalidEnvelope)
	}

	req := Request{
		JSONRPCMessage: JSONRPCMessage{JSONRPC: *raw.JSONRPC},
		Method:         *raw.Method,
		Params:         raw.Params,
	}
	if len(raw.ID) > 0 {
		var id RequestID
		if err := id.UnmarshalJSON(raw.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		req.ID = &id
	}

	*r = req
	return nil
}

// DecodeStrict decodes data as a typed request envelope.
func DecodeStrict(data []byte) (*Request, error) {
	if !json.Valid(data) {
		return nil, ErrNotJSON
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		if errors.Is(err, ErrInvalidEnvelope) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &req, nil
}

// DecodeLenient decodes any JSON value into a request. The strict tier is
// tried first; when it fails the fields are extracted one by one with
// defaults, so only a body that is not JSON at all is rejected.
func DecodeLenient(data []byte) (*Request, error) {
	req, err := DecodeStrict(data)
	if err == nil {
		return req, nil
	}
	if errors.Is(err, ErrNotJSON) {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, ErrNotJSON
	}

	req = &Request{
		JSONRPCMessage: JSONRPCMessage{JSONRPC: JSONRPCVersion},
		Method:         DefaultMethod,
	}

	obj, ok := tree.(map[string]interface{})
	if !ok {
		return req, nil
	}

	if v, ok := obj["jsonrpc"].(string); ok {
		req.JSONRPC = v
	}
	if v, ok := obj["method"].(string); ok {
		req.Method = v
	}
	if v, present := obj["id"]; present {
		req.ID = lenientID(v)
	}
	if v, present := obj["params"]; present {
		params, err := json.Marshal(v)
		if err == nil {
			req.Params = params
		}
	}

	return req, nil
}

// lenientID maps an untyped id onto a RequestID; unsupported shapes yield nil.
func lenientID(v interface{}) *RequestID {
	var id RequestID
	switch val := v.(type) {
	case nil:
		id = NullID()
	case string:
		id = StringID(val)
	case json.Number:
		n, err := strconv.ParseUint(val.String(), 10, 64)
		if err != nil {
			return nil
		}
		id = NumberID(n)
	default:
		return nil
	}
	return &id
}

// DecodeParams strictly decodes the request params into target. Absent or
// null params leave target untouched.
func DecodeParams(req *Request, target interface{}) error {
	if len(req.Params) == 0 || string(bytes.TrimSpace(req.Params)) == "null" {
		return nil
	}

	if err := json.Unmarshal(req.Params, target); err != nil {
		return fmt.Errorf("invalid params for %s: %w", req.Method, err)
	}
	return nil
}
