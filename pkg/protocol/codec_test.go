package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStrict(t *testing.T) {
	req, err := DecodeStrict([]byte(`{"jsonrpc":"2.0","id":"x","method":"tools/list","params":{"cursor":"c"}}`))
	require.NoError(t, err)
	require.NotNil(t, req.ID)
	assert.Equal(t, StringID("x"), *req.ID)
	assert.Equal(t, "tools/list", req.Method)
	assert.JSONEq(t, `{"cursor":"c"}`, string(req.Params))
}

func TestDecodeStrictFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "not json", body: `{oops`, wantErr: ErrNotJSON},
		{name: "empty body", body: ``, wantErr: ErrNotJSON},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":1}`, wantErr: ErrInvalidEnvelope},
		{name: "missing jsonrpc", body: `{"id":1,"method":"initialize"}`, wantErr: ErrInvalidEnvelope},
		{name: "numeric jsonrpc", body: `{"jsonrpc":2,"id":1,"method":"initialize"}`, wantErr: ErrInvalidEnvelope},
		{name: "negative id", body: `{"jsonrpc":"2.0","id":-1,"method":"initialize"}`, wantErr: ErrInvalidEnvelope},
		{name: "object id", body: `{"jsonrpc":"2.0","id":{},"method":"initialize"}`, wantErr: ErrInvalidEnvelope},
		{name: "array body", body: `[1,2]`, wantErr: ErrInvalidEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStrict([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDecodeStrictNullID(t *testing.T) {
	req, err := DecodeStrict([]byte(`{"jsonrpc":"2.0","id":null,"method":"initialize"}`))
	require.NoError(t, err)
	require.NotNil(t, req.ID)
	assert.Equal(t, IDNull, req.ID.Kind())
	assert.False(t, req.IsNotification())
}

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		jsonrpc string
		method  string
		id      *RequestID
		params  string
	}{
		{
			name:    "strict body passes through",
			body:    `{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
			jsonrpc: "2.0",
			method:  "initialize",
			id:      idPtr(NumberID(1)),
		},
		{
			name:    "missing jsonrpc defaults",
			body:    `{"id":"a","method":"tools/list"}`,
			jsonrpc: "2.0",
			method:  "tools/list",
			id:      idPtr(StringID("a")),
		},
		{
			name:    "non-string jsonrpc defaults",
			body:    `{"jsonrpc":2,"id":5,"method":"tools/list"}`,
			jsonrpc: "2.0",
			method:  "tools/list",
			id:      idPtr(NumberID(5)),
		},
		{
			name:    "missing method becomes unknown",
			body:    `{"jsonrpc":"2.0","id":7}`,
			jsonrpc: "2.0",
			method:  DefaultMethod,
			id:      idPtr(NumberID(7)),
		},
		{
			name:    "fractional id collapses to none",
			body:    `{"jsonrpc":"2.0","id":1.5,"method":"initialize"}`,
			jsonrpc: "2.0",
			method:  "initialize",
		},
		{
			name:    "negative id collapses to none",
			body:    `{"id":-3,"method":"initialize"}`,
			jsonrpc: "2.0",
			method:  "initialize",
		},
		{
			name:    "boolean id collapses to none",
			body:    `{"id":true,"method":"initialize"}`,
			jsonrpc: "2.0",
			method:  "initialize",
		},
		{
			name:    "null id is kept",
			body:    `{"id":null,"method":4}`,
			jsonrpc: "2.0",
			method:  DefaultMethod,
			id:      idPtr(NullID()),
		},
		{
			name:    "params passed through opaquely",
			body:    `{"id":2,"method":9,"params":[1,"two"]}`,
			jsonrpc: "2.0",
			method:  DefaultMethod,
			id:      idPtr(NumberID(2)),
			params:  `[1,"two"]`,
		},
		{
			name:    "non-object json",
			body:    `"hello"`,
			jsonrpc: "2.0",
			method:  DefaultMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeLenient([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.jsonrpc, req.JSONRPC)
			assert.Equal(t, tt.method, req.Method)
			if tt.id == nil {
				assert.Nil(t, req.ID)
				assert.True(t, req.IsNotification())
			} else {
				require.NotNil(t, req.ID)
				assert.Equal(t, *tt.id, *req.ID)
			}
			if tt.params != "" {
				assert.JSONEq(t, tt.params, string(req.Params))
			}
		})
	}
}

func TestDecodeLenientRejectsInvalidJSON(t *testing.T) {
	for _, body := range []string{`{`, `not json`, ``, `{"a":1}garbage`} {
		_, err := DecodeLenient([]byte(body))
		assert.ErrorIs(t, err, ErrNotJSON, "body %q", body)
	}
}

func TestDecodeParams(t *testing.T) {
	req := &Request{Method: MethodCallTool, Params: []byte(`{"name":"ping","arguments":{"target":"example.com"}}`)}

	var params CallToolParams
	require.NoError(t, DecodeParams(req, &params))
	assert.Equal(t, "ping", params.Name)
	assert.JSONEq(t, `{"target":"example.com"}`, string(params.Arguments))

	req.Params = []byte(`{"name":42}`)
	assert.Error(t, DecodeParams(req, &params))

	var list ListToolsParams
	req.Params = []byte(`null`)
	require.NoError(t, DecodeParams(req, &list))
	assert.Empty(t, list.Cursor)
}

func idPtr(id RequestID) *RequestID {
	return &id
}
