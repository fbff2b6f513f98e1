package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// NullID is the id carried by responses to requests whose id could not be read.
var NullID = json.RawMessage("null")

// Request represents a JSON-RPC 2.0 request.
//
// ID and Params are kept as raw JSON. An absent id decodes to a nil ID, an
// explicit null to the literal "null"; both are echoed back unchanged.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// HasParams reports whether the request carries a non-null params value.
func (r *Request) HasParams() bool {
	return isPresent(r.Params)
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse creates a successful response.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}

// DecodeRequest parses one framed message into a Request.
// It fails with a parse error when data is not a JSON object or lacks a
// string method. The version and id are passed through unvalidated.
func DecodeRequest(data []byte) (*Request, error) {
	var wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  *string         `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid request: %v", err))
	}
	if !isObject(data) {
		return nil, NewParseError("invalid request: expected a JSON object")
	}
	if wire.Method == nil {
		return nil, NewParseError("invalid request: missing method")
	}

	return &Request{
		JSONRPC: wire.JSONRPC,
		ID:      wire.ID,
		Method:  *wire.Method,
		Params:  wire.Params,
	}, nil
}

// EncodeResponse serializes a response as a single line of compact JSON.
//
// The version is always set to "2.0" and exactly one of result and error is
// emitted: an error takes precedence, and a response with neither carries an
// empty object result. A result that cannot be serialized is replaced by an
// internal error so that encoding never fails.
func EncodeResponse(resp *Response) []byte {
	out := *resp
	out.JSONRPC = JSONRPCVersion
	if out.Error != nil {
		out.Result = nil
	} else if out.Result == nil {
		out.Result = struct{}{}
	}

	data, err := json.Marshal(&out)
	if err == nil {
		return data
	}

	fallback := NewErrorResponse(out.ID, NewInternalError(fmt.Sprintf("encode response: %v", err)))
	if data, err = json.Marshal(fallback); err == nil {
		return data
	}
	fallback.ID = NullID
	data, _ = json.Marshal(fallback)
	return data
}

// DecodeResponse parses one framed message into a Response.
// The result, when present, is returned as json.RawMessage.
func DecodeResponse(data []byte) (*Response, error) {
	var wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *Error          `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &Response{
		JSONRPC: wire.JSONRPC,
		ID:      wire.ID,
		Error:   wire.Error,
	}
	if isPresent(wire.Result) {
		resp.Result = wire.Result
	}
	return resp, nil
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), NullID)
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
