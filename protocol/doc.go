// Package protocol defines the JSON-RPC 2.0 envelope and error codes.
//
// # Request and Response Types
//
//	type Request struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Method  string          `json:"method"`
//	    Params  json.RawMessage `json:"params,omitempty"`
//	}
//
//	type Response struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Result  any             `json:"result,omitempty"`
//	    Error   *Error          `json:"error,omitempty"`
//	}
//
// The id is opaque: it is never interpreted and is echoed back byte for byte,
// including its absence. DecodeRequest and EncodeResponse are the only
// entry points the server loop uses to cross the wire boundary.
//
// # Error Codes
//
//	CodeParseError      = -32700  // Malformed line or tool params of the wrong shape
//	CodeInvalidRequest  = -32600  // Missing envelope field
//	CodeMethodNotFound  = -32601  // Unknown method or unknown tool
//	CodeInvalidParams   = -32602  // Tool params out of range
//	CodeInternalError   = -32603  // Recovered panic
//	CodeOperationFailed = -32000  // Backing operation failed
//
// # Methods
//
//	MethodListTools = "listTools"
//	MethodCallTool  = "callTool"
package protocol
