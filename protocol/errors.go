// Package protocol implements the JSON-RPC 2.0 envelope used by the tool server.
package protocol

import (
	"errors"
	"fmt"
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Server-defined error codes, from the -32000 to -32099 range.
const (
	CodeOperationFailed = -32000
	CodeRateLimited     = -32003
)

// Error is a JSON-RPC 2.0 error object. It doubles as a Go error so that
// handlers can return it directly.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc: %s (code: %d)", e.Message, e.Code)
}

// Is matches any *Error with the same code, so errors.Is(err,
// NewParseError("")) tests the kind of err regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

// Kind names the error's code, for logs and metrics.
func (e *Error) Kind() string {
	switch e.Code {
	case CodeParseError:
		return "parse"
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInvalidParams:
		return "invalid_params"
	case CodeInternalError:
		return "internal"
	case CodeOperationFailed:
		return "operation_failed"
	case CodeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}

func newError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NewParseError reports input that is not a well-formed request, or tool
// params that do not match the tool's declared shape.
func NewParseError(msg string) *Error { return newError(CodeParseError, msg) }

// NewInvalidRequest reports a request missing a required envelope field.
func NewInvalidRequest(msg string) *Error { return newError(CodeInvalidRequest, msg) }

// NewMethodNotFound reports an unknown method or tool.
func NewMethodNotFound(msg string) *Error { return newError(CodeMethodNotFound, msg) }

// NewInvalidParams reports well-typed params with out-of-range values.
func NewInvalidParams(msg string) *Error { return newError(CodeInvalidParams, msg) }

// NewInternalError reports a server fault, such as a recovered panic.
func NewInternalError(msg string) *Error { return newError(CodeInternalError, msg) }

// NewOperationFailed reports that a tool's backing operation failed.
func NewOperationFailed(msg string) *Error { return newError(CodeOperationFailed, msg) }

// NewRateLimited reports a request rejected by rate limiting.
func NewRateLimited(msg string) *Error { return newError(CodeRateLimited, msg) }
