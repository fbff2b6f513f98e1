package protocol

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "simple error message",
			err:  &Error{Code: CodeInternalError, Message: "something went wrong"},
			want: "jsonrpc: something went wrong (code: -32603)",
		},
		{
			name: "parse error",
			err:  &Error{Code: CodeParseError, Message: "invalid JSON"},
			want: "jsonrpc: invalid JSON (code: -32700)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err1 := NewMethodNotFound("method not found: frobnicate")
	err2 := NewMethodNotFound("unknown tool: nope")
	err3 := NewInvalidRequest("missing params")

	if !errors.Is(err1, err2) {
		t.Error("errors with same code should match with errors.Is")
	}

	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match with errors.Is")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code int
	}{
		{"parse", NewParseError("bad"), CodeParseError},
		{"invalid request", NewInvalidRequest("missing params"), CodeInvalidRequest},
		{"method not found", NewMethodNotFound("frobnicate"), CodeMethodNotFound},
		{"invalid params", NewInvalidParams("per_page out of range"), CodeInvalidParams},
		{"internal", NewInternalError("panic"), CodeInternalError},
		{"operation failed", NewOperationFailed("upstream 502"), CodeOperationFailed},
		{"rate limited", NewRateLimited("slow down"), CodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.code)
			}
			if tt.err.Data != nil {
				t.Errorf("Data = %v, want nil", tt.err.Data)
			}
		})
	}
}

func TestError_WithData(t *testing.T) {
	data := map[string]string{"tool": "nonexistent_tool"}
	orig := NewMethodNotFound("unknown tool: nonexistent_tool")
	err := orig.WithData(data)

	if orig.Data != nil {
		t.Error("WithData should not mutate the receiver")
	}

	dataMap, ok := err.Data.(map[string]string)
	if !ok {
		t.Fatalf("Data type = %T, want map[string]string", err.Data)
	}

	if dataMap["tool"] != "nonexistent_tool" {
		t.Errorf("Data[tool] = %q, want %q", dataMap["tool"], "nonexistent_tool")
	}
}

func TestError_Kind(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{CodeParseError, "parse"},
		{CodeInvalidRequest, "invalid_request"},
		{CodeMethodNotFound, "method_not_found"},
		{CodeInvalidParams, "invalid_params"},
		{CodeInternalError, "internal"},
		{CodeOperationFailed, "operation_failed"},
		{CodeRateLimited, "rate_limited"},
		{-1, "unknown"},
	}
	for _, tt := range tests {
		if got := (&Error{Code: tt.code}).Kind(); got != tt.want {
			t.Errorf("Kind(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NewInvalidParams("page must be >= 1"))

	rpcErr, ok := AsError(wrapped)
	if !ok {
		t.Fatal("AsError did not find the wrapped error")
	}
	if rpcErr.Code != CodeInvalidParams {
		t.Errorf("Code = %d, want %d", rpcErr.Code, CodeInvalidParams)
	}

	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("AsError matched a plain error")
	}
	if _, ok := AsError(nil); ok {
		t.Error("AsError matched nil")
	}
}
