package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

type addParams struct {
	A int `json:"a" jsonschema:"required"`
	B int `json:"b"`
}

type addResult struct {
	Sum int `json:"sum"`
}

type greetParams struct {
	Name string `json:"name"`
}

func (p greetParams) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type pointerValidated struct {
	N int `json:"n"`
}

func (p *pointerValidated) Validate() error {
	if p.N < 0 {
		return errors.New("n must not be negative")
	}
	return nil
}

func add(_ context.Context, p addParams) (addResult, error) {
	return addResult{Sum: p.A + p.B}, nil
}

func TestNewTool(t *testing.T) {
	t.Run("generates descriptor", func(t *testing.T) {
		tool, err := NewTool("add", "Add two numbers", add)
		if err != nil {
			t.Fatalf("NewTool failed: %v", err)
		}

		desc := tool.Descriptor()
		if desc.Name != "add" {
			t.Errorf("Name = %q, want %q", desc.Name, "add")
		}
		if desc.Description != "Add two numbers" {
			t.Errorf("Description = %q", desc.Description)
		}
		if desc.InputSchema == nil || desc.InputSchema.Type != "object" {
			t.Fatalf("expected object schema, got %+v", desc.InputSchema)
		}
		if len(desc.InputSchema.Required) != 1 || desc.InputSchema.Required[0] != "a" {
			t.Errorf("Required = %v, want [a]", desc.InputSchema.Required)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		if _, err := NewTool("", "x", add); err == nil {
			t.Error("expected error for empty name")
		}
	})

	t.Run("rejects nil handler", func(t *testing.T) {
		var fn func(context.Context, addParams) (addResult, error)
		if _, err := NewTool("add", "x", fn); err == nil {
			t.Error("expected error for nil handler")
		}
	})

	t.Run("MustTool panics on error", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		MustTool("", "x", add)
	})
}

func TestTool_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes params and runs handler", func(t *testing.T) {
		tool := MustTool("add", "", add)

		result, err := tool.Execute(ctx, json.RawMessage(`{"a":2,"b":3}`))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if got := result.(addResult).Sum; got != 5 {
			t.Errorf("Sum = %d, want 5", got)
		}
	})

	t.Run("wrong shape is a parse error", func(t *testing.T) {
		tool := MustTool("add", "", add)

		_, err := tool.Execute(ctx, json.RawMessage(`{"a":"two"}`))
		assertCode(t, err, protocol.CodeParseError)
	})

	t.Run("non-object is a parse error", func(t *testing.T) {
		tool := MustTool("add", "", add)

		_, err := tool.Execute(ctx, json.RawMessage(`[1,2]`))
		assertCode(t, err, protocol.CodeParseError)
	})

	t.Run("value validator failure is a parse error", func(t *testing.T) {
		tool := MustTool("greet", "", func(_ context.Context, p greetParams) (string, error) {
			return "hi " + p.Name, nil
		})

		_, err := tool.Execute(ctx, json.RawMessage(`{}`))
		assertCode(t, err, protocol.CodeParseError)

		result, err := tool.Execute(ctx, json.RawMessage(`{"name":"go"}`))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if result != "hi go" {
			t.Errorf("result = %v", result)
		}
	})

	t.Run("pointer validator is honoured", func(t *testing.T) {
		tool := MustTool("n", "", func(_ context.Context, p pointerValidated) (int, error) {
			return p.N, nil
		})

		_, err := tool.Execute(ctx, json.RawMessage(`{"n":-1}`))
		assertCode(t, err, protocol.CodeParseError)
	})

	t.Run("handler error is returned unchanged", func(t *testing.T) {
		wantErr := errors.New("backend down")
		tool := MustTool("fail", "", func(_ context.Context, _ addParams) (int, error) {
			return 0, wantErr
		})

		_, err := tool.Execute(ctx, json.RawMessage(`{}`))
		if !errors.Is(err, wantErr) {
			t.Errorf("expected %v, got %v", wantErr, err)
		}
	})
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()
	var rpcErr *protocol.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *protocol.Error, got %T: %v", err, err)
	}
	if rpcErr.Code != code {
		t.Errorf("code = %d, want %d (%s)", rpcErr.Code, code, rpcErr.Message)
	}
}
