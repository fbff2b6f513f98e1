package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
	"github.com/felixgeelhaar/ghsearch-mcp/schema"
)

// Descriptor is the discovery record for a tool, as returned by listTools.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema *schema.Schema `json:"input_schema"`
}

// Validator is implemented by parameter types that have constraints beyond
// their JSON shape, such as required fields.
type Validator interface {
	Validate() error
}

// Tool is a named operation with a typed parameter structure.
type Tool struct {
	desc   Descriptor
	invoke func(ctx context.Context, params json.RawMessage) (any, error)
}

// NewTool builds a tool whose parameters decode into P and whose handler
// returns R. The input schema is generated from P once, here.
func NewTool[P, R any](name, description string, fn func(ctx context.Context, params P) (R, error)) (*Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler must not be nil", name)
	}

	inputSchema, err := schema.For[P]()
	if err != nil {
		return nil, fmt.Errorf("tool %q: failed to generate input schema: %w", name, err)
	}

	t := &Tool{
		desc: Descriptor{
			Name:        name,
			Description: description,
			InputSchema: inputSchema,
		},
	}
	t.invoke = func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if err := decodeParams(raw, &params); err != nil {
			return nil, protocol.NewParseError(fmt.Sprintf("invalid params for tool %q: %v", name, err))
		}
		return fn(ctx, params)
	}
	return t, nil
}

// MustTool is like NewTool but panics on error. It is intended for
// registering built-in tools at startup.
func MustTool[P, R any](name, description string, fn func(ctx context.Context, params P) (R, error)) *Tool {
	t, err := NewTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.desc.Name
}

// Descriptor returns the tool's discovery record.
func (t *Tool) Descriptor() Descriptor {
	return t.desc
}

// Execute decodes params and runs the handler.
func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (any, error) {
	return t.invoke(ctx, params)
}

func decodeParams[P any](raw json.RawMessage, dst *P) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if v, ok := any(dst).(Validator); ok {
		return v.Validate()
	}
	if v, ok := any(*dst).(Validator); ok {
		return v.Validate()
	}
	return nil
}
