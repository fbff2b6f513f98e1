package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// ListToolsResult is the result of listTools.
type ListToolsResult struct {
	Tools []Descriptor `json:"tools"`
}

// CallToolParams is the invocation envelope carried in callTool params.
type CallToolParams struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

// Dispatcher routes requests by method and, for callTool, by tool name.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Handle processes one request. Failures are returned as *protocol.Error.
func (d *Dispatcher) Handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodListTools:
		return d.handleListTools(req)
	case protocol.MethodCallTool:
		return d.handleCallTool(ctx, req)
	default:
		return nil, protocol.NewMethodNotFound("method not found: " + req.Method).
			WithData(map[string]string{"method": req.Method})
	}
}

func (d *Dispatcher) handleListTools(req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, ListToolsResult{Tools: d.registry.Tools()}), nil
}

func (d *Dispatcher) handleCallTool(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	params, err := parseCallToolParams(req)
	if err != nil {
		return nil, err
	}

	tool, ok := d.registry.Lookup(params.Name)
	if !ok {
		return nil, protocol.NewMethodNotFound("unknown tool: " + params.Name).
			WithData(map[string]string{"tool": params.Name})
	}

	result, err := tool.Execute(ctx, params.Params)
	if err != nil {
		if rpcErr, ok := protocol.AsError(err); ok {
			return nil, rpcErr
		}
		return nil, protocol.NewOperationFailed(err.Error())
	}

	return protocol.NewResponse(req.ID, result), nil
}

// parseCallToolParams checks the envelope shape only; the inner params are
// left raw for the tool to decode.
func parseCallToolParams(req *protocol.Request) (*CallToolParams, error) {
	if !req.HasParams() {
		return nil, protocol.NewInvalidRequest("missing params")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(req.Params, &fields); err != nil {
		return nil, protocol.NewInvalidRequest(fmt.Sprintf("callTool params must be an object: %v", err))
	}

	rawName, ok := fields["name"]
	if !ok || isNull(rawName) {
		return nil, protocol.NewInvalidRequest("missing tool name")
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return nil, protocol.NewInvalidRequest("tool name must be a string")
	}

	toolParams, ok := fields["params"]
	if !ok || isNull(toolParams) {
		return nil, protocol.NewInvalidRequest("missing tool params")
	}

	return &CallToolParams{Name: name, Params: toolParams}, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
