// Package client calls a tool server over any transport.Transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/ghsearch-mcp/github"
	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

// Tool describes a tool advertised by the server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout time.Duration
}

// WithTimeout sets the default timeout for each call. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// Client sends one request at a time and waits for its response, matching
// the server's sequential processing.
type Client struct {
	transport transport.Transport
	opts      clientOptions

	mu        sync.Mutex
	requestID atomic.Int64
}

// New creates a client over t.
func New(t transport.Transport, opts ...Option) *Client {
	options := clientOptions{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&options)
	}
	return &Client{transport: t, opts: options}
}

// ListTools returns the server's tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.call(ctx, protocol.MethodListTools, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := unmarshalResult(resp, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes name with params and returns the raw result.
func (c *Client) CallTool(ctx context.Context, name string, params any) (json.RawMessage, error) {
	resp, err := c.call(ctx, protocol.MethodCallTool, map[string]any{
		"name":   name,
		"params": params,
	})
	if err != nil {
		return nil, err
	}
	raw, _ := resp.Result.(json.RawMessage)
	return raw, nil
}

// SearchRepositories calls the search_repositories tool.
func (c *Client) SearchRepositories(ctx context.Context, params github.SearchRepositoriesParams) (*github.SearchResult, error) {
	resp, err := c.call(ctx, protocol.MethodCallTool, map[string]any{
		"name":   github.SearchToolName,
		"params": params,
	})
	if err != nil {
		return nil, err
	}

	var result github.SearchResult
	if err := unmarshalResult(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// call sends a request and reads the next frame as its response. An
// error response with a null id means the server could not read the
// request and is returned as the call's error.
func (c *Client) call(ctx context.Context, method string, params any) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := json.RawMessage(fmt.Sprintf("%d", c.requestID.Add(1)))

	msg := map[string]any{
		"jsonrpc": protocol.JSONRPCVersion,
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	if err := c.transport.WriteMessage(ctx, string(data)); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	line, err := c.transport.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", method, err)
	}

	resp, err := protocol.DecodeResponse([]byte(line))
	if err != nil {
		return nil, err
	}

	switch {
	case bytes.Equal(resp.ID, id):
	case bytes.Equal(resp.ID, protocol.NullID) && resp.Error != nil:
	default:
		return nil, fmt.Errorf("unexpected response id %s, want %s", resp.ID, id)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp, nil
}

func unmarshalResult(resp *protocol.Response, v any) error {
	raw, _ := resp.Result.(json.RawMessage)
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}
