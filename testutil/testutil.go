// Package testutil provides testing utilities for the tool server.
//
// TestClient drives a request handler in memory, without framing or a loop.
// MemoryTransport scripts the input side of a transport and records
// everything written to it, so a complete server.Server can be run against it:
//
//	tr := testutil.NewMemoryTransport(
//	    testutil.RequestLine(1, "listTools", nil),
//	)
//	srv := server.New(tr, registry)
//	require.NoError(t, srv.Run(ctx))
//	resps := tr.Responses(t)
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

// Handler is the request handler signature shared by the dispatcher and the
// middleware chain.
type Handler func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// TestClient is an in-memory client for a request handler.
type TestClient struct {
	t       testing.TB
	handler Handler
	reqID   int64
	mu      sync.Mutex
}

// NewTestClient creates a test client for handler.
func NewTestClient(t testing.TB, handler Handler) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: handler,
	}
}

func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

// SendRequest sends a request and returns the response as it would appear
// on the wire. Handler errors are folded into an error response the same
// way the server loop does it.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsData = data
	}

	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      tc.nextID(),
		Method:  method,
		Params:  paramsData,
	}

	resp, err := tc.handler(context.Background(), req)
	if err != nil {
		rpcErr, ok := protocol.AsError(err)
		if !ok {
			return nil, err
		}
		resp = protocol.NewErrorResponse(req.ID, rpcErr)
	}

	return protocol.DecodeResponse(protocol.EncodeResponse(resp))
}

// ListTools lists all available tools.
func (tc *TestClient) ListTools() ([]map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	var result struct {
		Tools []map[string]any `json:"tools"`
	}
	raw, _ := resp.Result.(json.RawMessage)
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unexpected listTools result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a tool and returns its raw JSON result.
func (tc *TestClient) CallTool(name string, params any) (json.RawMessage, error) {
	tc.t.Helper()

	resp, err := tc.CallToolRaw(name, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	raw, _ := resp.Result.(json.RawMessage)
	return raw, nil
}

// CallToolRaw invokes a tool and returns the full response.
func (tc *TestClient) CallToolRaw(name string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	return tc.SendRequest(protocol.MethodCallTool, map[string]any{
		"name":   name,
		"params": params,
	})
}

// AssertToolExists asserts that a tool with the given name is listed.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()

	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("ListTools failed: %v", err)
	}

	for _, tool := range tools {
		if tool["name"] == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}

// RequestLine renders a single framed request. A nil id is omitted and a nil
// params value is omitted.
func RequestLine(id any, method string, params any) string {
	msg := map[string]any{
		"jsonrpc": protocol.JSONRPCVersion,
		"method":  method,
	}
	if id != nil {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	data, err := json.Marshal(msg)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal request: %v", err))
	}
	return string(data)
}

// MemoryTransport is a transport.Transport backed by a fixed script of
// incoming messages. Once the script is exhausted, reads report
// transport.ErrClosed, or block until the context ends if Hold was called.
type MemoryTransport struct {
	mu       sync.Mutex
	incoming []string
	written  []string
	hold     bool
	writeErr error
	closed   bool
}

var _ transport.Transport = (*MemoryTransport)(nil)

// NewMemoryTransport creates a transport that will deliver lines in order.
func NewMemoryTransport(lines ...string) *MemoryTransport {
	return &MemoryTransport{incoming: lines}
}

// Hold makes reads past the end of the script block until cancelled.
func (m *MemoryTransport) Hold() *MemoryTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold = true
	return m
}

// FailWrites makes every subsequent write return err.
func (m *MemoryTransport) FailWrites(err error) *MemoryTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
	return m
}

// ReadMessage returns the next scripted line.
func (m *MemoryTransport) ReadMessage(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", transport.ErrClosed
	}
	if len(m.incoming) > 0 {
		line := m.incoming[0]
		m.incoming = m.incoming[1:]
		m.mu.Unlock()
		return line, nil
	}
	hold := m.hold
	m.mu.Unlock()

	if !hold {
		return "", transport.ErrClosed
	}
	<-ctx.Done()
	return "", ctx.Err()
}

// WriteMessage records msg.
func (m *MemoryTransport) WriteMessage(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	if m.closed {
		return transport.ErrClosed
	}
	m.written = append(m.written, msg)
	return nil
}

// Close marks the transport closed.
func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Written returns a copy of every message written so far.
func (m *MemoryTransport) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}

// Responses decodes every written message, failing the test on malformed output.
func (m *MemoryTransport) Responses(t testing.TB) []*protocol.Response {
	t.Helper()

	written := m.Written()
	resps := make([]*protocol.Response, 0, len(written))
	for i, msg := range written {
		resp, err := protocol.DecodeResponse([]byte(msg))
		if err != nil {
			t.Fatalf("response %d is not a valid envelope: %v\n%s", i, err, msg)
		}
		resps = append(resps, resp)
	}
	return resps
}
