package middleware

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// mockLogger captures log calls for testing.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level   string
	message string
	fields  []Field
}

func (l *mockLogger) add(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: msg, fields: fields})
}

func (l *mockLogger) Info(msg string, fields ...Field)  { l.add("info", msg, fields) }
func (l *mockLogger) Error(msg string, fields ...Field) { l.add("error", msg, fields) }
func (l *mockLogger) Debug(msg string, fields ...Field) { l.add("debug", msg, fields) }
func (l *mockLogger) Warn(msg string, fields ...Field)  { l.add("warn", msg, fields) }

func (e logEntry) field(key string) (any, bool) {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func okHandler(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, "ok"), nil
}

func listToolsRequest() *protocol.Request {
	return &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  protocol.MethodListTools,
	}
}

func callToolRequest(tool string) *protocol.Request {
	return &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  protocol.MethodCallTool,
		Params:  json.RawMessage(`{"name":"` + tool + `","params":{"query":"go"}}`),
	}
}
