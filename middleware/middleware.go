// Package middleware provides request middleware for the tool server.
package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// HandlerFunc is the signature for request handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Middleware wraps a handler with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// StackConfig selects the middleware assembled by Stack.
type StackConfig struct {
	Logger       Logger
	Timeout      time.Duration
	RateLimit    int
	RateBurst    int
	MaxBodyBytes int64
	OTel         []OTelOption
}

// DefaultStack returns panic recovery, request ID injection and logging.
func DefaultStack(logger Logger) []Middleware {
	return []Middleware{
		Recover(),
		RequestID(),
		Logging(logger),
	}
}

// Stack returns the production middleware stack, outermost first. Zero
// values disable the corresponding middleware.
func Stack(cfg StackConfig) []Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	stack := []Middleware{
		RecoverWithHandler(LoggingPanicHandler(logger)),
		RequestID(),
		Logging(logger),
	}
	if cfg.MaxBodyBytes > 0 {
		stack = append(stack, SizeLimit(cfg.MaxBodyBytes, logger))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < cfg.RateLimit {
			burst = cfg.RateLimit
		}
		stack = append(stack, RateLimit(cfg.RateLimit, burst, WithRateLimitKey(ToolKey), WithRateLimitLogger(logger)))
	}
	stack = append(stack, OTel(cfg.OTel...))
	if cfg.Timeout > 0 {
		stack = append(stack, Timeout(cfg.Timeout))
	}
	return stack
}

// ToolName returns the tool a callTool request targets, or "" for any other
// request or a malformed envelope.
func ToolName(req *protocol.Request) string {
	if req.Method != protocol.MethodCallTool || !req.HasParams() {
		return ""
	}
	var envelope struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &envelope); err != nil {
		return ""
	}
	return envelope.Name
}
