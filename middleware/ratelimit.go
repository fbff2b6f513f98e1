package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// KeyFunc maps a request to the bucket it draws tokens from. An empty key
// exempts the request from limiting.
type KeyFunc func(*protocol.Request) string

// GlobalKey puts every request in one bucket.
func GlobalKey(*protocol.Request) string { return "global" }

// MethodKey gives each method its own bucket.
func MethodKey(req *protocol.Request) string { return req.Method }

// ToolKey gives each invoked tool its own bucket. Only tool calls are
// limited; a callTool with a malformed envelope shares the method bucket.
func ToolKey(req *protocol.Request) string {
	if req.Method != protocol.MethodCallTool {
		return ""
	}
	if tool := ToolName(req); tool != "" {
		return "tool:" + tool
	}
	return req.Method
}

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimiter)

// WithRateLimitKey selects how requests are grouped into buckets. The
// default is GlobalKey.
func WithRateLimitKey(fn KeyFunc) RateLimitOption {
	return func(r *rateLimiter) {
		r.key = fn
	}
}

// WithRateLimitLogger logs every rejected request at warn level.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(r *rateLimiter) {
		r.logger = l
	}
}

type rateLimiter struct {
	limiter interface {
		Allow(ctx context.Context, key string) bool
	}
	key    KeyFunc
	logger Logger
}

// RateLimit admits up to rate requests per second per bucket, with bursts of
// up to burst. Rejected requests fail with CodeRateLimited before reaching
// the dispatcher, so an over-eager client cannot drain the search quota.
func RateLimit(rate, burst int, opts ...RateLimitOption) Middleware {
	r := &rateLimiter{
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    burst,
			Interval: time.Second,
		}),
		key:    GlobalKey,
		logger: NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			key := r.key(req)
			if key == "" || r.limiter.Allow(ctx, key) {
				return next(ctx, req)
			}

			r.logger.Warn("rate limit exceeded", F("method", req.Method), F("bucket", key))
			return nil, protocol.NewRateLimited("rate limit exceeded for " + key).
				WithData(map[string]string{"key": key})
		}
	}
}
