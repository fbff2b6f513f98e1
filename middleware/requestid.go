package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

type requestIDKey struct{}

// RequestID attaches a fresh UUID to each request's context for log and
// trace correlation. It is unrelated to the wire id, which belongs to the
// client. A correlation ID already on the context is kept.
func RequestID() Middleware {
	return requestIDFrom(uuid.NewString)
}

func requestIDFrom(newID func() string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, newID())
			}
			return next(ctx, req)
		}
	}
}

// RequestIDFromContext returns the correlation ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID returns ctx carrying id as its correlation ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
