package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// Timeout returns middleware that enforces a request deadline.
// A handler that fails after the deadline passed is reported as an
// operation failure naming the timeout rather than the raw context error.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			resp, err := next(ctx, req)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				if _, ok := protocol.AsError(err); !ok {
					return nil, protocol.NewOperationFailed(fmt.Sprintf("%s timed out after %s", req.Method, d))
				}
			}
			return resp, err
		}
	}
}
