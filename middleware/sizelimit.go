package middleware

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// Byte sizes for SizeLimit.
const (
	KB = 1 << 10
	MB = 1 << 20
)

// SizeLimit rejects requests whose params exceed maxBytes with
// CodeInvalidRequest, before any tool decodes them. logger may be nil.
func SizeLimit(maxBytes int64, logger Logger) Middleware {
	if logger == nil {
		logger = NopLogger{}
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			size := int64(len(req.Params))
			if size > maxBytes {
				logger.Warn("request too large", F("method", req.Method), F("size", size), F("max", maxBytes))
				msg := fmt.Sprintf("params too large: %d bytes, limit is %d", size, maxBytes)
				return nil, protocol.NewInvalidRequest(msg).WithData(map[string]int64{"size": size, "max": maxBytes})
			}
			return next(ctx, req)
		}
	}
}
