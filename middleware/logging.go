package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

// Logger is the interface for structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logging returns middleware that logs one line per request.
// Successes are logged at info level. Client mistakes (codes in the
// JSON-RPC reserved range below internal error) are logged at warn level and
// everything else at error level.
func Logging(logger Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			fields := []Field{
				F("method", req.Method),
				F("duration", time.Since(start)),
			}
			if tool := ToolName(req); tool != "" {
				fields = append(fields, F("tool", tool))
			}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				fields = append(fields, F("request_id", requestID))
			}

			if err == nil {
				logger.Info("request completed", fields...)
				return resp, err
			}

			fields = append(fields, F("error", err.Error()))
			if rpcErr, ok := protocol.AsError(err); ok {
				fields = append(fields, F("code", rpcErr.Code), F("kind", rpcErr.Kind()))
				if isClientError(rpcErr.Code) {
					logger.Warn("request rejected", fields...)
					return resp, err
				}
			}
			logger.Error("request failed", fields...)
			return resp, err
		}
	}
}

func isClientError(code int) bool {
	switch code {
	case protocol.CodeParseError, protocol.CodeInvalidRequest, protocol.CodeMethodNotFound,
		protocol.CodeInvalidParams, protocol.CodeRateLimited:
		return true
	}
	return false
}

// NopLogger is a logger that discards all log entries.
type NopLogger struct{}

func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
