// Package middleware provides request middleware for the tool server.
//
// Each middleware wraps the next handler, allowing work before and after a
// request is dispatched:
//
//	chain := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)
//	handler := chain(dispatcher.Handle)
//
// Stack assembles the production chain from configuration:
//
//   - Recover converts panics to internal errors
//   - RequestID tags the context with a correlation ID
//   - Logging writes one structured line per request
//   - SizeLimit rejects oversized params
//   - RateLimit keeps each tool within its own token bucket
//   - OTel records spans and metrics
//   - Timeout bounds each request
//
// Middleware only ever sees decoded requests. Lines that cannot be decoded
// are answered by the server loop directly.
package middleware
