// Package transport provides framed message transports for the tool server.
//
// Every transport satisfies the same narrow contract:
//
//	type Transport interface {
//	    ReadMessage(ctx context.Context) (string, error)
//	    WriteMessage(ctx context.Context, msg string) error
//	}
//
// Reads and writes are each serialized per direction, so concurrent writers
// never interleave bytes, and a blocked reader never stalls a writer.
//
// # Line Streams
//
// Stream frames messages as newline-terminated lines over any io.Reader and
// io.Writer. NewStdio binds it to the process's standard input and output:
//
//	t := transport.NewStdio()
//	msg, err := t.ReadMessage(ctx)
//	if errors.Is(err, transport.ErrClosed) {
//	    // end of input
//	}
//
// A "\r" before the newline is stripped, a final unterminated line is still
// delivered, and ErrClosed is reported only once input has really ended.
//
// # WebSocket
//
// WebSocket carries one message per text frame. WebSocketListener accepts
// connections and runs a session per connection, draining open sessions
// through a ShutdownManager when its context is canceled:
//
//	l := transport.NewWebSocketListener(":8080")
//	err := l.Serve(ctx, func(ctx context.Context, t transport.Transport) error {
//	    return server.New(t, registry).Run(ctx)
//	})
package transport
