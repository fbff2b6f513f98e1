// Package transport provides framed message transports for the tool server.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
)

// ErrClosed is returned by ReadMessage once the peer has permanently closed
// its side of the stream. It is terminal: every later read returns it again.
var ErrClosed = errors.New("transport: closed")

// ErrInvalidFrame is returned by WriteMessage for a message that would break
// line framing.
var ErrInvalidFrame = errors.New("transport: message contains a line terminator")

// Transport moves whole messages over a bidirectional byte stream.
//
// Concurrent callers of ReadMessage are serialized, as are concurrent callers
// of WriteMessage. A reader and a writer never block each other.
type Transport interface {
	// ReadMessage blocks until the next complete message is available, ctx is
	// done, or the stream is closed (ErrClosed).
	ReadMessage(ctx context.Context) (string, error)

	// WriteMessage writes msg as exactly one frame and flushes it.
	WriteMessage(ctx context.Context, msg string) error
}

// isClosedErr reports whether err means the underlying stream is gone for good.
func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, net.ErrClosed)
}
