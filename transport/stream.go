package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultIdleDelay = 10 * time.Millisecond

// Stream implements newline-delimited framing over an io.Reader and io.Writer.
//
// Reads are served by a background pump that owns the reader, so a pending
// ReadMessage can be abandoned through its context without losing data: the
// line it was waiting for is delivered to the next caller.
type Stream struct {
	in  io.Reader
	out io.Writer

	idleDelay time.Duration

	readMu   sync.Mutex
	readErr  error
	lines    chan readResult
	pumpOnce sync.Once

	writeMu sync.Mutex
	w       *bufio.Writer

	done      chan struct{}
	closeOnce sync.Once
}

type readResult struct {
	line string
	err  error
}

type stdioConfig struct {
	in  io.Reader
	out io.Writer
}

// StdioOption configures a Stdio stream.
type StdioOption func(*stdioConfig)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(c *stdioConfig) {
		c.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(c *stdioConfig) {
		c.out = w
	}
}

// NewStdio creates a stream over the process's standard input and output.
func NewStdio(opts ...StdioOption) *Stream {
	cfg := &stdioConfig{
		in:  os.Stdin,
		out: os.Stdout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return NewStream(cfg.in, cfg.out)
}

// NewStream creates a stream reading frames from r and writing frames to w.
// Any byte stream works: a pipe pair, a net.Conn, or standard I/O.
func NewStream(r io.Reader, w io.Writer) *Stream {
	return &Stream{
		in:        r,
		out:       w,
		idleDelay: defaultIdleDelay,
		lines:     make(chan readResult),
		w:         bufio.NewWriter(w),
		done:      make(chan struct{}),
	}
}

// ReadMessage returns the next line with its "\n" or "\r\n" terminator
// stripped. A trailing line without a terminator is returned before the
// stream reports ErrClosed.
func (s *Stream) ReadMessage(ctx context.Context) (string, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.readErr != nil {
		return "", s.readErr
	}

	s.pumpOnce.Do(func() {
		go s.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		s.readErr = ErrClosed
		return "", s.readErr
	case res := <-s.lines:
		if res.err != nil {
			s.readErr = res.err
			return "", res.err
		}
		return res.line, nil
	}
}

// WriteMessage writes msg followed by a single "\n" and flushes before
// returning.
func (s *Stream) WriteMessage(ctx context.Context, msg string) error {
	if strings.ContainsRune(msg, '\n') {
		return ErrInvalidFrame
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.w.WriteString(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush message: %w", err)
	}
	return nil
}

// Close stops the read pump. Later reads return ErrClosed. The underlying
// reader and writer are left open; they belong to the caller.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *Stream) pump() {
	r := bufio.NewReader(s.in)
	var partial strings.Builder

	for {
		chunk, err := r.ReadString('\n')
		partial.WriteString(chunk)

		switch {
		case err == nil:
			if !s.deliver(readResult{line: trimTerminator(partial.String())}) {
				return
			}
			partial.Reset()

		case errors.Is(err, io.ErrNoProgress):
			// The reader returned no data and no error: not ready, not closed.
			select {
			case <-s.done:
				return
			case <-time.After(s.idleDelay):
			}

		case isClosedErr(err):
			if partial.Len() > 0 {
				if !s.deliver(readResult{line: trimTerminator(partial.String())}) {
					return
				}
			}
			s.deliver(readResult{err: ErrClosed})
			return

		default:
			s.deliver(readResult{err: fmt.Errorf("read message: %w", err)})
			return
		}
	}
}

func (s *Stream) deliver(res readResult) bool {
	select {
	case s.lines <- res:
		return true
	case <-s.done:
		return false
	}
}

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
