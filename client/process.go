package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

// Process is a transport to a server running as a child process, speaking
// over the child's stdin and stdout.
type Process struct {
	*transport.Stream

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *syncBuffer

	closeOnce sync.Once
	closeErr  error
}

// StartProcess launches command and connects to its standard streams.
// The child's stderr is captured and available through Stderr.
func StartProcess(ctx context.Context, command string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	return start(cmd)
}

// StartCommand connects to a prepared, not yet started command. It is
// useful when the environment or working directory must be set.
func StartCommand(cmd *exec.Cmd) (*Process, error) {
	return start(cmd)
}

func start(cmd *exec.Cmd) (*Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &syncBuffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	return &Process{
		Stream: transport.NewStream(stdout, stdin),
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
	}, nil
}

// Stderr returns everything the child wrote to stderr so far.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Close closes the child's stdin, which a well-behaved server treats as a
// clean shutdown, and waits for it to exit. A child that has not exited
// after grace is killed.
func (p *Process) Close() error {
	return p.CloseWithGrace(2 * time.Second)
}

// CloseWithGrace is Close with an explicit grace period.
func (p *Process) CloseWithGrace(grace time.Duration) error {
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()

		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()

		select {
		case err := <-done:
			p.closeErr = err
		case <-time.After(grace):
			_ = p.cmd.Process.Kill()
			p.closeErr = errors.Join(errors.New("process did not exit in time"), <-done)
		}
		_ = p.Stream.Close()
	})
	return p.closeErr
}

// syncBuffer is a bytes.Buffer safe for the concurrent writer and reader
// that exec.Cmd and Stderr produce.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
