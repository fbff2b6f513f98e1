package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket adapts a single WebSocket connection to the Transport contract.
// Each text frame carries exactly one message.
type WebSocket struct {
	conn *websocket.Conn

	writeTimeout time.Duration

	readMu  sync.Mutex
	readErr error

	writeMu sync.Mutex
}

// NewWebSocket wraps an established connection.
func NewWebSocket(conn *websocket.Conn, writeTimeout time.Duration) *WebSocket {
	return &WebSocket{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// ReadMessage returns the payload of the next data frame. A trailing line
// terminator, if the peer sent one, is stripped.
func (ws *WebSocket) ReadMessage(ctx context.Context) (string, error) {
	ws.readMu.Lock()
	defer ws.readMu.Unlock()

	if ws.readErr != nil {
		return "", ws.readErr
	}

	// Unblock a pending read when ctx ends. gorilla read errors are permanent,
	// which matches the terminal nature of cancellation here.
	stop := context.AfterFunc(ctx, func() {
		_ = ws.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := ws.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			ws.readErr = ctxErr
			return "", ctxErr
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) || isClosedErr(err) {
			ws.readErr = fmt.Errorf("%w: %v", ErrClosed, err)
		} else {
			ws.readErr = fmt.Errorf("read message: %w", err)
		}
		return "", ws.readErr
	}

	return trimTerminator(string(data)), nil
}

// WriteMessage sends msg as one text frame.
func (ws *WebSocket) WriteMessage(ctx context.Context, msg string) error {
	if strings.ContainsRune(msg, '\n') {
		return ErrInvalidFrame
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if ws.writeTimeout > 0 {
		_ = ws.conn.SetWriteDeadline(time.Now().Add(ws.writeTimeout))
	}
	if err := ws.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close sends a normal closure frame and closes the connection.
func (ws *WebSocket) Close() error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	_ = ws.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return ws.conn.Close()
}

// SessionFunc serves one connection. It should return when t reports
// ErrClosed or ctx is done.
type SessionFunc func(ctx context.Context, t Transport) error

// WebSocketListener accepts WebSocket connections and runs one session per
// connection.
type WebSocketListener struct {
	addr     string
	upgrader websocket.Upgrader

	writeTimeout time.Duration
	shutdown     *ShutdownManager

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
}

// WebSocketOption configures a WebSocketListener.
type WebSocketOption func(*WebSocketListener)

// WithWebSocketWriteTimeout sets the write timeout for WebSocket messages.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(l *WebSocketListener) {
		l.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for WebSocket upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(l *WebSocketListener) {
		l.upgrader.CheckOrigin = fn
	}
}

// WithShutdownConfig sets how open sessions are drained on shutdown.
func WithShutdownConfig(cfg ShutdownConfig) WebSocketOption {
	return func(l *WebSocketListener) {
		l.shutdown = NewShutdownManager(cfg)
	}
}

// NewWebSocketListener creates a listener for addr.
func NewWebSocketListener(addr string, opts ...WebSocketOption) *WebSocketListener {
	l := &WebSocketListener{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		writeTimeout: 10 * time.Second,
		shutdown:     NewShutdownManager(DefaultShutdownConfig()),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Addr returns the configured address.
func (l *WebSocketListener) Addr() string {
	return l.addr
}

// ListenAddr returns the address the listener is bound to once serving.
func (l *WebSocketListener) ListenAddr() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.listenAddr
}

// Serve accepts connections until ctx is canceled, then stops accepting,
// waits for open sessions to finish, and returns ctx.Err().
func (l *WebSocketListener) Serve(ctx context.Context, session SessionFunc) error {
	listener, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		l.handleConnection(ctx, w, r, session)
	})

	l.mu.Lock()
	l.listenAddr = listener.Addr().String()
	l.server = &http.Server{Handler: mux}
	l.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := l.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Hijacked connections are not tracked by http.Server.
		if err := l.shutdown.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (l *WebSocketListener) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request, session SessionFunc) {
	if !l.shutdown.Acquire() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer l.shutdown.Release()

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	t := NewWebSocket(conn, l.writeTimeout)
	defer t.Close()

	_ = session(ctx, t)
}
