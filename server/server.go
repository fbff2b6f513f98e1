package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/felixgeelhaar/ghsearch-mcp/middleware"
	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

// Info contains server metadata.
type Info struct {
	Name    string
	Version string
}

// State is the lifecycle state of a Server.
type State int32

const (
	// StateRunning is the state from construction until Run returns.
	StateRunning State = iota
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrStopped is returned by Run on a server that has already stopped.
var ErrStopped = errors.New("server stopped")

// Option configures a Server.
type Option func(*Server)

// WithMiddleware wraps the dispatcher with the given middleware, outermost first.
func WithMiddleware(m ...middleware.Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, m...)
	}
}

// Server reads requests from a transport one at a time and writes exactly
// one response for each.
type Server struct {
	transport  transport.Transport
	dispatcher *Dispatcher
	middleware []middleware.Middleware
	handler    middleware.HandlerFunc
	state      atomic.Int32
}

// New creates a server over t exposing the tools in registry.
func New(t transport.Transport, registry *Registry, opts ...Option) *Server {
	s := &Server{
		transport:  t,
		dispatcher: NewDispatcher(registry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = middleware.Chain(s.middleware...)(s.dispatcher.Handle)
	s.state.Store(int32(StateRunning))
	return s
}

// State reports the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Run processes requests until the transport closes, ctx is cancelled or a
// response cannot be written. A closed transport is a clean stop and yields
// nil. Cancellation is observed between requests and while waiting for input;
// a request that has been read is always answered. Run must not be called
// concurrently.
func (s *Server) Run(ctx context.Context) error {
	if s.State() == StateStopped {
		return ErrStopped
	}
	defer s.state.Store(int32(StateStopped))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.transport.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			return err
		}

		reqCtx := context.WithoutCancel(ctx)
		resp := s.handleMessage(reqCtx, msg)
		if err := s.transport.WriteMessage(reqCtx, string(protocol.EncodeResponse(resp))); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg string) *protocol.Response {
	req, err := protocol.DecodeRequest([]byte(msg))
	if err != nil {
		return protocol.NewErrorResponse(protocol.NullID, toProtocolError(err))
	}

	resp, err := s.handler(ctx, req)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, toProtocolError(err))
	}
	if resp == nil {
		return protocol.NewErrorResponse(req.ID, protocol.NewInternalError("handler returned no response"))
	}
	resp.ID = req.ID
	return resp
}

func toProtocolError(err error) *protocol.Error {
	if rpcErr, ok := protocol.AsError(err); ok {
		return rpcErr
	}
	return protocol.NewInternalError(err.Error())
}
