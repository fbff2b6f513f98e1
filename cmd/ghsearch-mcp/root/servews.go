package root

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

func newServeWSCommand(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-ws",
		Short: "Serve over WebSocket, one server loop per connection",
		Long: "serve-ws accepts WebSocket connections and runs an independent request loop for " +
			"each, one JSON-RPC message per text frame. The listen address defaults to GHSEARCH_WS_ADDR.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.WebSocketAddr
			}
			listener := transport.NewWebSocketListener(addr)
			a.logger.WithField("addr", addr).Info("websocket server starting")

			err = listener.Serve(ctx, func(ctx context.Context, t transport.Transport) error {
				log := a.logger.WithField("session", uuid.NewString())
				log.Debug("session opened")
				err := a.newServer(t).Run(ctx)
				log.WithError(err).Debug("session closed")
				return err
			})
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if err != nil {
				a.logger.WithError(err).Error("websocket server stopped")
			}
			a.logger.Info("shutdown complete")
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides GHSEARCH_WS_ADDR)")
	return cmd
}
