// Package root defines the ghsearch-mcp command tree.
package root

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ghsearch-mcp/server"
	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

// Name is the server name reported to clients and telemetry.
const Name = "ghsearch-mcp"

var appVersion = "dev"

// SetVersion sets the version reported by the version command and telemetry.
func SetVersion(v string) {
	appVersion = v
}

func info() server.Info {
	return server.Info{Name: Name, Version: appVersion}
}

type rootFlags struct {
	logLevel string
	envFiles []string
}

// NewCommand builds the command tree. Running it without a subcommand
// serves over stdio until input ends or the process is interrupted.
func NewCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   Name,
		Short: "Serve GitHub repository search as a JSON-RPC tool over stdio",
		Long: "ghsearch-mcp reads newline-delimited JSON-RPC 2.0 requests on stdin and writes one " +
			"response per request on stdout. It exposes a single tool, search_repositories, " +
			"backed by the GitHub search API. Logs go to stderr.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Version:      appVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd, flags)
		},
	}
	cmd.SetVersionTemplate(Name + " {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "env files to read before the process environment (default .env)")

	cmd.AddCommand(
		newServeWSCommand(flags),
		newToolsCommand(),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the command tree.
func Execute() error {
	return NewCommand().Execute()
}

func runStdio(cmd *cobra.Command, flags *rootFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.WithField("transport", "stdio").Info("server starting")

	t := transport.NewStdio(
		transport.WithStdin(cmd.InOrStdin()),
		transport.WithStdout(cmd.OutOrStdout()),
	)
	err = a.newServer(t).Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("interrupted")
		err = nil
	}
	if err != nil {
		a.logger.WithError(err).Error("server stopped")
	}
	a.logger.Info("shutdown complete")
	return err
}
