package root

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ghsearch-mcp/github"
	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
	"github.com/felixgeelhaar/ghsearch-mcp/server"
)

// unconfiguredSearcher backs the registry when only descriptors are needed.
var unconfiguredSearcher = github.SearcherFunc(func(context.Context, github.SearchQuery) (*github.SearchResult, error) {
	return nil, github.ErrMissingToken
})

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the listTools result",
		Long:  "tools prints the tool descriptors a client would receive from listTools. No token is needed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := newRegistry(unconfiguredSearcher)
			if err != nil {
				return err
			}

			resp, err := server.NewDispatcher(registry).Handle(cmd.Context(), &protocol.Request{
				JSONRPC: protocol.JSONRPCVersion,
				Method:  protocol.MethodListTools,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(resp.Result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode tools: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
