package root

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			i := info()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", i.Name, i.Version)
			return err
		},
	}
}
