package cli

import (
	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entrypoint"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background sync",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			entrypoint.Run(opts.config(), opts.version)
		},
	}
}
