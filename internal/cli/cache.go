package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entrypoint"
)

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the locally stored words",
	}
	cmd.AddCommand(newCacheClearCommand(opts))
	return cmd
}

func newCacheClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored word and reset the sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				before, err := app.Store.Words.CountWords()
				if err != nil {
					return err
				}
				if err := app.Store.ClearWordCache(); err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Removed %d words, the next sync starts from the beginning\n", before)
				return nil
			})
		},
	}
}
