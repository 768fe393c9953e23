package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entrypoint"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled starter words into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				path := file
				if path == "" {
					path = app.Config.Database.SeedPath
				}
				n, err := app.Store.SeedWordsFromFile(path)
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Loaded %d words from %s\n", n, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Seed file (defaults to SEED_PATH)")
	return cmd
}
