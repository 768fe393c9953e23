package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entrypoint"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local dictionary and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				st, err := app.Orchestrator.Status()
				if err != nil {
					return err
				}
				dl, err := app.Orchestrator.DownloadStatus()
				if err != nil {
					return err
				}
				seeded, err := app.Store.IsInitialSetupComplete()
				if err != nil {
					return err
				}
				version, err := app.Store.SchemaVersion()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				titleColor.Fprintln(out, "Kidopedia status")
				fmt.Fprintf(out, "Database:        %s (schema %s)\n", app.Config.Database.Path, version)
				if app.Remote == nil {
					warnColor.Fprintln(out, "Remote:          offline-only")
				} else {
					fmt.Fprintf(out, "Remote:          %s\n", app.Config.Remote.BaseURL)
				}
				fmt.Fprintf(out, "Seed words:      %s\n", yesNo(seeded))
				fmt.Fprintf(out, "Words stored:    %d\n", dl.DownloadedWords)
				fmt.Fprintf(out, "Sync status:     %s\n", st.Status)
				if st.WordsTotal > 0 {
					fmt.Fprintf(out, "Sync progress:   %s\n", formatPercent(st.WordsCompleted, st.WordsTotal))
				}
				if st.LastCompletedAt != nil {
					fmt.Fprintf(out, "Last sync:       %s\n", st.LastCompletedAt.Format(time.RFC3339))
				}
				if st.NextDueAt != nil {
					fmt.Fprintf(out, "Next sync due:   %s (%d days)\n", st.NextDueAt.Format(time.RFC3339), st.DaysUntilNextSync)
				}
				if st.ErrorMessage != "" {
					errColor.Fprintf(out, "Last error:      %s\n", st.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
