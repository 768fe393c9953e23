package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entrypoint"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

var errOffline = errors.New("no remote backend configured, set REMOTE_BASE_URL")

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var force, ifDue bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download age-appropriate words from the remote cache",
		Long: "Download age-appropriate words from the remote cache into the local store.\n" +
			"An interrupted sync resumes from its last checkpoint; --force starts over.\n" +
			"Press Ctrl+C to stop, progress is kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if app.Remote == nil {
					return errOffline
				}
				out := cmd.OutOrStdout()

				if ifDue && !force {
					needed, err := app.Orchestrator.IsSyncNeeded()
					if err != nil {
						return err
					}
					resume, err := app.Orchestrator.NeedsResume()
					if err != nil {
						return err
					}
					if !needed && !resume {
						okColor.Fprintln(out, "Dictionary is up to date")
						return nil
					}
				}

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
				defer stop()
				go func() {
					<-ctx.Done()
					app.Orchestrator.CancelSync()
				}()

				progress := func(p wordsync.Progress) {
					fmt.Fprintf(out, "\rDownloading words: %s", formatPercent(p.Current, p.Total))
				}

				run := app.Orchestrator.StartSync
				if force {
					run = app.Orchestrator.ForceSync
				}
				err := run(ctx, progress)
				fmt.Fprintln(out)

				switch {
				case errors.Is(err, wordsync.ErrSyncCancelled), errors.Is(err, context.Canceled):
					warnColor.Fprintln(out, "Sync cancelled, progress saved")
					return nil
				case err != nil:
					return err
				}

				st, err := app.Orchestrator.Status()
				if err != nil {
					return err
				}
				okColor.Fprintf(out, "Sync complete: %d words\n", st.WordsCompleted)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Start over instead of resuming")
	cmd.Flags().BoolVar(&ifDue, "if-due", false, "Only sync when the schedule says a sync is due")
	return cmd
}
