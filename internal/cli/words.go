package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entrypoint"
	"github.com/kidopedia/kidopedia/internal/lookup"
)

// viewerAge returns age when set, otherwise the active profile's age.
func viewerAge(app *entrypoint.App, age int) (int, error) {
	if age > 0 {
		return age, nil
	}
	return app.Profiles.ViewerAge()
}

func newLookupCommand(opts *rootOptions) *cobra.Command {
	var (
		age       int
		profileID string
	)
	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look up a word through the local store, remote cache and dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				age, err := viewerAge(app, age)
				if err != nil {
					return err
				}
				res, err := app.Lookup.GetWordDetails(ctx, args[0], age)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch res.Status {
				case lookup.StatusBlocked:
					errColor.Fprintln(out, res.Message)
					return nil
				case lookup.StatusNotFound:
					warnColor.Fprintf(out, "No definition found for %q\n", args[0])
					return nil
				}

				printWord(out, res.Word)
				dimColor.Fprintf(out, "source: %s\n", res.Source)

				if _, err := app.Lookup.RecordView(res.Word.Word); err != nil {
					return err
				}
				if profileID == "" {
					return nil
				}
				activity, err := app.Profiles.TrackWordView(profileID, res.Word.Word)
				if err != nil {
					return err
				}
				if activity.NewWord {
					okColor.Fprintf(out, "New word for %s! +%d XP\n", activity.Profile.Name, activity.XPAwarded)
				}
				for _, a := range activity.Unlocked {
					okColor.Fprintf(out, "Achievement unlocked: %s %s\n", a.Icon, a.Title)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "Viewer age (defaults to the active profile)")
	cmd.Flags().StringVar(&profileID, "profile", "", "Record the view for this profile")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var age, limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search words by prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				age, err := viewerAge(app, age)
				if err != nil {
					return err
				}
				res, err := app.Lookup.SearchWords(ctx, strings.Join(args, " "), age, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if res.Blocked {
					errColor.Fprintln(out, res.Message)
					return nil
				}
				if len(res.Words) == 0 {
					warnColor.Fprintf(out, "No words found for %q\n", res.Query)
					return nil
				}
				for _, w := range res.Words {
					printWordLine(out, w)
				}
				dimColor.Fprintf(out, "%d result(s)\n", len(res.Words))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "Viewer age (defaults to the active profile)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	return cmd
}

func formatPercent(current, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d", current)
	}
	return fmt.Sprintf("%d/%d (%d%%)", current, total, current*100/total)
}
