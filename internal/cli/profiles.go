package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/entrypoint"
	"github.com/kidopedia/kidopedia/internal/profiles"
)

func newProfilesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage child profiles on this device",
	}
	cmd.AddCommand(
		newProfilesListCommand(opts),
		newProfilesAddCommand(opts),
		newProfilesRemoveCommand(opts),
		newProfilesUseCommand(opts),
		newProfilesPushCommand(opts),
	)
	return cmd
}

func newProfilesListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles; the active one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				list, err := app.Profiles.List()
				if err != nil {
					return err
				}
				active, err := app.Profiles.ActiveProfile()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(list) == 0 {
					warnColor.Fprintln(out, "No profiles yet, create one with: kidopedia profiles add")
					return nil
				}
				for _, p := range list {
					printProfile(out, p, active != nil && active.ID == p.ID)
				}
				return nil
			})
		},
	}
}

func newProfilesAddCommand(opts *rootOptions) *cobra.Command {
	var in profiles.Input
	var gender string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Gender = entities.Gender(gender)
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				p, err := app.Profiles.Create(in)
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Created profile %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&in.Name, "name", "", "Child's name (required)")
	flags.IntVar(&in.Age, "age", 0, "Age between 2 and 18 (required)")
	flags.StringVar(&gender, "gender", string(entities.GenderOther), "boy, girl or other")
	flags.StringVar(&in.AvatarColor, "color", "", "Avatar color as #RRGGBB (picked from the name when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}

func newProfilesRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a profile and its learning history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if err := app.Profiles.Delete(args[0]); err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Removed profile %s\n", args[0])
				return nil
			})
		},
	}
}

func newProfilesUseCommand(opts *rootOptions) *cobra.Command {
	var clearActive bool
	cmd := &cobra.Command{
		Use:   "use [id]",
		Short: "Set the active profile whose age filters lookups",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearActive && len(args) == 0 {
				return fmt.Errorf("profile id required, or --clear")
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				out := cmd.OutOrStdout()
				if clearActive {
					if err := app.Profiles.ClearActiveProfile(); err != nil {
						return err
					}
					okColor.Fprintf(out, "No active profile, lookups use age %d\n", app.Profiles.DefaultViewerAge())
					return nil
				}
				p, err := app.Profiles.SetActiveProfile(args[0])
				if err != nil {
					return err
				}
				okColor.Fprintf(out, "Active profile: %s (age %d)\n", p.Name, p.Age)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearActive, "clear", false, "Clear the active profile")
	return cmd
}

func newProfilesPushCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Back up profiles that have local changes to the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if app.Remote == nil {
					return errOffline
				}
				n, err := app.Profiles.PushUnsyncedProfiles(ctx)
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Pushed %d profile(s)\n", n)
				return nil
			})
		},
	}
}
