// Package cli implements the kidopedia command line: the HTTP server plus
// maintenance commands that run against the same local store.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kidopedia/kidopedia/internal/config"
	"github.com/kidopedia/kidopedia/internal/entrypoint"
	"github.com/kidopedia/kidopedia/internal/logger"
)

// logModeQuiet discards all log output, leaving only command output.
const logModeQuiet = "quiet"

type rootOptions struct {
	version      string
	databasePath string
	logMode      string
	loadConfig   func() *config.Config
}

// NewRootCommand returns the kidopedia command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&rootOptions{version: version, loadConfig: config.NewConfig})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "kidopedia",
		Short:         "Offline-first children's dictionary",
		Version:       opts.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.databasePath, "db", "", "Path to the local database (overrides DATABASE_PATH)")
	flags.StringVar(&opts.logMode, "log-mode", "", "Log mode: production, development or quiet (overrides LOG_MODE)")

	root.AddCommand(
		newServeCommand(opts),
		newSyncCommand(opts),
		newLookupCommand(opts),
		newSearchCommand(opts),
		newStatusCommand(opts),
		newSeedCommand(opts),
		newCacheCommand(opts),
		newProfilesCommand(opts),
	)
	return root
}

// config loads the configuration and applies the global flag overrides.
func (o *rootOptions) config() *config.Config {
	cfg := o.loadConfig()
	if o.databasePath != "" {
		cfg.Database.Path = o.databasePath
	}
	if o.logMode != "" {
		cfg.Log.Mode = o.logMode
	}
	return cfg
}

func newLogger(mode string) (*logger.Logger, error) {
	if strings.EqualFold(mode, logModeQuiet) {
		return logger.Nop(), nil
	}
	return logger.New(mode)
}

// withApp builds the core over the local store, runs fn and waits for any
// background pushes fn scheduled before closing the store.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *entrypoint.App) error) error {
	cfg := o.config()
	log, err := newLogger(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	app, err := entrypoint.Build(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()

	dispatcher := app.UseInlineDispatcher()
	defer dispatcher.Wait()

	return fn(cmd.Context(), app)
}
