package entrypoint

import (
	"fmt"
	"strings"

	"github.com/kidopedia/kidopedia/internal/config"
	"github.com/kidopedia/kidopedia/internal/database"
	"github.com/kidopedia/kidopedia/internal/dictionary"
	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/lookup"
	"github.com/kidopedia/kidopedia/internal/profiles"
	"github.com/kidopedia/kidopedia/internal/remote"
	"github.com/kidopedia/kidopedia/internal/tasks"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

// functionPath is where the hosted lookup function lives under the remote base URL.
const functionPath = "/functions/v1/fetch-dictionary"

// App holds the wired core shared by the server and the CLI commands.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Store        *database.Store
	Remote       *remote.Client    // nil when offline-only
	Dictionary   dictionary.Client // nil when no provider is configured
	Orchestrator *wordsync.Orchestrator
	Profiles     *profiles.Service
	Lookup       *lookup.Service
}

// Build opens the store and wires every component over it.
func Build(cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return assemble(cfg, database.NewStore(db), log), nil
}

func assemble(cfg *config.Config, store *database.Store, log *logger.Logger) *App {
	app := &App{Config: cfg, Log: log, Store: store}

	// Interfaces stay nil rather than holding a nil *remote.Client.
	var (
		source wordsync.WordSource
		cache  lookup.RemoteCache
		sink   profiles.Sink
	)
	if !cfg.OfflineOnly() {
		app.Remote = remote.NewClient(remote.Config{
			BaseURL: cfg.Remote.BaseURL,
			APIKey:  cfg.Remote.APIKey,
			Timeout: cfg.Remote.Timeout,
		}, log)
		source, cache, sink = app.Remote, app.Remote, app.Remote
	} else {
		log.Warn("REMOTE_BASE_URL is not set, running offline-only: sync, remote cache and profile backup are disabled")
	}

	app.Dictionary = newDictionaryClient(cfg, log)

	app.Orchestrator = wordsync.NewOrchestrator(source, store.Checkpoints, store.Words, wordsync.Config{
		PageSize:    cfg.Sync.PageSize,
		MaxAge:      cfg.Sync.MaxAge,
		Interval:    cfg.Sync.Interval,
		MaxRetries:  cfg.Sync.MaxRetries,
		BackoffBase: cfg.Sync.BackoffBase,
		PageDelay:   cfg.Sync.PageDelay,
	}, log)

	app.Profiles = profiles.NewService(store, sink, profiles.Config{
		DefaultViewerAge: cfg.Lookup.DefaultViewerAge,
		PushConcurrency:  cfg.Profiles.PushConcurrency,
	}, log)

	app.Lookup = lookup.NewService(store.Words, cache, app.Dictionary, lookup.Config{
		SearchLimit: cfg.Lookup.CacheSearchLimit,
		FillTimeout: cfg.Dictionary.Timeout + cfg.Remote.Timeout,
	}, log)

	return app
}

func newDictionaryClient(cfg *config.Config, log *logger.Logger) dictionary.Client {
	d := cfg.Dictionary
	switch d.Provider {
	case config.DictionaryProviderFreeDictionary:
		return dictionary.NewFreeDictionaryClient(d.BaseURL, d.RateLimit, d.Timeout)
	case config.DictionaryProviderFunction, "":
		url := d.FunctionURL
		if url == "" && cfg.Remote.BaseURL != "" {
			url = strings.TrimRight(cfg.Remote.BaseURL, "/") + functionPath
		}
		if url == "" {
			log.Warn("no dictionary function configured, lookups stop at the local store")
			return nil
		}
		return dictionary.NewFunctionClient(url, cfg.Remote.APIKey, d.Timeout)
	default:
		log.Warn("unknown dictionary provider, lookups stop at the local store", "provider", d.Provider)
		return nil
	}
}

// Handlers returns the collaborators background tasks run against.
func (a *App) Handlers() tasks.Handlers {
	h := tasks.Handlers{Syncer: a.Orchestrator}
	if a.Remote != nil {
		h.Profiles = a.Profiles
		h.Counter = a.Remote
	}
	return h
}

// UseInlineDispatcher routes fire-and-forget work onto goroutines. Callers
// must Wait on the returned dispatcher before exiting.
func (a *App) UseInlineDispatcher() *tasks.InlineDispatcher {
	d := tasks.NewInlineDispatcher(a.Handlers(), a.Config.Tasks.InlineTimeout, a.Log)
	a.Profiles.SetScheduler(d)
	a.Lookup.SetScheduler(d)
	return d
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
