package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidopedia/kidopedia/internal/config"
	http_controllers "github.com/kidopedia/kidopedia/internal/http"
	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/scheduler"
	"github.com/kidopedia/kidopedia/internal/tasks"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log *logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	// kill (no param) default sends syscall.SIGTERM, kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so in-flight syncs record their checkpoint.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	log.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting kidopedia", "version", version)

	app, err := Build(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", "error", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	bg, err := app.startBackground(rootCtx)
	if err != nil {
		log.Fatal("failed to start background work", "error", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Store:      app.Store,
		Words:      app.Lookup,
		Profiles:   app.Profiles,
		Sync:       app.Orchestrator,
		TaskClient: bg.taskClient,
		Version:    version,
		Logger:     log,
	}
	if bg.dispatcher != nil {
		routerCfg.SyncDispatcher = bg.dispatcher
	}

	router := http_controllers.NewRouter(rootCtx, routerCfg)

	Serve(router, cfg, log, func(ctx context.Context) {
		if app.Orchestrator.CancelSync() {
			log.Info("cancelled running dictionary sync")
		}
		rootCancel()
		bg.stop(ctx)
	})
}

// background is the work started alongside the server.
type background struct {
	taskClient *tasks.Client
	dispatcher *tasks.Dispatcher
	inline     *tasks.InlineDispatcher
	scheduler  *scheduler.DictionarySyncScheduler
	cancel     context.CancelFunc
	log        *logger.Logger
}

// startBackground runs the startup sequence after the store is open: start
// the task queue, push unsynced profiles, resume or start a due sync and
// start the periodic sync check.
func (a *App) startBackground(ctx context.Context) (*background, error) {
	cfg := a.Config
	bg := &background{log: a.Log}

	if cfg.Tasks.Enabled {
		client, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}, a.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		client.RegisterHandlers(a.Handlers())

		taskCtx, cancel := context.WithCancel(context.Background())
		bg.cancel = cancel
		go client.Start(taskCtx)

		bg.taskClient = client
		bg.dispatcher = tasks.NewDispatcher(client, a.Log)
		a.Profiles.SetScheduler(bg.dispatcher)
		a.Lookup.SetScheduler(bg.dispatcher)
	} else {
		bg.inline = a.UseInlineDispatcher()
	}

	if a.Remote == nil {
		return bg, nil
	}

	go func() {
		n, err := a.Profiles.PushUnsyncedProfiles(ctx)
		if err != nil {
			a.Log.Warn("profile push at startup failed", "error", err)
			return
		}
		if n > 0 {
			a.Log.Info("pushed unsynced profiles", "count", n)
		}
	}()

	bg.scheduler = scheduler.NewDictionarySyncScheduler(a.Orchestrator, scheduler.Config{
		Enabled:  cfg.Sync.Enabled,
		Schedule: cfg.Sync.Schedule,
	}, a.Log)

	if err := a.syncAtStartup(ctx, bg); err != nil {
		a.Log.Warn("could not check sync state at startup", "error", err)
	}

	if err := bg.scheduler.Start(ctx); err != nil {
		return nil, err
	}
	return bg, nil
}

// syncAtStartup resumes an interrupted sync or starts a due one.
func (a *App) syncAtStartup(ctx context.Context, bg *background) error {
	needed, err := a.Orchestrator.IsSyncNeeded()
	if err != nil {
		return err
	}
	resume, err := a.Orchestrator.NeedsResume()
	if err != nil {
		return err
	}
	if !needed && !resume {
		return nil
	}
	a.Log.Info("dictionary sync due at startup", "resume", resume)

	if bg.dispatcher != nil {
		_, err := bg.dispatcher.ScheduleSync(false)
		return err
	}
	go func() {
		err := a.Orchestrator.StartSync(ctx, nil)
		if err != nil && !errors.Is(err, wordsync.ErrSyncCancelled) && !errors.Is(err, context.Canceled) {
			a.Log.Warn("startup sync failed", "error", err)
		}
	}()
	return nil
}

func (bg *background) stop(ctx context.Context) {
	if bg.scheduler != nil {
		bg.scheduler.Stop()
	}
	if bg.taskClient != nil {
		bg.taskClient.Stop(ctx)
		if bg.cancel != nil {
			bg.cancel()
		}
		if err := bg.taskClient.Close(); err != nil {
			bg.log.Error("error closing task client", "error", err)
		}
	}
	if bg.inline != nil {
		bg.inline.Wait()
	}
}
