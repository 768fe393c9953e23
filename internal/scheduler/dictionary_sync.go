package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

// SyncRunner is the part of the sync orchestrator the scheduler drives.
type SyncRunner interface {
	IsSyncNeeded() (bool, error)
	NeedsResume() (bool, error)
	StartSync(ctx context.Context, onProgress wordsync.ProgressFunc) error
}

// Config controls the periodic sync check.
type Config struct {
	Enabled  bool
	Schedule string // Cron format: "0 */6 * * *" = every 6 hours
}

// DictionarySyncScheduler periodically checks whether the 90-day sync window
// has elapsed (or a sync was interrupted) and runs the orchestrator if so.
type DictionarySyncScheduler struct {
	runner SyncRunner
	cfg    Config
	log    *logger.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	runCtx     context.Context
	cancelFunc context.CancelFunc
}

// NewDictionarySyncScheduler creates a new scheduler instance.
func NewDictionarySyncScheduler(runner SyncRunner, cfg Config, log *logger.Logger) *DictionarySyncScheduler {
	return &DictionarySyncScheduler{
		runner: runner,
		cfg:    cfg,
		log:    logger.OrNop(log).With("component", "sync_scheduler"),
		cron:   cron.New(cron.WithParser(parser)),
		runCtx: context.Background(),
	}
}

// Start begins the scheduler if sync is enabled. Cancelling ctx stops the
// scheduler and aborts a sync it started.
func (s *DictionarySyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		s.log.Info("dictionary sync scheduler disabled")
		return nil
	}

	if err := ValidateSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	s.runCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.cfg.Schedule, time.Now())
	s.log.Info("dictionary sync scheduler started",
		"schedule", s.cfg.Schedule,
		"description", DescribeSchedule(s.cfg.Schedule),
		"next_run", nextRun)

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(s.runCtx.Done())

	return nil
}

// Stop cancels a running scheduled sync and waits for the job to return.
func (s *DictionarySyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.runCtx = context.Background()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Wait for a running job to observe the cancellation.
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)

	s.log.Info("dictionary sync scheduler stopped")
}

// RunNow triggers an immediate check in the background.
func (s *DictionarySyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active.
func (s *DictionarySyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a scheduled sync is in progress.
func (s *DictionarySyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next check will occur.
func (s *DictionarySyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// CheckAndSync runs a sync if one is due or was interrupted. It reports
// whether a sync was started.
func (s *DictionarySyncScheduler) CheckAndSync(ctx context.Context) (bool, error) {
	needed, err := s.runner.IsSyncNeeded()
	if err != nil {
		return false, fmt.Errorf("check sync schedule: %w", err)
	}
	if !needed {
		resume, err := s.runner.NeedsResume()
		if err != nil {
			return false, fmt.Errorf("check interrupted sync: %w", err)
		}
		needed = resume
	}
	if !needed {
		s.log.Debug("dictionary sync not due")
		return false, nil
	}

	s.log.Info("dictionary sync due, starting")
	err = s.runner.StartSync(ctx, func(p wordsync.Progress) {
		s.log.Debug("dictionary sync progress", "current", p.Current, "total", p.Total, "percentage", p.Percentage)
	})
	return true, err
}

func (s *DictionarySyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.log.Info("dictionary sync skipped, already syncing")
		return
	}
	s.isSyncing = true
	ctx := s.runCtx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	started := time.Now()
	ran, err := s.CheckAndSync(ctx)
	switch {
	case errors.Is(err, wordsync.ErrSyncInProgress):
		s.log.Info("dictionary sync skipped, orchestrator busy")
	case errors.Is(err, wordsync.ErrSyncCancelled), errors.Is(err, context.Canceled):
		s.log.Info("dictionary sync cancelled")
	case err != nil:
		s.log.Warn("dictionary sync failed", "error", err)
	case ran:
		s.log.Info("dictionary sync finished", "duration", time.Since(started).Round(time.Millisecond))
	}
}
