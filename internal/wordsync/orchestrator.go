package wordsync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"

	syncrepo "github.com/kidopedia/kidopedia/internal/database/sync"
	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/remote"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrSyncCancelled  = errors.New("sync cancelled")
	ErrNoSource       = errors.New("no remote word source configured")
)

// CancelledMessage is stored as the checkpoint error after a user cancel.
const CancelledMessage = "Sync cancelled by user"

// WordSource is the remote paginated corpus.
type WordSource interface {
	FetchPage(ctx context.Context, offset, pageSize, maxAge int) ([]entities.Word, error)
	CountWords(ctx context.Context, maxAge int) (int, error)
}

// CheckpointStore persists sync progress and commits pages.
type CheckpointStore interface {
	Load() (syncrepo.Checkpoint, error)
	StartSync(now time.Time) (syncrepo.Checkpoint, error)
	SetTotal(total int) error
	CommitPage(page []entities.Word, offset, completed int) error
	CompleteSync(completedAt, nextDue time.Time) error
	FailSync(message string) error
	ResetProgress() error
}

// WordCounter reports how many words are stored locally.
type WordCounter interface {
	CountWords() (int64, error)
}

type Config struct {
	PageSize    int
	MaxAge      int
	Interval    time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	PageDelay   time.Duration
	Version     string
}

// DefaultConfig returns the production sync settings.
func DefaultConfig() Config {
	return Config{
		PageSize:    50,
		MaxAge:      12,
		Interval:    90 * 24 * time.Hour,
		MaxRetries:  3,
		BackoffBase: time.Second,
		PageDelay:   200 * time.Millisecond,
		Version:     "1.0",
	}
}

// Progress is reported after every committed page.
type Progress struct {
	Current       int    `json:"current"`
	Total         int    `json:"total"`
	Percentage    int    `json:"percentage"`
	IsDownloading bool   `json:"isDownloading"`
	CurrentWord   string `json:"currentWord,omitempty"`
}

type ProgressFunc func(Progress)

// Status is the checkpoint as shown to the UI.
type Status struct {
	syncrepo.Checkpoint
	DaysUntilNextSync int  `json:"daysUntilNextSync"`
	IsRunning         bool `json:"isRunning"`
}

// DownloadStatus summarizes the offline corpus.
type DownloadStatus struct {
	IsDownloaded     bool       `json:"isDownloaded"`
	TotalWords       int        `json:"totalWords"`
	DownloadedWords  int        `json:"downloadedWords"`
	Version          string     `json:"version"`
	LastDownloadDate *time.Time `json:"lastDownloadDate,omitempty"`
}

// Orchestrator runs word syncs. At most one sync runs at a time.
type Orchestrator struct {
	source WordSource
	store  CheckpointStore
	words  WordCounter
	cfg    Config
	log    *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	running   bool
	stopRun   context.CancelFunc
	cancelled atomic.Bool
}

// NewOrchestrator creates an orchestrator. source may be nil when the
// device has no remote configured; syncs then fail with ErrNoSource.
func NewOrchestrator(source WordSource, store CheckpointStore, words WordCounter, cfg Config, log *logger.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	return &Orchestrator{
		source: source,
		store:  store,
		words:  words,
		cfg:    cfg,
		log:    logger.OrNop(log).With("component", "wordsync"),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// SetClock replaces the time source.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// IsSyncNeeded is true when the store never synced or the next sync is due.
func (o *Orchestrator) IsSyncNeeded() (bool, error) {
	cp, err := o.store.Load()
	if err != nil {
		return false, err
	}
	if cp.Status == entities.SyncStatusNeverSynced || cp.NextDueAt == nil {
		return true, nil
	}
	return !o.now().Before(*cp.NextDueAt), nil
}

// NeedsResume reports whether a previous process stopped in the middle of
// a sync.
func (o *Orchestrator) NeedsResume() (bool, error) {
	if o.IsRunning() {
		return false, nil
	}
	cp, err := o.store.Load()
	if err != nil {
		return false, err
	}
	return cp.Status == entities.SyncStatusInProgress, nil
}

func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// CancelSync asks the running sync to stop before its next page. It
// returns false when no sync is running.
func (o *Orchestrator) CancelSync() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return false
	}
	o.cancelled.Store(true)
	if o.stopRun != nil {
		o.stopRun()
	}
	return true
}

// StartSync runs a sync, resuming from the stored offset.
func (o *Orchestrator) StartSync(ctx context.Context, onProgress ProgressFunc) error {
	return o.run(ctx, onProgress, false)
}

// ForceSync drops the resume point and runs a full sync regardless of the
// schedule.
func (o *Orchestrator) ForceSync(ctx context.Context, onProgress ProgressFunc) error {
	return o.run(ctx, onProgress, true)
}

func (o *Orchestrator) acquire(stopRun context.CancelFunc) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	o.stopRun = stopRun
	o.cancelled.Store(false)
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.running = false
	o.stopRun = nil
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, onProgress ProgressFunc, reset bool) error {
	if o.source == nil {
		return ErrNoSource
	}
	// waitCtx ends on CancelSync. It bounds retry and page waits only, so
	// an in-flight fetch still completes.
	waitCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	if !o.acquire(stopRun) {
		return ErrSyncInProgress
	}
	defer o.release()

	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	if reset {
		if err := o.store.ResetProgress(); err != nil {
			return fmt.Errorf("reset sync progress: %w", err)
		}
	}

	cp, err := o.store.StartSync(o.now())
	if err != nil {
		return fmt.Errorf("start sync: %w", err)
	}
	offset, completed := cp.Offset, cp.WordsCompleted

	total, err := o.source.CountWords(ctx, o.cfg.MaxAge)
	if err != nil {
		o.log.Warn("could not count remote words", "error", err)
		total = 0
	} else if err := o.store.SetTotal(total); err != nil {
		return o.fail(fmt.Errorf("store sync total: %w", err))
	}

	o.log.Info("sync started", "offset", offset, "completed", completed, "total", total)
	onProgress(newProgress(completed, total, true, ""))

	for {
		if o.cancelled.Load() {
			return o.stopCancelled(offset)
		}
		if err := ctx.Err(); err != nil {
			return o.fail(err)
		}

		page, err := o.fetchPage(ctx, waitCtx, offset)
		if err != nil {
			if o.cancelled.Load() {
				return o.stopCancelled(offset)
			}
			return o.fail(fmt.Errorf("fetch page at offset %d: %w", offset, err))
		}

		if len(page) > 0 {
			offset += len(page)
			completed += len(page)
			if err := o.store.CommitPage(page, offset, completed); err != nil {
				return o.fail(fmt.Errorf("store page at offset %d: %w", offset-len(page), err))
			}
			onProgress(newProgress(completed, total, true, page[len(page)-1].Word))
		}

		if len(page) < o.cfg.PageSize {
			break
		}
		if o.cfg.PageDelay > 0 {
			// A cancelled context is picked up at the top of the loop.
			_ = o.sleep(waitCtx, o.cfg.PageDelay)
		}
	}

	now := o.now()
	if err := o.store.CompleteSync(now, now.Add(o.cfg.Interval)); err != nil {
		return fmt.Errorf("complete sync: %w", err)
	}
	o.log.Info("sync completed", "words", completed)
	onProgress(newProgress(completed, completed, false, ""))
	return nil
}

// fetchPage fetches one page, retrying transient failures with delays of
// base, 3*base, 9*base. Waiting stops as soon as waitCtx ends.
func (o *Orchestrator) fetchPage(ctx, waitCtx context.Context, offset int) ([]entities.Word, error) {
	var page []entities.Word
	var lastErr error
	base := o.cfg.BackoffBase

	err := retry.Do(
		func() error {
			p, err := o.source.FetchPage(ctx, offset, o.cfg.PageSize, o.cfg.MaxAge)
			if err != nil {
				lastErr = err
				return err
			}
			page = p
			return nil
		},
		retry.Context(waitCtx),
		retry.Attempts(uint(o.cfg.MaxRetries+1)),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return base * time.Duration(math.Pow(3, float64(n)))
		}),
		retry.RetryIf(func(err error) bool {
			return remote.IsTransient(err) && !o.cancelled.Load() && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			o.log.Warn("page fetch failed, retrying", "offset", offset, "attempt", n+1, "error", err)
		}),
	)
	if err == nil {
		return page, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, err
}

// stopCancelled records a user cancel. The offset stays at the first
// uncommitted page so the next run resumes there.
func (o *Orchestrator) stopCancelled(offset int) error {
	o.log.Info("sync cancelled", "offset", offset)
	if err := o.store.FailSync(CancelledMessage); err != nil {
		return fmt.Errorf("record cancellation: %w", err)
	}
	return ErrSyncCancelled
}

func (o *Orchestrator) fail(err error) error {
	o.log.Error("sync failed", "error", err)
	if storeErr := o.store.FailSync(err.Error()); storeErr != nil {
		o.log.Error("could not record sync failure", "error", storeErr)
	}
	return err
}

// Status returns the checkpoint with the days left until the next sync.
func (o *Orchestrator) Status() (Status, error) {
	cp, err := o.store.Load()
	if err != nil {
		return Status{}, err
	}
	st := Status{Checkpoint: cp, IsRunning: o.IsRunning()}
	if cp.NextDueAt != nil {
		remaining := cp.NextDueAt.Sub(o.now())
		if remaining > 0 {
			st.DaysUntilNextSync = int(math.Ceil(remaining.Hours() / 24))
		}
	}
	return st, nil
}

// DownloadStatus reports how much of the corpus is available offline.
func (o *Orchestrator) DownloadStatus() (DownloadStatus, error) {
	cp, err := o.store.Load()
	if err != nil {
		return DownloadStatus{}, err
	}
	stored, err := o.words.CountWords()
	if err != nil {
		return DownloadStatus{}, err
	}
	total := cp.WordsTotal
	if total < int(stored) {
		total = int(stored)
	}
	return DownloadStatus{
		IsDownloaded:     cp.LastCompletedAt != nil,
		TotalWords:       total,
		DownloadedWords:  int(stored),
		Version:          o.cfg.Version,
		LastDownloadDate: cp.LastCompletedAt,
	}, nil
}

func newProgress(current, total int, downloading bool, word string) Progress {
	p := Progress{Current: current, Total: total, IsDownloading: downloading, CurrentWord: word}
	if total < current {
		p.Total = current
	}
	if p.Total > 0 {
		p.Percentage = current * 100 / p.Total
	}
	if !downloading {
		p.Percentage = 100
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
