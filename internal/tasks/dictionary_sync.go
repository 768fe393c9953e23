package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

// Syncer runs a dictionary download.
type Syncer interface {
	StartSync(ctx context.Context, onProgress wordsync.ProgressFunc) error
	ForceSync(ctx context.Context, onProgress wordsync.ProgressFunc) error
}

// DictionarySyncTask downloads the dictionary in the background.
type DictionarySyncTask struct {
	// Force discards the stored offset and starts from the first page.
	Force bool `json:"force"`
}

// Config returns the queue configuration for dictionary syncs.
// The orchestrator retries pages itself, so the task runs once.
func (t DictionarySyncTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "dictionary_sync",
		MaxAttempts: 1,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

// DictionarySyncProcessor creates the processor for dictionary syncs.
// A sync that is already running or was cancelled is not a task failure.
func DictionarySyncProcessor(syncer Syncer, log *logger.Logger) backlite.QueueProcessor[DictionarySyncTask] {
	log = logger.OrNop(log)
	return func(ctx context.Context, task DictionarySyncTask) error {
		run := syncer.StartSync
		if task.Force {
			run = syncer.ForceSync
		}
		err := run(ctx, nil)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, wordsync.ErrSyncInProgress):
			log.Info("dictionary sync already running, skipping task")
			return nil
		case errors.Is(err, wordsync.ErrSyncCancelled):
			log.Info("dictionary sync cancelled")
			return nil
		default:
			return err
		}
	}
}

// NewDictionarySyncQueue creates the queue for dictionary syncs.
func NewDictionarySyncQueue(syncer Syncer, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(DictionarySyncProcessor(syncer, log))
}
