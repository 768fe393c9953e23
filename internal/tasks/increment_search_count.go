package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
)

// SearchCounter bumps the shared search counter of a word.
type SearchCounter interface {
	IncrementSearchCount(ctx context.Context, word string) error
}

// IncrementSearchCountTask forwards one local word view to the remote cache.
type IncrementSearchCountTask struct {
	Word string `json:"word"`
}

// Config returns the queue configuration for search count increments.
func (t IncrementSearchCountTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "increment_search_count",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     15 * time.Second,
		Retention: &backlite.Retention{
			Duration:   time.Hour,
			OnlyFailed: true,
		},
	}
}

// IncrementSearchCountProcessor creates the processor for search count increments.
func IncrementSearchCountProcessor(counter SearchCounter) backlite.QueueProcessor[IncrementSearchCountTask] {
	return func(ctx context.Context, task IncrementSearchCountTask) error {
		return counter.IncrementSearchCount(ctx, task.Word)
	}
}

// NewIncrementSearchCountQueue creates the queue for search count increments.
func NewIncrementSearchCountQueue(counter SearchCounter) backlite.Queue {
	return backlite.NewQueue(IncrementSearchCountProcessor(counter))
}
