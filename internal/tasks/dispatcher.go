package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/kidopedia/kidopedia/internal/logger"
)

// Handlers are the collaborators the queues run against. Nil handlers leave
// their queues unregistered.
type Handlers struct {
	Profiles ProfilePusher
	Counter  SearchCounter
	Syncer   Syncer
}

// RegisterHandlers registers a queue for every non-nil handler.
// Must be called before Start().
func (c *Client) RegisterHandlers(h Handlers) {
	if h.Profiles != nil {
		c.Register(NewPushProfileQueue(h.Profiles), NewDeleteRemoteProfileQueue(h.Profiles))
	}
	if h.Counter != nil {
		c.Register(NewIncrementSearchCountQueue(h.Counter))
	}
	if h.Syncer != nil {
		c.Register(NewDictionarySyncQueue(h.Syncer, c.log))
	}
}

// Dispatcher enqueues fire-and-forget work on the task queue. Enqueue
// failures are logged and never returned to the caller.
type Dispatcher struct {
	client *Client
	log    *logger.Logger
}

// NewDispatcher creates a Dispatcher backed by client.
func NewDispatcher(client *Client, log *logger.Logger) *Dispatcher {
	return &Dispatcher{client: client, log: logger.OrNop(log)}
}

// SchedulePush enqueues a push of the profile to the remote sink.
func (d *Dispatcher) SchedulePush(profileID string) {
	d.enqueue("push_profile", "profile_id", profileID, PushProfileTask{ProfileID: profileID})
}

// ScheduleRemoteDelete enqueues removal of the profile from the remote sink.
func (d *Dispatcher) ScheduleRemoteDelete(profileID string) {
	d.enqueue("delete_remote_profile", "profile_id", profileID, DeleteRemoteProfileTask{ProfileID: profileID})
}

// ScheduleSearchCountIncrement enqueues a remote search count increment.
func (d *Dispatcher) ScheduleSearchCountIncrement(word string) {
	d.enqueue("increment_search_count", "word", word, IncrementSearchCountTask{Word: word})
}

// ScheduleSync enqueues a background dictionary sync and returns its task ID.
func (d *Dispatcher) ScheduleSync(force bool) (string, error) {
	ids, err := d.client.Add(DictionarySyncTask{Force: force}).Save()
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (d *Dispatcher) enqueue(op, key, value string, task backlite.Task) {
	if _, err := d.client.Add(task).Save(); err != nil {
		d.log.Warn("could not enqueue background task", "operation", op, key, value, "error", err)
	}
}

// InlineDispatcher runs fire-and-forget work on detached goroutines. It is
// used by short-lived commands that do not start the task queue.
type InlineDispatcher struct {
	handlers Handlers
	timeout  time.Duration
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewInlineDispatcher creates an InlineDispatcher. Each call is bounded by timeout.
func NewInlineDispatcher(h Handlers, timeout time.Duration, log *logger.Logger) *InlineDispatcher {
	if timeout <= 0 {
		timeout = DefaultConfig().InlineTimeout
	}
	return &InlineDispatcher{handlers: h, timeout: timeout, log: logger.OrNop(log)}
}

// SchedulePush pushes the profile in the background.
func (d *InlineDispatcher) SchedulePush(profileID string) {
	if d.handlers.Profiles == nil {
		return
	}
	d.spawn("push_profile", "profile_id", profileID, func(ctx context.Context) error {
		return d.handlers.Profiles.PushProfile(ctx, profileID)
	})
}

// ScheduleRemoteDelete deletes the remote profile in the background.
func (d *InlineDispatcher) ScheduleRemoteDelete(profileID string) {
	if d.handlers.Profiles == nil {
		return
	}
	d.spawn("delete_remote_profile", "profile_id", profileID, func(ctx context.Context) error {
		return d.handlers.Profiles.DeleteRemote(ctx, profileID)
	})
}

// ScheduleSearchCountIncrement bumps the remote search count in the background.
func (d *InlineDispatcher) ScheduleSearchCountIncrement(word string) {
	if d.handlers.Counter == nil {
		return
	}
	d.spawn("increment_search_count", "word", word, func(ctx context.Context) error {
		return d.handlers.Counter.IncrementSearchCount(ctx, word)
	})
}

// Wait blocks until every spawned call has returned.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

func (d *InlineDispatcher) spawn(op, key, value string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.log.Warn("background task failed", "operation", op, key, value, "error", err)
		}
	}()
}
