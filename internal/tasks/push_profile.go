package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
)

// ProfilePusher mirrors local profile state to the remote profile sink.
type ProfilePusher interface {
	PushProfile(ctx context.Context, id string) error
	DeleteRemote(ctx context.Context, id string) error
}

// PushProfileTask pushes one kid profile to the remote sink.
type PushProfileTask struct {
	ProfileID string `json:"profile_id"`
}

// Config returns the queue configuration for profile pushes.
func (t PushProfileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "push_profile",
		MaxAttempts: 5,
		Backoff:     time.Minute,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data: &backlite.RetainData{
				OnlyFailed: true,
			},
		},
	}
}

// PushProfileProcessor creates the processor for profile pushes. A profile
// that was deleted or already synced by the time the task runs is a no-op.
func PushProfileProcessor(pusher ProfilePusher) backlite.QueueProcessor[PushProfileTask] {
	return func(ctx context.Context, task PushProfileTask) error {
		return pusher.PushProfile(ctx, task.ProfileID)
	}
}

// NewPushProfileQueue creates the queue for profile pushes.
func NewPushProfileQueue(pusher ProfilePusher) backlite.Queue {
	return backlite.NewQueue(PushProfileProcessor(pusher))
}

// DeleteRemoteProfileTask removes a deleted kid profile from the remote sink.
type DeleteRemoteProfileTask struct {
	ProfileID string `json:"profile_id"`
}

// Config returns the queue configuration for remote profile deletes.
func (t DeleteRemoteProfileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "delete_remote_profile",
		MaxAttempts: 5,
		Backoff:     time.Minute,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// DeleteRemoteProfileProcessor creates the processor for remote profile deletes.
func DeleteRemoteProfileProcessor(pusher ProfilePusher) backlite.QueueProcessor[DeleteRemoteProfileTask] {
	return func(ctx context.Context, task DeleteRemoteProfileTask) error {
		return pusher.DeleteRemote(ctx, task.ProfileID)
	}
}

// NewDeleteRemoteProfileQueue creates the queue for remote profile deletes.
func NewDeleteRemoteProfileQueue(pusher ProfilePusher) backlite.Queue {
	return backlite.NewQueue(DeleteRemoteProfileProcessor(pusher))
}
