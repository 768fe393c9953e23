package profiles

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrNoSink is returned by push operations when no remote is configured.
var ErrNoSink = errors.New("no remote profile sink configured")

// PushProfile uploads the current state of a profile and marks it synced.
// When the profile changed while the push was in flight it stays unsynced,
// so the newer revision is pushed next time.
func (s *Service) PushProfile(ctx context.Context, id string) error {
	if s.sink == nil {
		return ErrNoSink
	}
	p, err := s.store.Profiles.Get(id)
	if err != nil {
		return err
	}
	if p == nil || p.SyncedToRemote {
		return nil
	}

	if err := s.sink.UpsertProfile(ctx, p); err != nil {
		return err
	}
	marked, err := s.store.Profiles.MarkSynced(id, p.Revision)
	if err != nil {
		return err
	}
	if !marked {
		s.log.Debug("profile changed during push, left unsynced", "profile_id", id)
	}
	return nil
}

// DeleteRemote removes the remote backup of a profile.
func (s *Service) DeleteRemote(ctx context.Context, id string) error {
	if s.sink == nil {
		return ErrNoSink
	}
	return s.sink.DeleteProfile(ctx, id)
}

// PushUnsyncedProfiles pushes every unsynced profile, a few at a time. Each
// push is independent: a failure is logged and the others carry on. It
// returns how many profiles were pushed; the error is only set when the
// unsynced profiles could not be listed.
func (s *Service) PushUnsyncedProfiles(ctx context.Context) (int, error) {
	if s.sink == nil {
		return 0, nil
	}
	pending, err := s.store.Profiles.ListUnsynced()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var pushed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PushConcurrency)
	for _, p := range pending {
		id := p.ID
		g.Go(func() error {
			if err := s.PushProfile(gctx, id); err != nil {
				s.log.Warn("profile push failed", "profile_id", id, "error", err)
				return nil
			}
			pushed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("unsynced profiles pushed", "pushed", pushed.Load(), "pending", len(pending))
	return int(pushed.Load()), nil
}
