// Package profiles manages child profiles: creation and edits, the active
// profile, learning progress and the best-effort backup of profiles to the
// remote.
//
// Local writes never wait for the network. Every create or update leaves the
// profile unsynced and schedules a push; a push that fails leaves the flag
// set and PushUnsyncedProfiles retries it at the next startup.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kidopedia/kidopedia/internal/database"
	profilerepo "github.com/kidopedia/kidopedia/internal/database/profiles"
	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/logger"
	"github.com/kidopedia/kidopedia/internal/utils"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// XPPerNewWord is awarded the first time a profile views a word.
const XPPerNewWord = 10

// Sink is the remote profile backup.
type Sink interface {
	UpsertProfile(ctx context.Context, p *entities.Profile) error
	DeleteProfile(ctx context.Context, id string) error
}

// Scheduler runs pushes and remote deletes in the background. Failures are
// logged by the scheduler and never reach the caller.
type Scheduler interface {
	SchedulePush(profileID string)
	ScheduleRemoteDelete(profileID string)
}

type Config struct {
	DefaultViewerAge int
	PushConcurrency  int
}

// Input holds the fields of a new profile.
type Input struct {
	Name        string          `json:"name" validate:"required,max=50"`
	Age         int             `json:"age" validate:"required,min=2,max=18"`
	Gender      entities.Gender `json:"gender" validate:"required,oneof=boy girl other"`
	AvatarColor string          `json:"avatarColor" validate:"omitempty,max=32"`
	AvatarURL   string          `json:"avatarUrl" validate:"omitempty,url,max=1024"`
}

// Update holds the fields to change; nil fields are left alone.
type Update struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=50"`
	Age         *int             `json:"age" validate:"omitempty,min=2,max=18"`
	Gender      *entities.Gender `json:"gender" validate:"omitempty,oneof=boy girl other"`
	AvatarColor *string          `json:"avatarColor" validate:"omitempty,max=32"`
	AvatarURL   *string          `json:"avatarUrl" validate:"omitempty,url,max=1024"`
}

type Service struct {
	store     *database.Store
	sink      Sink
	scheduler Scheduler
	validate  *validator.Validate
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a profile service. sink may be nil when no remote is
// configured; pushes are then skipped and profiles stay unsynced.
func NewService(store *database.Store, sink Sink, cfg Config, log *logger.Logger) *Service {
	if cfg.DefaultViewerAge <= 0 {
		cfg.DefaultViewerAge = 8
	}
	if cfg.PushConcurrency <= 0 {
		cfg.PushConcurrency = 4
	}
	return &Service{
		store:    store,
		sink:     sink,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		log:      logger.OrNop(log).With("component", "profiles"),
		now:      time.Now,
	}
}

// SetScheduler wires the background runner for pushes and remote deletes.
func (s *Service) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) schedulePush(id string) {
	if s.scheduler != nil && s.sink != nil {
		s.scheduler.SchedulePush(id)
	}
}

func (s *Service) invalid(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %s", ErrInvalidProfile, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
}

// Create stores a new profile and schedules its first push.
func (s *Service) Create(in Input) (*entities.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, s.invalid(err)
	}
	color := utils.AvatarColorFor(in.Name)
	if in.AvatarColor != "" {
		var err error
		if color, err = utils.NormalizeHexColor(in.AvatarColor); err != nil {
			return nil, s.invalid(err)
		}
	}

	now := s.now().UTC()
	p := &entities.Profile{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Age:          in.Age,
		Gender:       in.Gender,
		AvatarColor:  color,
		AvatarURL:    in.AvatarURL,
		CurrentLevel: 1,
		CreatedAt:    now,
		LastActiveAt: now,
		Revision:     1,
	}
	if err := s.store.Profiles.Create(p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.log.Info("profile created", "profile_id", p.ID)
	s.schedulePush(p.ID)
	return p, nil
}

// Update applies the non-nil fields of u.
func (s *Service) Update(id string, u Update) (*entities.Profile, error) {
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		u.Name = &trimmed
	}
	if err := s.validate.Struct(u); err != nil {
		return nil, s.invalid(err)
	}
	if u.AvatarColor != nil && *u.AvatarColor != "" {
		color, err := utils.NormalizeHexColor(*u.AvatarColor)
		if err != nil {
			return nil, s.invalid(err)
		}
		u.AvatarColor = &color
	}

	p, err := s.mutate(id, func(p *entities.Profile) error {
		if u.Name != nil {
			p.Name = *u.Name
		}
		if u.Age != nil {
			p.Age = *u.Age
		}
		if u.Gender != nil {
			p.Gender = *u.Gender
		}
		if u.AvatarColor != nil {
			p.AvatarColor = *u.AvatarColor
		}
		if u.AvatarURL != nil {
			p.AvatarURL = *u.AvatarURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.schedulePush(id)
	return p, nil
}

func (s *Service) mutate(id string, fn func(p *entities.Profile) error) (*entities.Profile, error) {
	p, err := s.store.Profiles.Mutate(id, fn)
	if errors.Is(err, profilerepo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// Delete removes the profile and everything it owns, then schedules the
// remote delete.
func (s *Service) Delete(id string) error {
	existed, err := s.store.Profiles.Delete(id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if !existed {
		return ErrProfileNotFound
	}

	active, ok, err := s.store.Meta.Get(entities.MetaKeyActiveProfileID)
	if err != nil {
		s.log.Warn("could not read active profile", "error", err)
	} else if ok && active == id {
		if err := s.store.Meta.Delete(entities.MetaKeyActiveProfileID); err != nil {
			s.log.Warn("could not clear active profile", "error", err)
		}
	}

	s.log.Info("profile deleted", "profile_id", id)
	if s.scheduler != nil && s.sink != nil {
		s.scheduler.ScheduleRemoteDelete(id)
	}
	return nil
}

// Get returns the profile or nil.
func (s *Service) Get(id string) (*entities.Profile, error) {
	return s.store.Profiles.Get(id)
}

func (s *Service) List() ([]entities.Profile, error) {
	return s.store.Profiles.List()
}

func (s *Service) mustGet(id string) (*entities.Profile, error) {
	p, err := s.store.Profiles.Get(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// SetActiveProfile makes id the profile whose age gates content.
func (s *Service) SetActiveProfile(id string) (*entities.Profile, error) {
	ok, err := s.store.Profiles.Touch(id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	if err := s.store.Meta.Set(entities.MetaKeyActiveProfileID, id); err != nil {
		return nil, fmt.Errorf("store active profile: %w", err)
	}
	return s.store.Profiles.Get(id)
}

// ClearActiveProfile returns the device to the default viewer age.
func (s *Service) ClearActiveProfile() error {
	return s.store.Meta.Delete(entities.MetaKeyActiveProfileID)
}

// ActiveProfile returns the active profile, or nil when none is set.
func (s *Service) ActiveProfile() (*entities.Profile, error) {
	id, ok, err := s.store.Meta.Get(entities.MetaKeyActiveProfileID)
	if err != nil || !ok || id == "" {
		return nil, err
	}
	return s.store.Profiles.Get(id)
}

// ViewerAge returns the age of the active profile, or the default age.
func (s *Service) ViewerAge() (int, error) {
	p, err := s.ActiveProfile()
	if err != nil {
		return 0, err
	}
	if p == nil {
		return s.cfg.DefaultViewerAge, nil
	}
	return p.Age, nil
}

// DefaultViewerAge is the age used when no profile is active.
func (s *Service) DefaultViewerAge() int {
	return s.cfg.DefaultViewerAge
}
