package profiles

import (
	"fmt"
	"time"

	"github.com/kidopedia/kidopedia/internal/database/achievements"
	"github.com/kidopedia/kidopedia/internal/entities"
)

// Activity is what a view or a favorite did to the profile.
type Activity struct {
	Profile   *entities.Profile      `json:"profile"`
	Progress  *entities.WordProgress `json:"progress,omitempty"`
	NewWord   bool                   `json:"newWord"`
	XPAwarded int                    `json:"xpAwarded"`
	Streak    *entities.DailyStreak  `json:"streak,omitempty"`
	Unlocked  []entities.Achievement `json:"unlocked,omitempty"`
}

// FavoriteResult is returned by ToggleFavorite.
type FavoriteResult struct {
	IsFavorite bool `json:"isFavorite"`
	Activity
}

// AchievementStatus is a catalog entry with the profile's unlock state.
type AchievementStatus struct {
	entities.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// TrackWordView records that the profile looked at word. The first view of
// a word earns XP and counts as a learned word; every view counts as
// activity for the daily streak.
func (s *Service) TrackWordView(profileID, word string) (*Activity, error) {
	if _, err := s.mustGet(profileID); err != nil {
		return nil, err
	}
	now := s.now()

	wp, firstView, err := s.store.Progress.RecordView(profileID, word, now)
	if err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}
	act, err := s.recordActivity(profileID, firstView, now)
	if err != nil {
		return nil, err
	}
	act.Progress = wp
	return act, nil
}

// ToggleFavorite flips the favorite flag of word for the profile. Favoriting
// a word the profile never viewed creates its progress row with one view,
// and that view is treated exactly like a first view: it earns XP, counts
// as a learned word and as streak activity.
func (s *Service) ToggleFavorite(profileID, word string) (*FavoriteResult, error) {
	if _, err := s.mustGet(profileID); err != nil {
		return nil, err
	}
	now := s.now()

	isFavorite, created, err := s.store.Progress.ToggleFavorite(profileID, word, now)
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}

	var act *Activity
	if created {
		act, err = s.recordActivity(profileID, true, now)
	} else if act, err = s.evaluate(profileID, nil, now); err == nil && len(act.Unlocked) > 0 {
		s.schedulePush(profileID)
	}
	if err != nil {
		return nil, err
	}
	act.Progress, err = s.store.Progress.Get(profileID, word)
	if err != nil {
		return nil, err
	}
	return &FavoriteResult{IsFavorite: isFavorite, Activity: *act}, nil
}

func (s *Service) recordActivity(profileID string, newWord bool, now time.Time) (*Activity, error) {
	var xp int
	if newWord {
		xp = XPPerNewWord
		if _, err := s.mutate(profileID, func(p *entities.Profile) error {
			p.TotalXP += XPPerNewWord
			p.WordsLearned++
			p.LastActiveAt = now.UTC()
			return nil
		}); err != nil {
			return nil, err
		}
	}

	streak, err := s.store.Streaks.RecordActivity(profileID, now)
	if err != nil {
		return nil, fmt.Errorf("record streak: %w", err)
	}

	act, err := s.evaluate(profileID, streak, now)
	if err != nil {
		return nil, err
	}
	act.NewWord = newWord
	act.XPAwarded += xp
	if newWord || len(act.Unlocked) > 0 {
		s.schedulePush(profileID)
	}
	return act, nil
}

// evaluate unlocks every achievement the profile now satisfies and adds
// their XP rewards.
func (s *Service) evaluate(profileID string, streak *entities.DailyStreak, now time.Time) (*Activity, error) {
	profile, err := s.mustGet(profileID)
	if err != nil {
		return nil, err
	}
	if streak == nil {
		if streak, err = s.store.Streaks.Get(profileID); err != nil {
			return nil, err
		}
	}
	favorites, err := s.store.Progress.CountFavorites(profileID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.Achievements.List()
	if err != nil {
		return nil, err
	}

	streakCount := 0
	if streak != nil {
		streakCount = streak.StreakCount
	}

	act := &Activity{Profile: profile, Streak: streak}
	reward := 0
	for _, a := range achievements.Satisfied(catalog, profile.WordsLearned, streakCount, int(favorites)) {
		unlocked, err := s.store.Achievements.Unlock(profileID, a.ID, now.UTC())
		if err != nil {
			return nil, fmt.Errorf("unlock achievement %s: %w", a.ID, err)
		}
		if unlocked {
			s.log.Info("achievement unlocked", "profile_id", profileID, "achievement", a.ID)
			act.Unlocked = append(act.Unlocked, a)
			reward += a.XPReward
		}
	}
	if reward > 0 {
		if act.Profile, err = s.mutate(profileID, func(p *entities.Profile) error {
			p.TotalXP += reward
			return nil
		}); err != nil {
			return nil, err
		}
		act.XPAwarded += reward
	}
	return act, nil
}

// FavoriteWords returns the stored favorite words the profile may see.
func (s *Service) FavoriteWords(profileID string) ([]entities.Word, error) {
	p, err := s.mustGet(profileID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Progress.GetFavoriteWords(profileID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Word, 0, len(all))
	for i := range all {
		if all[i].VisibleTo(p.Age) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Streak returns the profile's streak, or nil before any activity.
func (s *Service) Streak(profileID string) (*entities.DailyStreak, error) {
	if _, err := s.mustGet(profileID); err != nil {
		return nil, err
	}
	return s.store.Streaks.Get(profileID)
}

// Achievements returns the catalog with the profile's unlock state.
func (s *Service) Achievements(profileID string) ([]AchievementStatus, error) {
	if _, err := s.mustGet(profileID); err != nil {
		return nil, err
	}
	catalog, err := s.store.Achievements.List()
	if err != nil {
		return nil, err
	}
	unlocked, err := s.store.Achievements.ListUnlocked(profileID)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(unlocked))
	for _, u := range unlocked {
		at[u.AchievementID] = u.UnlockedAt
	}

	out := make([]AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		st := AchievementStatus{Achievement: a}
		if t, ok := at[a.ID]; ok {
			t := t
			st.Unlocked = true
			st.UnlockedAt = &t
		}
		out = append(out, st)
	}
	return out, nil
}

// AddRecentSearch appends word to the search history of profileID, or to
// the device history when profileID is empty.
func (s *Service) AddRecentSearch(profileID, word string) error {
	return s.store.Searches.Add(profileID, word, s.now().UTC())
}

func (s *Service) RecentSearches(profileID string, limit int) ([]entities.RecentSearch, error) {
	return s.store.Searches.List(profileID, limit)
}

func (s *Service) ClearRecentSearches(profileID string) error {
	return s.store.Searches.Clear(profileID)
}
