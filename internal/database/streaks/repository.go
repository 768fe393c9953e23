// Package streaks provides database operations for daily activity streaks.
package streaks

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/entities"
)

const dateLayout = "2006-01-02"

// Repository handles all streak database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new streaks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the streak of a profile or nil if it never had activity.
func (r *Repository) Get(profileID string) (*entities.DailyStreak, error) {
	var s entities.DailyStreak
	err := r.db.Where("profile_id = ?", profileID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordActivity applies the daily transition for activity at now, using
// the calendar date of now in its own location.
func (r *Repository) RecordActivity(profileID string, now time.Time) (*entities.DailyStreak, error) {
	today := now.Format(dateLayout)
	var out entities.DailyStreak
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var s entities.DailyStreak
		res := tx.Where("profile_id = ?", profileID).Limit(1).Find(&s)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out = entities.DailyStreak{
				ProfileID:        profileID,
				StreakCount:      1,
				LongestStreak:    1,
				LastActivityDate: today,
			}
			return tx.Create(&out).Error
		}

		next := Advance(s, today)
		if next == s {
			out = s
			return nil
		}
		out = next
		return tx.Save(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Advance returns the streak after activity on the given date (YYYY-MM-DD).
// Activity on the day after the last one extends the streak, the same day is
// a no-op, and any longer gap restarts it at one.
func Advance(s entities.DailyStreak, today string) entities.DailyStreak {
	gap, ok := daysBetween(s.LastActivityDate, today)
	switch {
	case ok && gap == 0:
		return s
	case ok && gap < 0:
		// clock moved backwards; keep what we have
		return s
	case ok && gap == 1:
		s.StreakCount++
	default:
		s.StreakCount = 1
	}
	if s.StreakCount > s.LongestStreak {
		s.LongestStreak = s.StreakCount
	}
	s.LastActivityDate = today
	return s
}

func daysBetween(from, to string) (int, bool) {
	a, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, false
	}
	b, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}
