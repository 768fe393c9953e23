// Package achievements provides database operations for the achievement
// catalog and per-profile unlocks.
//
// # Usage
//
//	repo := achievements.NewRepository(db)
//	err := repo.Seed(achievements.Catalog)
//	unlocked, err := repo.Unlock(profileID, "first_word", time.Now())
package achievements

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidopedia/kidopedia/internal/entities"
)

// Catalog is the built-in set of achievements seeded on initialization.
var Catalog = []entities.Achievement{
	{ID: "first_word", Title: "First Word", Description: "Look up your very first word", Icon: "star", Category: entities.AchievementCategoryLearning, XPReward: 10,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionWordsLearned, Threshold: 1}},
	{ID: "word_explorer", Title: "Word Explorer", Description: "Learn 10 words", Icon: "compass", Category: entities.AchievementCategoryLearning, XPReward: 25,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionWordsLearned, Threshold: 10}},
	{ID: "word_wizard", Title: "Word Wizard", Description: "Learn 50 words", Icon: "wand", Category: entities.AchievementCategoryLearning, XPReward: 50,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionWordsLearned, Threshold: 50}},
	{ID: "bookworm", Title: "Bookworm", Description: "Learn 100 words", Icon: "book", Category: entities.AchievementCategoryLearning, XPReward: 100,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionWordsLearned, Threshold: 100}},
	{ID: "streak_3", Title: "On a Roll", Description: "Learn something 3 days in a row", Icon: "flame", Category: entities.AchievementCategoryStreak, XPReward: 20,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionStreak, Threshold: 3}},
	{ID: "streak_7", Title: "Week Warrior", Description: "Learn something 7 days in a row", Icon: "trophy", Category: entities.AchievementCategoryStreak, XPReward: 50,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionStreak, Threshold: 7}},
	{ID: "collector", Title: "Collector", Description: "Save 5 favorite words", Icon: "heart", Category: entities.AchievementCategoryExplorer, XPReward: 15,
		UnlockCondition: entities.UnlockCondition{Type: entities.ConditionFavorites, Threshold: 5}},
}

// Repository handles achievement database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new achievements repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Seed inserts catalog entries that are not stored yet. Existing entries are left alone.
func (r *Repository) Seed(catalog []entities.Achievement) error {
	if len(catalog) == 0 {
		return nil
	}
	rows := make([]entities.Achievement, len(catalog))
	copy(rows, catalog)
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// List returns the whole catalog.
func (r *Repository) List() ([]entities.Achievement, error) {
	var out []entities.Achievement
	err := r.db.Order("category ASC, id ASC").Find(&out).Error
	return out, err
}

// ListUnlocked returns the unlock records of a profile, oldest first.
func (r *Repository) ListUnlocked(profileID string) ([]entities.ProfileAchievement, error) {
	var out []entities.ProfileAchievement
	err := r.db.Where("profile_id = ?", profileID).Order("unlocked_at ASC, id ASC").Find(&out).Error
	return out, err
}

// Unlock records an achievement for a profile. It reports false when the
// profile already had it.
func (r *Repository) Unlock(profileID, achievementID string, now time.Time) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entities.ProfileAchievement{
		ProfileID:     profileID,
		AchievementID: achievementID,
		UnlockedAt:    now,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Satisfied returns the catalog entries whose conditions are met by the
// given counters.
func Satisfied(catalog []entities.Achievement, wordsLearned, streak, favorites int) []entities.Achievement {
	var out []entities.Achievement
	for _, a := range catalog {
		var value int
		switch a.UnlockCondition.Type {
		case entities.ConditionWordsLearned:
			value = wordsLearned
		case entities.ConditionStreak:
			value = streak
		case entities.ConditionFavorites:
			value = favorites
		default:
			continue
		}
		if value >= a.UnlockCondition.Threshold {
			out = append(out, a)
		}
	}
	return out
}
