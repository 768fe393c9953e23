// Package searches provides database operations for the recent searches log.
//
// Each owner (a profile id, or "" for searches made without an active
// profile) keeps at most MaxPerOwner entries. Searching a word again moves it
// to the front instead of adding a duplicate.
package searches

import (
	"time"

	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/entities"
)

const (
	MaxPerOwner  = 30
	DefaultLimit = 20
)

// Repository handles recent search database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new recent searches repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add records a search for the owner and trims the log to MaxPerOwner.
func (r *Repository) Add(profileID, word string, now time.Time) error {
	key := entities.NormalizeWord(word)
	if key == "" {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ? AND word = ?", profileID, key).Delete(&entities.RecentSearch{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&entities.RecentSearch{ProfileID: profileID, Word: key, SearchedAt: now}).Error; err != nil {
			return err
		}
		keep := tx.Model(&entities.RecentSearch{}).
			Select("id").
			Where("profile_id = ?", profileID).
			Order("id DESC").
			Limit(MaxPerOwner)
		return tx.Where("profile_id = ? AND id NOT IN (?)", profileID, keep).Delete(&entities.RecentSearch{}).Error
	})
}

// List returns the owner's most recent searches, newest first. A limit of
// zero or less uses DefaultLimit.
func (r *Repository) List(profileID string, limit int) ([]entities.RecentSearch, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var out []entities.RecentSearch
	err := r.db.Where("profile_id = ?", profileID).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Clear removes every search of the owner.
func (r *Repository) Clear(profileID string) error {
	return r.db.Where("profile_id = ?", profileID).Delete(&entities.RecentSearch{}).Error
}
