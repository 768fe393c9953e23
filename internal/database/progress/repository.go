// Package progress provides database operations for per-profile word
// progress: view counts and favorites.
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	wp, firstView, err := repo.RecordView(profileID, "cat", time.Now())
//	isFavorite, _, err := repo.ToggleFavorite(profileID, "cat", time.Now())
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/entities"
)

// Repository handles all word progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the progress row or nil if the profile never touched the word.
func (r *Repository) Get(profileID, word string) (*entities.WordProgress, error) {
	var wp entities.WordProgress
	err := r.db.Where("profile_id = ? AND word = ?", profileID, entities.NormalizeWord(word)).First(&wp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wp, nil
}

// RecordView increments the view count, creating the row on first view.
// firstView is true when the row did not exist before.
func (r *Repository) RecordView(profileID, word string, now time.Time) (wp *entities.WordProgress, firstView bool, err error) {
	key := entities.NormalizeWord(word)
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.WordProgress
		res := tx.Where("profile_id = ? AND word = ?", profileID, key).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			existing = entities.WordProgress{
				ProfileID:    profileID,
				Word:         key,
				TimesViewed:  1,
				LastViewedAt: now,
				CreatedAt:    now,
			}
			firstView = true
			wp = &existing
			return tx.Create(&existing).Error
		}
		existing.TimesViewed++
		existing.LastViewedAt = now
		wp = &existing
		return tx.Model(&existing).Updates(map[string]any{
			"times_viewed":   existing.TimesViewed,
			"last_viewed_at": now,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return wp, firstView, nil
}

// ToggleFavorite flips the favorite flag and returns the new value. When the
// profile never viewed the word a row is created with one view and created
// is true.
func (r *Repository) ToggleFavorite(profileID, word string, now time.Time) (isFavorite bool, created bool, err error) {
	key := entities.NormalizeWord(word)
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.WordProgress
		res := tx.Where("profile_id = ? AND word = ?", profileID, key).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			isFavorite, created = true, true
			return tx.Create(&entities.WordProgress{
				ProfileID:    profileID,
				Word:         key,
				TimesViewed:  1,
				IsFavorite:   true,
				LastViewedAt: now,
				CreatedAt:    now,
			}).Error
		}
		isFavorite = !existing.IsFavorite
		return tx.Model(&existing).Update("is_favorite", isFavorite).Error
	})
	return isFavorite, created, err
}

// GetFavoriteWords returns the stored words the profile has favorited,
// most recently viewed first.
func (r *Repository) GetFavoriteWords(profileID string) ([]entities.Word, error) {
	var out []entities.Word
	err := r.db.Model(&entities.Word{}).
		Select("words.*").
		Joins("JOIN word_progress wp ON wp.word = words.word").
		Where("wp.profile_id = ? AND wp.is_favorite = ?", profileID, true).
		Order("wp.last_viewed_at DESC").
		Find(&out).Error
	return out, err
}

// ListFavorites returns the favorite progress rows, including words that
// are not in the local store.
func (r *Repository) ListFavorites(profileID string) ([]entities.WordProgress, error) {
	var out []entities.WordProgress
	err := r.db.Where("profile_id = ? AND is_favorite = ?", profileID, true).
		Order("last_viewed_at DESC").
		Find(&out).Error
	return out, err
}

// CountFavorites returns the number of favorited words.
func (r *Repository) CountFavorites(profileID string) (int64, error) {
	var n int64
	err := r.db.Model(&entities.WordProgress{}).
		Where("profile_id = ? AND is_favorite = ?", profileID, true).
		Count(&n).Error
	return n, err
}

// ListProgress returns every progress row of a profile, most recent first.
func (r *Repository) ListProgress(profileID string, limit int) ([]entities.WordProgress, error) {
	var out []entities.WordProgress
	q := r.db.Where("profile_id = ?", profileID).Order("last_viewed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
