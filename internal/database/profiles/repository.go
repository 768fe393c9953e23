// Package profiles provides database operations for child profiles.
//
// Deleting a profile removes its word progress, achievements, streak and
// recent searches in the same transaction.
//
// # Usage
//
//	repo := profiles.NewRepository(db)
//	profile, err := repo.Mutate(id, func(p *entities.Profile) error {
//		p.TotalXP += 10
//		return nil
//	})
package profiles

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/entities"
)

// ErrNotFound is returned by Mutate when the profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Repository handles all profile database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new profiles repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new profile.
func (r *Repository) Create(profile *entities.Profile) error {
	return r.db.Create(profile).Error
}

// Get returns the profile or nil if it does not exist.
func (r *Repository) Get(id string) (*entities.Profile, error) {
	var p entities.Profile
	err := r.db.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every profile, oldest first.
func (r *Repository) List() ([]entities.Profile, error) {
	var out []entities.Profile
	err := r.db.Order("created_at ASC").Find(&out).Error
	return out, err
}

// ListUnsynced returns profiles whose latest revision has not reached the remote.
func (r *Repository) ListUnsynced() ([]entities.Profile, error) {
	var out []entities.Profile
	err := r.db.Where("synced_to_remote = ?", false).Order("created_at ASC").Find(&out).Error
	return out, err
}

// Mutate applies fn to the stored profile inside a transaction, marks it
// unsynced, bumps its revision and saves it. The level is recomputed from
// total XP after fn runs.
func (r *Repository) Mutate(id string, fn func(p *entities.Profile) error) (*entities.Profile, error) {
	var out entities.Profile
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var p entities.Profile
		err := tx.Where("id = ?", id).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		p.CurrentLevel = entities.LevelForXP(p.TotalXP)
		p.SyncedToRemote = false
		p.Revision++
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkSynced flags the profile as pushed, but only if it is still at the
// given revision. It reports whether the flag was set.
func (r *Repository) MarkSynced(id string, revision int) (bool, error) {
	res := r.db.Model(&entities.Profile{}).
		Where("id = ? AND revision = ?", id, revision).
		UpdateColumn("synced_to_remote", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Touch sets the last active time without changing the sync state; the
// remote copy does not carry it.
func (r *Repository) Touch(id string, now time.Time) (bool, error) {
	res := r.db.Model(&entities.Profile{}).Where("id = ?", id).UpdateColumn("last_active_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a profile together with everything it owns.
// It reports whether the profile existed.
func (r *Repository) Delete(id string) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&entities.WordProgress{},
			&entities.ProfileAchievement{},
			&entities.DailyStreak{},
			&entities.RecentSearch{},
		}
		for _, model := range owned {
			if err := tx.Where("profile_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&entities.Profile{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
