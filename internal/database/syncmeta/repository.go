// Package syncmeta provides the key-value metadata store used for the sync
// checkpoint, the active profile pointer and one-time setup flags.
//
// # Usage
//
//	repo := syncmeta.NewRepository(db)
//	value, ok, err := repo.Get(entities.MetaKeySyncStatus)
//	err = repo.SetBulk(map[string]string{"a": "1", "b": "2"})
package syncmeta

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidopedia/kidopedia/internal/entities"
)

// Repository handles all metadata database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new metadata repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (r *Repository) Get(key string) (value string, ok bool, err error) {
	var row entities.SyncMetadata
	err = r.db.Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// GetBulk returns the stored values for the requested keys. Absent keys are
// missing from the result.
func (r *Repository) GetBulk(keys ...string) (map[string]string, error) {
	var rows []entities.SyncMetadata
	if err := r.db.Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Set creates or updates a single key.
func (r *Repository) Set(key, value string) error {
	return r.SetBulk(map[string]string{key: value})
}

// SetBulk writes all pairs in one transaction.
func (r *Repository) SetBulk(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]entities.SyncMetadata, 0, len(values))
	for k, v := range values {
		rows = append(rows, entities.SyncMetadata{Key: k, Value: v, UpdatedAt: now})
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
	})
}

// SetIfAbsent writes the value only when the key does not exist yet.
func (r *Repository) SetIfAbsent(key, value string) error {
	row := entities.SyncMetadata{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// Delete removes the given keys.
func (r *Repository) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.Where("key IN ?", keys).Delete(&entities.SyncMetadata{}).Error
}
