// Package sync stores the word sync checkpoint on top of the metadata
// key-value table.
//
// The checkpoint is what makes a sync resumable: a page of words and the
// offset that follows it are committed in one transaction, so after a crash
// the next run starts at the first page that was not stored.
//
// # Interface Implementation
//
//	var _ wordsync.CheckpointStore = (*Repository)(nil)
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	cp, err := repo.Load()
//	err = repo.CommitPage(page, cp.Offset+len(page), cp.WordsCompleted+len(page))
package sync

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/database/syncmeta"
	"github.com/kidopedia/kidopedia/internal/database/words"
	"github.com/kidopedia/kidopedia/internal/entities"
)

var checkpointKeys = []string{
	entities.MetaKeySyncStatus,
	entities.MetaKeyLastFullSyncCompleted,
	entities.MetaKeyNextSyncDue,
	entities.MetaKeySyncLastOffset,
	entities.MetaKeySyncWordsCompleted,
	entities.MetaKeySyncWordsTotal,
	entities.MetaKeySyncErrorMessage,
	entities.MetaKeyLastSyncStartedAt,
}

// Checkpoint is the typed view of the persisted sync state.
type Checkpoint struct {
	Status          entities.SyncStatus `json:"status"`
	LastCompletedAt *time.Time          `json:"lastCompletedAt,omitempty"`
	NextDueAt       *time.Time          `json:"nextDueAt,omitempty"`
	StartedAt       *time.Time          `json:"startedAt,omitempty"`
	Offset          int                 `json:"offset"`
	WordsCompleted  int                 `json:"wordsCompleted"`
	WordsTotal      int                 `json:"wordsTotal"`
	ErrorMessage    string              `json:"errorMessage,omitempty"`
}

// Repository handles sync checkpoint persistence.
type Repository struct {
	db   *gorm.DB
	meta *syncmeta.Repository
}

// NewRepository creates a new sync checkpoint repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, meta: syncmeta.NewRepository(db)}
}

// Load reads the checkpoint. A store that never synced reports
// SyncStatusNeverSynced with zero counters.
func (r *Repository) Load() (Checkpoint, error) {
	values, err := r.meta.GetBulk(checkpointKeys...)
	if err != nil {
		return Checkpoint{}, err
	}

	cp := Checkpoint{
		Status:         entities.SyncStatusNeverSynced,
		Offset:         atoi(values[entities.MetaKeySyncLastOffset]),
		WordsCompleted: atoi(values[entities.MetaKeySyncWordsCompleted]),
		WordsTotal:     atoi(values[entities.MetaKeySyncWordsTotal]),
		ErrorMessage:   values[entities.MetaKeySyncErrorMessage],
	}
	if s := values[entities.MetaKeySyncStatus]; s != "" {
		cp.Status = entities.SyncStatus(s)
	}
	cp.LastCompletedAt = parseTime(values[entities.MetaKeyLastFullSyncCompleted])
	cp.NextDueAt = parseTime(values[entities.MetaKeyNextSyncDue])
	cp.StartedAt = parseTime(values[entities.MetaKeyLastSyncStartedAt])
	return cp, nil
}

// StartSync marks the sync as in progress. The stored offset is kept so an
// interrupted run resumes where it stopped; a run starting from offset zero
// also resets the completed counter.
func (r *Repository) StartSync(now time.Time) (Checkpoint, error) {
	cp, err := r.Load()
	if err != nil {
		return Checkpoint{}, err
	}
	if cp.Offset == 0 {
		cp.WordsCompleted = 0
	}
	cp.Status = entities.SyncStatusInProgress
	cp.ErrorMessage = ""
	started := now.UTC()
	cp.StartedAt = &started

	err = r.meta.SetBulk(map[string]string{
		entities.MetaKeySyncStatus:         string(cp.Status),
		entities.MetaKeySyncErrorMessage:   "",
		entities.MetaKeySyncWordsCompleted: strconv.Itoa(cp.WordsCompleted),
		entities.MetaKeyLastSyncStartedAt:  formatTime(started),
	})
	if err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// SetTotal records the expected number of words.
func (r *Repository) SetTotal(total int) error {
	return r.meta.Set(entities.MetaKeySyncWordsTotal, strconv.Itoa(total))
}

// CommitPage writes a page of words and advances the checkpoint in a single
// transaction.
func (r *Repository) CommitPage(page []entities.Word, offset, completed int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := words.NewRepository(tx).UpsertWords(page); err != nil {
			return err
		}
		return r.meta.WithTx(tx).SetBulk(map[string]string{
			entities.MetaKeySyncLastOffset:     strconv.Itoa(offset),
			entities.MetaKeySyncWordsCompleted: strconv.Itoa(completed),
		})
	})
}

// CompleteSync marks the run as completed and schedules the next one.
func (r *Repository) CompleteSync(completedAt, nextDue time.Time) error {
	return r.meta.SetBulk(map[string]string{
		entities.MetaKeySyncStatus:            string(entities.SyncStatusCompleted),
		entities.MetaKeyLastFullSyncCompleted: formatTime(completedAt),
		entities.MetaKeyNextSyncDue:           formatTime(nextDue),
		entities.MetaKeySyncLastOffset:        "0",
		entities.MetaKeySyncErrorMessage:      "",
	})
}

// FailSync marks the run as failed with the given message. The offset is
// left untouched so a retry resumes.
func (r *Repository) FailSync(message string) error {
	return r.meta.SetBulk(map[string]string{
		entities.MetaKeySyncStatus:       string(entities.SyncStatusFailed),
		entities.MetaKeySyncErrorMessage: message,
	})
}

// ResetProgress drops the resume point so the next run fetches everything.
func (r *Repository) ResetProgress() error {
	return r.meta.SetBulk(map[string]string{
		entities.MetaKeySyncStatus:         string(entities.SyncStatusIdle),
		entities.MetaKeySyncLastOffset:     "0",
		entities.MetaKeySyncWordsCompleted: "0",
		entities.MetaKeySyncErrorMessage:   "",
	})
}

// Clear removes the checkpoint entirely, returning the store to never_synced.
func (r *Repository) Clear() error {
	return r.meta.Delete(checkpointKeys...)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
