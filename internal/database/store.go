package database

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/database/achievements"
	"github.com/kidopedia/kidopedia/internal/database/profiles"
	"github.com/kidopedia/kidopedia/internal/database/progress"
	"github.com/kidopedia/kidopedia/internal/database/searches"
	"github.com/kidopedia/kidopedia/internal/database/streaks"
	syncrepo "github.com/kidopedia/kidopedia/internal/database/sync"
	"github.com/kidopedia/kidopedia/internal/database/syncmeta"
	"github.com/kidopedia/kidopedia/internal/database/words"
	"github.com/kidopedia/kidopedia/internal/entities"
)

// Store bundles the repositories over one database handle. It is built once
// at startup and passed to every component that needs local state.
type Store struct {
	*Database

	Words        *words.Repository
	Profiles     *profiles.Repository
	Progress     *progress.Repository
	Achievements *achievements.Repository
	Streaks      *streaks.Repository
	Searches     *searches.Repository
	Meta         *syncmeta.Repository
	Checkpoints  *syncrepo.Repository
}

// NewStore creates the repositories for db.
func NewStore(db *Database) *Store {
	return &Store{
		Database:     db,
		Words:        words.NewRepository(db.DB),
		Profiles:     profiles.NewRepository(db.DB),
		Progress:     progress.NewRepository(db.DB),
		Achievements: achievements.NewRepository(db.DB),
		Streaks:      streaks.NewRepository(db.DB),
		Searches:     searches.NewRepository(db.DB),
		Meta:         syncmeta.NewRepository(db.DB),
		Checkpoints:  syncrepo.NewRepository(db.DB),
	}
}

// OpenStore opens the database at path and wraps it in a Store.
func OpenStore(path string) (*Store, error) {
	db, err := NewDatabase(path, nil)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// ClearWordCache removes every word and resets the sync checkpoint so the
// next startup performs a full sync.
func (s *Store) ClearWordCache() error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := words.NewRepository(tx).ClearAll(); err != nil {
			return err
		}
		return syncrepo.NewRepository(tx).Clear()
	})
}

// seedWord lets a seed file omit isAgeAppropriate; missing means appropriate.
type seedWord struct {
	entities.Word
	IsAgeAppropriate *bool `json:"isAgeAppropriate"`
}

// SeedWords loads a JSON array of words and upserts them in one batch,
// then marks initial setup as complete. It returns the number of words read.
func (s *Store) SeedWords(r io.Reader) (int, error) {
	var seed []seedWord
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return 0, fmt.Errorf("failed to decode seed words: %w", err)
	}
	batch := make([]entities.Word, 0, len(seed))
	for _, sw := range seed {
		w := sw.Word
		w.IsAgeAppropriate = sw.IsAgeAppropriate == nil || *sw.IsAgeAppropriate
		if w.MinAge == 0 {
			w.MinAge = 2
		}
		if w.ComplexityLevel == 0 {
			w.ComplexityLevel = 5
		}
		batch = append(batch, w)
	}
	if err := s.Words.UpsertWords(batch); err != nil {
		return 0, fmt.Errorf("failed to store seed words: %w", err)
	}
	if err := s.Meta.Set(entities.MetaKeyInitialSetupComplete, "true"); err != nil {
		return 0, fmt.Errorf("failed to mark setup complete: %w", err)
	}
	s.log.Info("seed words loaded", "count", len(batch))
	return len(batch), nil
}

// SeedWordsFromFile is SeedWords over a file path.
func (s *Store) SeedWordsFromFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.SeedWords(f)
}

// IsInitialSetupComplete reports whether seed words were loaded.
func (s *Store) IsInitialSetupComplete() (bool, error) {
	v, _, err := s.Meta.Get(entities.MetaKeyInitialSetupComplete)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SchemaVersion returns the schema version recorded at initialization.
func (s *Store) SchemaVersion() (string, error) {
	v, _, err := s.Meta.Get(entities.MetaKeySchemaVersion)
	return v, err
}
