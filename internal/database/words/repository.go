// Package words provides database operations for dictionary words and the
// prefix search index that sits beside them.
//
// Every write that touches the words table maintains word_search_index in the
// same transaction, so the index never points at a missing word and never
// misses an existing one.
//
// # Usage
//
//	repo := words.NewRepository(db)
//	err := repo.UpsertWords(page)
//	results, err := repo.SearchWords("ca", 20)
package words

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidopedia/kidopedia/internal/entities"
)

const (
	// MinPrefixLength is the shortest query served from the prefix index.
	// Shorter queries use a linear scan.
	MinPrefixLength = 2

	// MaxPrefixLength is the longest prefix stored in the index. Longer
	// queries are narrowed by their indexed prefix and then matched with LIKE.
	MaxPrefixLength = 32

	insertBatchSize = 50
)

// overwritten on conflict; search_count is merged separately
var upsertColumns = []string{
	"phonetic", "audio_url", "meanings", "origin", "translations",
	"is_age_appropriate", "min_age", "content_flags", "complexity_level", "updated_at",
}

// Repository handles all word database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new words repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, now: r.now}
}

// UpsertWord inserts or merges a single word.
func (r *Repository) UpsertWord(word *entities.Word) error {
	if word == nil {
		return errors.New("word is nil")
	}
	batch := []entities.Word{*word}
	if err := r.UpsertWords(batch); err != nil {
		return err
	}
	word.Word = batch[0].Word
	word.UpdatedAt = batch[0].UpdatedAt
	return nil
}

// UpsertWords merges a batch of words atomically. Words are keyed by their
// lowercased form. On conflict every field is replaced by the incoming value
// except search_count, which keeps the larger of the two. Each batch element
// is normalized in place and stamped with the write time.
func (r *Repository) UpsertWords(batch []entities.Word) error {
	if len(batch) == 0 {
		return nil
	}

	now := r.now().UTC()
	byKey := make(map[string]int, len(batch))
	rows := make([]entities.Word, 0, len(batch))
	for idx := range batch {
		batch[idx].Word = entities.NormalizeWord(batch[idx].Word)
		if batch[idx].Word == "" {
			return errors.New("word must not be empty")
		}
		batch[idx].UpdatedAt = now
		w := batch[idx]
		// Duplicate keys inside one batch collapse to the last record with the max count.
		if i, seen := byKey[w.Word]; seen {
			if rows[i].SearchCount > w.SearchCount {
				w.SearchCount = rows[i].SearchCount
			}
			rows[i] = w
			continue
		}
		byKey[w.Word] = len(rows)
		rows = append(rows, w)
	}

	assignments := clause.AssignmentColumns(upsertColumns)
	assignments = append(assignments, clause.Assignment{
		Column: clause.Column{Name: "search_count"},
		Value:  gorm.Expr("MAX(words.search_count, excluded.search_count)"),
	})

	var prefixes []entities.WordPrefix
	for _, w := range rows {
		prefixes = append(prefixes, prefixesFor(w.Word)...)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "word"}},
			DoUpdates: assignments,
		}).CreateInBatches(&rows, insertBatchSize).Error
		if err != nil {
			return err
		}
		if len(prefixes) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&prefixes, insertBatchSize*4).Error
	})
}

// prefixesFor returns the index entries for a word.
func prefixesFor(word string) []entities.WordPrefix {
	runes := []rune(word)
	upper := len(runes)
	if upper > MaxPrefixLength {
		upper = MaxPrefixLength
	}
	var out []entities.WordPrefix
	for n := MinPrefixLength; n <= upper; n++ {
		out = append(out, entities.WordPrefix{Prefix: string(runes[:n]), Word: word})
	}
	return out
}

// GetWord returns the word or nil if it is not stored.
func (r *Repository) GetWord(word string) (*entities.Word, error) {
	var w entities.Word
	err := r.db.Where("word = ?", entities.NormalizeWord(word)).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SearchWords returns words starting with the sanitized query, most searched
// first. When the index yields nothing the words table is scanned directly.
func (r *Repository) SearchWords(query string, limit int) ([]entities.Word, error) {
	q := SanitizeQuery(query)
	if q == "" || limit <= 0 {
		return []entities.Word{}, nil
	}
	pattern := q + "%"

	var results []entities.Word
	if utf8.RuneCountInString(q) >= MinPrefixLength {
		err := r.db.Model(&entities.Word{}).
			Select("words.*").
			Joins("JOIN word_search_index ix ON ix.word = words.word").
			Where("ix.prefix = ? AND words.word LIKE ?", truncateRunes(q, MaxPrefixLength), pattern).
			Order("words.search_count DESC, words.word ASC").
			Limit(limit).
			Find(&results).Error
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	err := r.db.Where("word LIKE ?", pattern).
		Order("search_count DESC, word ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SanitizeQuery lowercases a query and strips quoting and LIKE wildcard characters.
func SanitizeQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '*', '%', '_', '\\':
			return -1
		}
		return r
	}, q)
	return strings.TrimSpace(q)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func visible(db *gorm.DB, maxAge int) *gorm.DB {
	return db.Where("is_age_appropriate = ? AND min_age <= ?", true, maxAge)
}

// GetRandomWord returns a random word visible at maxAge, or nil when none is.
// Words at or below maxComplexity are picked first; harder words are only
// returned when no simpler one is visible.
func (r *Repository) GetRandomWord(maxAge, maxComplexity int) (*entities.Word, error) {
	var found []entities.Word
	simplerFirst := clause.OrderBy{Expression: clause.Expr{
		SQL:                "complexity_level <= ? DESC, RANDOM()",
		Vars:               []interface{}{maxComplexity},
		WithoutParentheses: true,
	}}
	if err := visible(r.db, maxAge).Clauses(simplerFirst).Limit(1).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// GetPopularWords returns the most searched words visible at maxAge.
func (r *Repository) GetPopularWords(limit, maxAge int) ([]entities.Word, error) {
	var found []entities.Word
	err := visible(r.db, maxAge).
		Order("search_count DESC, word ASC").
		Limit(limit).
		Find(&found).Error
	return found, err
}

// GetAllWords returns every stored word in alphabetical order.
func (r *Repository) GetAllWords() ([]entities.Word, error) {
	var found []entities.Word
	err := r.db.Order("word ASC").Find(&found).Error
	return found, err
}

// CountWords returns the number of stored words.
func (r *Repository) CountWords() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Word{}).Count(&count).Error
	return count, err
}

// IncrementSearchCount atomically adds one to a word's search count.
// It reports whether the word exists.
func (r *Repository) IncrementSearchCount(word string) (bool, error) {
	res := r.db.Model(&entities.Word{}).
		Where("word = ?", entities.NormalizeWord(word)).
		UpdateColumn("search_count", gorm.Expr("search_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteWord removes a word and its index entries.
func (r *Repository) DeleteWord(word string) error {
	key := entities.NormalizeWord(word)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("word = ?", key).Delete(&entities.WordPrefix{}).Error; err != nil {
			return err
		}
		return tx.Where("word = ?", key).Delete(&entities.Word{}).Error
	})
}

// ClearAll removes every word and index entry.
func (r *Repository) ClearAll() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM word_search_index").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM words").Error
	})
}

// CountIndexEntries returns the number of index rows for a word.
func (r *Repository) CountIndexEntries(word string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.WordPrefix{}).
		Where("word = ?", entities.NormalizeWord(word)).
		Count(&count).Error
	return count, err
}
