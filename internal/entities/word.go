package entities

import (
	"strings"
	"time"
)

// Definition is a single sense of a word within a meaning.
type Definition struct {
	Definition string   `json:"definition"`
	Example    string   `json:"example,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
	Antonyms   []string `json:"antonyms,omitempty"`
}

// Meaning groups definitions by part of speech.
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
}

// Translation language codes stored on a word.
const (
	LangKannada = "kn"
	LangHindi   = "hi"
)

// Word is the canonical dictionary entry. The lowercase word is the primary key.
type Word struct {
	Word             string            `gorm:"primaryKey;size:128" json:"word"`
	Phonetic         string            `gorm:"size:255" json:"phonetic,omitempty"`
	AudioURL         string            `gorm:"size:1024" json:"audioUrl,omitempty"`
	Meanings         []Meaning         `gorm:"type:text;serializer:json" json:"meanings"`
	Origin           string            `gorm:"type:text" json:"origin,omitempty"`
	Translations     map[string]string `gorm:"type:text;serializer:json" json:"translations,omitempty"`
	IsAgeAppropriate bool              `gorm:"not null;index:idx_words_age" json:"isAgeAppropriate"`
	MinAge           int               `gorm:"not null;index:idx_words_age" json:"minAge"`
	ContentFlags     []string          `gorm:"type:text;serializer:json" json:"contentFlags,omitempty"`
	ComplexityLevel  int               `gorm:"not null" json:"complexityLevel"`
	SearchCount      int               `gorm:"not null;index" json:"searchCount"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func (Word) TableName() string {
	return "words"
}

// VisibleTo reports whether the word may be shown to a viewer of the given age.
func (w *Word) VisibleTo(age int) bool {
	return w != nil && w.IsAgeAppropriate && w.MinAge <= age
}

// NormalizeWord lowercases and trims a word for use as a key.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// WordPrefix is one entry of the prefix search index: every word is
// reachable from each of its leading substrings between the minimum and
// maximum indexed lengths.
type WordPrefix struct {
	Prefix string `gorm:"primaryKey;size:32"`
	Word   string `gorm:"primaryKey;size:128;index"`
}

func (WordPrefix) TableName() string {
	return "word_search_index"
}
