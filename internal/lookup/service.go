// Package lookup answers word and search requests from the fastest source
// that has the answer, filling the faster sources on every miss.
//
// A single-word lookup consults, in order:
//
//  1. the content filter for the word itself;
//  2. the local store;
//  3. the remote cache table;
//  4. the external dictionary function.
//
// Records coming from tier 4 are classified once and stored with their
// restrictions; later reads only re-check the viewer's age. Concurrent
// lookups of the same word share one fill.
package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orsinium-labs/stopwords"
	"golang.org/x/sync/singleflight"

	"github.com/kidopedia/kidopedia/internal/contentfilter"
	"github.com/kidopedia/kidopedia/internal/dictionary"
	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/logger"
)

type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusBlocked  Status = "blocked"
)

type Source string

const (
	SourceLocal       Source = "local"
	SourceRemoteCache Source = "remote_cache"
	SourceDictionary  Source = "dictionary"
)

const reasonNotForAge = "Not appropriate for this age"

// Result of a single-word lookup. Word is set only when Status is found.
type Result struct {
	Status  Status         `json:"status"`
	Word    *entities.Word `json:"word,omitempty"`
	Source  Source         `json:"source,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Message string         `json:"message,omitempty"`
}

// SearchResult of a prefix search. Blocked is distinct from an empty list.
type SearchResult struct {
	Query   string          `json:"query"`
	Term    string          `json:"term,omitempty"`
	Words   []entities.Word `json:"words"`
	Blocked bool            `json:"blocked"`
	Message string          `json:"message,omitempty"`
}

// LocalStore is the on-device word table.
type LocalStore interface {
	GetWord(word string) (*entities.Word, error)
	UpsertWord(word *entities.Word) error
	UpsertWords(batch []entities.Word) error
	SearchWords(query string, limit int) ([]entities.Word, error)
	IncrementSearchCount(word string) (bool, error)
	GetRandomWord(maxAge, maxComplexity int) (*entities.Word, error)
	GetPopularWords(limit, maxAge int) ([]entities.Word, error)
}

// RemoteCache is the shared word table on the remote.
type RemoteCache interface {
	FetchOne(ctx context.Context, word string) (*entities.Word, error)
	SearchPrefix(ctx context.Context, prefix string, maxAge, limit int) ([]entities.Word, error)
	UpsertWord(ctx context.Context, w *entities.Word) error
}

// Scheduler runs remote search-count increments in the background.
type Scheduler interface {
	ScheduleSearchCountIncrement(word string)
}

type Config struct {
	SearchLimit int
	// FillTimeout bounds a shared fill, which outlives the caller that
	// started it.
	FillTimeout time.Duration
}

type Service struct {
	local     LocalStore
	remote    RemoteCache
	dict      dictionary.Client
	scheduler Scheduler
	cfg       Config
	log       *logger.Logger
	fills     singleflight.Group
	stop      *stopwords.Stopwords
}

// NewService creates a lookup service. remote and dict may be nil, which
// disables the corresponding tiers.
func NewService(local LocalStore, remote RemoteCache, dict dictionary.Client, cfg Config, log *logger.Logger) *Service {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}
	if cfg.FillTimeout <= 0 {
		cfg.FillTimeout = 30 * time.Second
	}
	return &Service{
		local:  local,
		remote: remote,
		dict:   dict,
		cfg:    cfg,
		log:    logger.OrNop(log).With("component", "lookup"),
		stop:   stopwords.MustGet("en"),
	}
}

// SetScheduler wires the background runner for remote increments.
func (s *Service) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// GetWordDetails looks a word up for a viewer of the given age. NotFound and
// Blocked are results, not errors; an error means the local store failed.
func (s *Service) GetWordDetails(ctx context.Context, word string, age int) (Result, error) {
	key := entities.NormalizeWord(word)
	if res := contentfilter.IsWordAppropriate(key, age); !res.Appropriate {
		return Result{Status: StatusBlocked, Reason: res.Reason, Message: contentfilter.BlockedMessage(age)}, nil
	}

	v, err, _ := s.fills.Do(key, func() (interface{}, error) {
		// Other callers may be waiting on this fill, so the first caller
		// going away must not abort it.
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FillTimeout)
		defer cancel()
		return s.resolve(fillCtx, key)
	})
	if err != nil {
		return Result{}, err
	}
	hit := v.(fill)
	if hit.word == nil {
		return Result{Status: StatusNotFound}, nil
	}
	if !hit.word.VisibleTo(age) {
		return Result{Status: StatusBlocked, Reason: blockReason(hit.word), Message: contentfilter.BlockedMessage(age)}, nil
	}
	w := *hit.word
	return Result{Status: StatusFound, Word: &w, Source: hit.source}, nil
}

type fill struct {
	word   *entities.Word
	source Source
}

// resolve walks the tiers and returns the stored record, visible or not.
func (s *Service) resolve(ctx context.Context, key string) (fill, error) {
	local, err := s.local.GetWord(key)
	if err != nil {
		return fill{}, fmt.Errorf("read local word: %w", err)
	}
	if local != nil {
		return fill{word: local, source: SourceLocal}, nil
	}

	if s.remote != nil {
		cached, err := s.remote.FetchOne(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("remote cache lookup failed", "word", key, "error", err)
		case cached != nil:
			if !filterCached(cached) {
				return fill{}, nil
			}
			if err := s.local.UpsertWord(cached); err != nil {
				return fill{}, fmt.Errorf("store cached word: %w", err)
			}
			return fill{word: cached, source: SourceRemoteCache}, nil
		}
	}

	if s.dict == nil {
		return fill{}, nil
	}
	res, err := s.dict.Lookup(ctx, key)
	if err != nil {
		s.log.Warn("dictionary lookup failed", "word", key, "provider", s.dict.Name(), "error", err)
		return fill{}, nil
	}
	switch res.Outcome {
	case dictionary.OutcomeFound:
	case dictionary.OutcomeMalformed:
		s.log.Warn("malformed dictionary response", "word", key, "detail", res.Detail)
		return fill{}, nil
	default:
		return fill{}, nil
	}

	record := Classify(res.Entry)
	if err := s.local.UpsertWord(&record); err != nil {
		return fill{}, fmt.Errorf("store dictionary word: %w", err)
	}
	if s.remote != nil {
		if err := s.remote.UpsertWord(ctx, &record); err != nil {
			s.log.Warn("could not cache word remotely", "word", key, "error", err)
		}
	}
	return fill{word: &record, source: SourceDictionary}, nil
}

func blockReason(w *entities.Word) string {
	if !w.IsAgeAppropriate && len(w.ContentFlags) > 0 {
		return w.ContentFlags[0]
	}
	return reasonNotForAge
}

// SearchWords finds words starting with the query for a viewer of the given
// age. The local store answers first; the remote cache is asked only when
// the local store has no match at all, and its results are stored locally.
func (s *Service) SearchWords(ctx context.Context, query string, age, limit int) (SearchResult, error) {
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}
	out := SearchResult{Query: query, Words: []entities.Word{}}

	q := contentfilter.SanitizeSearchQuery(query, age)
	if q.Blocked {
		out.Blocked = true
		out.Message = contentfilter.BlockedMessage(age)
		return out, nil
	}
	out.Term = s.searchTerm(q.Tokens)

	// Over-fetch so age filtering still leaves a full page.
	found, err := s.local.SearchWords(out.Term, limit*4)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search local words: %w", err)
	}

	if len(found) == 0 && s.remote != nil {
		found = s.searchRemote(ctx, out.Term, age, limit)
	}

	for i := range found {
		if len(out.Words) == limit {
			break
		}
		if found[i].VisibleTo(age) {
			out.Words = append(out.Words, found[i])
		}
	}
	return out, nil
}

func (s *Service) searchRemote(ctx context.Context, term string, age, limit int) []entities.Word {
	remote, err := s.remote.SearchPrefix(ctx, term, age, limit)
	if err != nil {
		s.log.Warn("remote search failed", "term", term, "error", err)
		return nil
	}
	kept := remote[:0]
	for _, w := range remote {
		if filterCached(&w) {
			kept = append(kept, w)
		}
	}
	if len(kept) > 0 {
		if err := s.local.UpsertWords(kept); err != nil {
			s.log.Warn("could not store remote search results", "term", term, "error", err)
		}
	}
	return kept
}

// searchTerm picks the token to prefix-search for: the first token that is
// not a stopword, or the first token when all of them are.
func (s *Service) searchTerm(tokens []string) string {
	for _, t := range tokens {
		if !s.stop.Contains(strings.ToLower(t)) {
			return strings.ToLower(t)
		}
	}
	if len(tokens) == 0 {
		return ""
	}
	return strings.ToLower(tokens[0])
}

// RecordView bumps the popularity of a word locally and schedules the
// remote increment. It reports whether the word is stored locally.
func (s *Service) RecordView(word string) (bool, error) {
	key := entities.NormalizeWord(word)
	ok, err := s.local.IncrementSearchCount(key)
	if err != nil {
		return false, fmt.Errorf("increment search count: %w", err)
	}
	if s.remote != nil && s.scheduler != nil {
		s.scheduler.ScheduleSearchCountIncrement(key)
	}
	return ok, nil
}

// RandomWord returns a random word visible to the viewer, or nil. Words
// simple enough for the viewer's age group are preferred.
func (s *Service) RandomWord(age int) (*entities.Word, error) {
	return s.local.GetRandomWord(age, contentfilter.MaxComplexityForAge(age))
}

// PopularWords returns the most searched words visible to the viewer.
func (s *Service) PopularWords(limit, age int) ([]entities.Word, error) {
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}
	return s.local.GetPopularWords(limit, age)
}
