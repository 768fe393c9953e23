// Package remote talks to the hosted word and profile tables over their
// REST interface.
//
// Every request carries a deadline. Transport failures come back as
// ErrTimeout or ErrUnavailable, non-2xx answers as *StatusError, and bodies
// that do not decode as ErrMalformedResponse.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/logger"
)

const (
	wordsPath    = "/rest/v1/cached_words"
	profilesPath = "/rest/v1/kid_profiles"
	incrementRPC = "/rest/v1/rpc/increment_word_search_count"

	wordColumns = "word,phonetic,audio_url,meanings,origin,kannada_translation,hindi_translation," +
		"is_age_appropriate,min_age,content_flags,complexity_level,search_count"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements the remote word source, word cache and profile sink.
type Client struct {
	http    *resty.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		hc.SetHeader("apikey", cfg.APIKey).SetAuthToken(cfg.APIKey)
	}
	return &Client{http: hc, timeout: timeout, log: logger.OrNop(log)}
}

// wordRow is the wire shape of a cached_words row.
type wordRow struct {
	Word               string             `json:"word"`
	Phonetic           string             `json:"phonetic"`
	AudioURL           string             `json:"audio_url"`
	Meanings           []entities.Meaning `json:"meanings"`
	Origin             string             `json:"origin"`
	KannadaTranslation string             `json:"kannada_translation"`
	HindiTranslation   string             `json:"hindi_translation"`
	IsAgeAppropriate   bool               `json:"is_age_appropriate"`
	MinAge             int                `json:"min_age"`
	ContentFlags       []string           `json:"content_flags"`
	ComplexityLevel    int                `json:"complexity_level"`
	SearchCount        int                `json:"search_count"`
}

func (r wordRow) toEntity() entities.Word {
	w := entities.Word{
		Word:             entities.NormalizeWord(r.Word),
		Phonetic:         r.Phonetic,
		AudioURL:         r.AudioURL,
		Meanings:         r.Meanings,
		Origin:           r.Origin,
		IsAgeAppropriate: r.IsAgeAppropriate,
		MinAge:           r.MinAge,
		ContentFlags:     r.ContentFlags,
		ComplexityLevel:  r.ComplexityLevel,
		SearchCount:      r.SearchCount,
	}
	if r.KannadaTranslation != "" || r.HindiTranslation != "" {
		w.Translations = map[string]string{}
		if r.KannadaTranslation != "" {
			w.Translations[entities.LangKannada] = r.KannadaTranslation
		}
		if r.HindiTranslation != "" {
			w.Translations[entities.LangHindi] = r.HindiTranslation
		}
	}
	return w
}

func rowFromEntity(w *entities.Word) wordRow {
	return wordRow{
		Word:               entities.NormalizeWord(w.Word),
		Phonetic:           w.Phonetic,
		AudioURL:           w.AudioURL,
		Meanings:           w.Meanings,
		Origin:             w.Origin,
		KannadaTranslation: w.Translations[entities.LangKannada],
		HindiTranslation:   w.Translations[entities.LangHindi],
		IsAgeAppropriate:   w.IsAgeAppropriate,
		MinAge:             w.MinAge,
		ContentFlags:       w.ContentFlags,
		ComplexityLevel:    w.ComplexityLevel,
		SearchCount:        w.SearchCount,
	}
}

func (c *Client) request(ctx context.Context) (*resty.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.http.R().SetContext(ctx), cancel
}

func (c *Client) do(ctx context.Context, req *resty.Request, method, path string) ([]byte, http.Header, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		return nil, nil, classify(ctx, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return nil, nil, &StatusError{StatusCode: res.StatusCode(), Body: truncate(string(res.Body()), 200)}
	}
	return res.Body(), res.Header(), nil
}

func (c *Client) getWords(ctx context.Context, params map[string]string) ([]entities.Word, error) {
	req, cancel := c.request(ctx)
	defer cancel()

	body, _, err := c.do(ctx, req.SetQueryParams(params), http.MethodGet, wordsPath)
	if err != nil {
		return nil, err
	}
	var rows []wordRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := make([]entities.Word, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Word) == "" {
			return nil, fmt.Errorf("%w: row without word", ErrMalformedResponse)
		}
		out = append(out, r.toEntity())
	}
	return out, nil
}

// FetchPage returns one page of age-appropriate words, most searched first.
func (c *Client) FetchPage(ctx context.Context, offset, pageSize, maxAge int) ([]entities.Word, error) {
	return c.getWords(ctx, map[string]string{
		"select":             wordColumns,
		"is_age_appropriate": "eq.true",
		"min_age":            "lte." + strconv.Itoa(maxAge),
		"order":              "search_count.desc,word.asc",
		"offset":             strconv.Itoa(offset),
		"limit":              strconv.Itoa(pageSize),
	})
}

// CountWords returns how many words FetchPage will return in total for maxAge.
func (c *Client) CountWords(ctx context.Context, maxAge int) (int, error) {
	req, cancel := c.request(ctx)
	defer cancel()

	req.SetHeader("Prefer", "count=exact").SetQueryParams(map[string]string{
		"select":             "word",
		"is_age_appropriate": "eq.true",
		"min_age":            "lte." + strconv.Itoa(maxAge),
		"limit":              "1",
	})
	_, header, err := c.do(ctx, req, http.MethodGet, wordsPath)
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(header.Get("Content-Range"))
}

// parseContentRangeTotal reads the total from "0-0/1234" or "*/1234".
func parseContentRangeTotal(value string) (int, error) {
	i := strings.LastIndex(value, "/")
	if i < 0 {
		return 0, fmt.Errorf("%w: content-range %q", ErrMalformedResponse, value)
	}
	total, err := strconv.Atoi(value[i+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: content-range %q", ErrMalformedResponse, value)
	}
	return total, nil
}

// FetchOne returns a single cached word, or nil when the remote cache has no entry.
func (c *Client) FetchOne(ctx context.Context, word string) (*entities.Word, error) {
	found, err := c.getWords(ctx, map[string]string{
		"select": wordColumns,
		"word":   "eq." + entities.NormalizeWord(word),
		"limit":  "1",
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

// SearchPrefix returns visible cached words starting with prefix, most searched first.
func (c *Client) SearchPrefix(ctx context.Context, prefix string, maxAge, limit int) ([]entities.Word, error) {
	return c.getWords(ctx, map[string]string{
		"select":             wordColumns,
		"word":               "ilike." + strings.ToLower(prefix) + "*",
		"is_age_appropriate": "eq.true",
		"min_age":            "lte." + strconv.Itoa(maxAge),
		"order":              "search_count.desc,word.asc",
		"limit":              strconv.Itoa(limit),
	})
}

// UpsertWord writes a word into the remote cache.
func (c *Client) UpsertWord(ctx context.Context, w *entities.Word) error {
	req, cancel := c.request(ctx)
	defer cancel()

	req.SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetHeader("Content-Type", "application/json").
		SetBody([]wordRow{rowFromEntity(w)})
	_, _, err := c.do(ctx, req, http.MethodPost, wordsPath)
	return err
}

// IncrementSearchCount bumps the remote popularity counter of a word.
func (c *Client) IncrementSearchCount(ctx context.Context, word string) error {
	req, cancel := c.request(ctx)
	defer cancel()

	req.SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"word_text": entities.NormalizeWord(word)})
	_, _, err := c.do(ctx, req, http.MethodPost, incrementRPC)
	return err
}

type profileRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	AvatarColor  string `json:"avatar_color"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	CurrentLevel int    `json:"current_level"`
	TotalXP      int    `json:"total_xp"`
	WordsLearned int    `json:"words_learned"`
}

// UpsertProfile backs a profile up to the remote.
func (c *Client) UpsertProfile(ctx context.Context, p *entities.Profile) error {
	req, cancel := c.request(ctx)
	defer cancel()

	req.SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetHeader("Content-Type", "application/json").
		SetBody([]profileRow{{
			ID:           p.ID,
			Name:         p.Name,
			Age:          p.Age,
			Gender:       string(p.Gender),
			AvatarColor:  p.AvatarColor,
			AvatarURL:    p.AvatarURL,
			CurrentLevel: p.CurrentLevel,
			TotalXP:      p.TotalXP,
			WordsLearned: p.WordsLearned,
		}})
	_, _, err := c.do(ctx, req, http.MethodPost, profilesPath)
	return err
}

// DeleteProfile removes the remote backup of a profile.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	req, cancel := c.request(ctx)
	defer cancel()

	req.SetQueryParam("id", "eq."+id)
	_, _, err := c.do(ctx, req, http.MethodDelete, profilesPath)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
