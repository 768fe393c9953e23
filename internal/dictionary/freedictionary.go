package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/kidopedia/kidopedia/internal/entities"
)

const freeDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// FreeDictionaryClient implements Client using the Free Dictionary API.
// It has no translations. API docs: https://dictionaryapi.dev/
type FreeDictionaryClient struct {
	http    *resty.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewFreeDictionaryClient creates a new Free Dictionary API client allowing
// at most perSecond requests per second.
func NewFreeDictionaryClient(baseURL string, perSecond float64, timeout time.Duration) *FreeDictionaryClient {
	if baseURL == "" {
		baseURL = freeDictionaryURL
	}
	if perSecond <= 0 {
		perSecond = 2
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FreeDictionaryClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", "Kidopedia/1.0"),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		timeout: timeout,
	}
}

func (c *FreeDictionaryClient) Name() string {
	return "freedictionary"
}

// Lookup fetches word definitions from the Free Dictionary API.
func (c *FreeDictionaryClient) Lookup(ctx context.Context, word string) (LookupResult, error) {
	word = entities.NormalizeWord(word)
	if word == "" {
		return LookupResult{}, ErrEmptyWord
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(reqCtx); err != nil {
		return LookupResult{}, classify(ctx, err)
	}

	res, err := c.http.R().SetContext(reqCtx).Get("/" + url.PathEscape(word))
	if err != nil {
		return LookupResult{}, classify(ctx, err)
	}
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return NotFound(), nil
	case res.StatusCode() != http.StatusOK:
		return LookupResult{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, res.StatusCode())
	}

	var apiResponse []freeDictionaryResponse
	if err := json.Unmarshal(res.Body(), &apiResponse); err != nil {
		return Malformed("decode response: " + err.Error()), nil
	}
	if len(apiResponse) == 0 {
		return NotFound(), nil
	}
	if result, ok := checkPayload(&apiResponse[0]); !ok {
		return result, nil
	}
	return Found(apiResponse[0].toEntry()), nil
}

func (r freeDictionaryResponse) toEntry() *Entry {
	entry := &Entry{
		Word:     entities.NormalizeWord(r.Word),
		Phonetic: r.Phonetic,
		Origin:   r.Origin,
	}

	// Extract pronunciation and audio from phonetics
	for _, phonetic := range r.Phonetics {
		if entry.Phonetic == "" && phonetic.Text != "" {
			entry.Phonetic = phonetic.Text
		}
		if entry.AudioURL == "" && phonetic.Audio != "" {
			entry.AudioURL = phonetic.Audio
		}
	}

	for _, meaning := range r.Meanings {
		m := entities.Meaning{PartOfSpeech: meaning.PartOfSpeech}
		for _, def := range meaning.Definitions {
			m.Definitions = append(m.Definitions, entities.Definition{
				Definition: def.Definition,
				Example:    def.Example,
				Synonyms:   def.Synonyms,
				Antonyms:   def.Antonyms,
			})
		}
		entry.Meanings = append(entry.Meanings, m)
	}
	return entry
}

// Free Dictionary API response types

type freeDictionaryResponse struct {
	Word      string             `json:"word" validate:"required"`
	Phonetic  string             `json:"phonetic"`
	Origin    string             `json:"origin"`
	Phonetics []freeDictPhonetic `json:"phonetics"`
	Meanings  []freeDictMeaning  `json:"meanings" validate:"required,min=1,dive"`
}

type freeDictPhonetic struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

type freeDictMeaning struct {
	PartOfSpeech string               `json:"partOfSpeech"`
	Definitions  []freeDictDefinition `json:"definitions" validate:"required,min=1,dive"`
}

type freeDictDefinition struct {
	Definition string   `json:"definition" validate:"required"`
	Example    string   `json:"example"`
	Synonyms   []string `json:"synonyms"`
	Antonyms   []string `json:"antonyms"`
}
