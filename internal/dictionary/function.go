package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kidopedia/kidopedia/internal/entities"
)

// FunctionClient calls the hosted fetch-dictionary function, which returns
// definitions together with Kannada and Hindi translations.
type FunctionClient struct {
	http    *resty.Client
	url     string
	timeout time.Duration
}

// NewFunctionClient creates a client for the function at url, authenticated
// with the anonymous API key.
func NewFunctionClient(url, apiKey string, timeout time.Duration) *FunctionClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	hc := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		hc.SetAuthToken(apiKey)
	}
	return &FunctionClient{http: hc, url: url, timeout: timeout}
}

func (c *FunctionClient) Name() string {
	return "function"
}

// URL returns the function endpoint.
func (c *FunctionClient) URL() string {
	return c.url
}

type functionEntry struct {
	Word               string            `json:"word" validate:"required"`
	Phonetic           string            `json:"phonetic"`
	AudioURL           string            `json:"audioUrl"`
	Meanings           []functionMeaning `json:"meanings" validate:"required,min=1,dive"`
	Origin             string            `json:"origin"`
	KannadaTranslation string            `json:"kannadaTranslation"`
	HindiTranslation   string            `json:"hindiTranslation"`
}

type functionMeaning struct {
	PartOfSpeech string               `json:"partOfSpeech"`
	Definitions  []functionDefinition `json:"definitions" validate:"required,min=1,dive"`
}

type functionDefinition struct {
	Definition string   `json:"definition" validate:"required"`
	Example    string   `json:"example"`
	Synonyms   []string `json:"synonyms"`
	Antonyms   []string `json:"antonyms"`
}

// Lookup fetches a word from the function. A 404 is NotFound; a body that
// is not a non-empty array of complete entries is Malformed.
func (c *FunctionClient) Lookup(ctx context.Context, word string) (LookupResult, error) {
	word = entities.NormalizeWord(word)
	if word == "" {
		return LookupResult{}, ErrEmptyWord
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(reqCtx).
		SetQueryParam("word", word).
		Get(c.url)
	if err != nil {
		return LookupResult{}, classify(ctx, err)
	}
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return NotFound(), nil
	case res.StatusCode() != http.StatusOK:
		return LookupResult{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, res.StatusCode())
	}

	var payload []functionEntry
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return Malformed("decode response: " + err.Error()), nil
	}
	if len(payload) == 0 {
		return NotFound(), nil
	}
	if result, ok := checkPayload(&payload[0]); !ok {
		return result, nil
	}
	return Found(payload[0].toEntry()), nil
}

func (e functionEntry) toEntry() *Entry {
	entry := &Entry{
		Word:     entities.NormalizeWord(e.Word),
		Phonetic: e.Phonetic,
		AudioURL: e.AudioURL,
		Origin:   e.Origin,
	}
	for _, m := range e.Meanings {
		meaning := entities.Meaning{PartOfSpeech: m.PartOfSpeech}
		for _, d := range m.Definitions {
			meaning.Definitions = append(meaning.Definitions, entities.Definition{
				Definition: d.Definition,
				Example:    d.Example,
				Synonyms:   d.Synonyms,
				Antonyms:   d.Antonyms,
			})
		}
		entry.Meanings = append(entry.Meanings, meaning)
	}
	if kn := strings.TrimSpace(e.KannadaTranslation); kn != "" {
		entry.Translations = map[string]string{entities.LangKannada: kn}
	}
	if hi := strings.TrimSpace(e.HindiTranslation); hi != "" {
		if entry.Translations == nil {
			entry.Translations = map[string]string{}
		}
		entry.Translations[entities.LangHindi] = hi
	}
	return entry
}
