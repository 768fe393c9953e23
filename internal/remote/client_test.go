package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidopedia/kidopedia/internal/entities"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, APIKey: "anon-key", Timeout: time.Second}, nil)
}

const elephantRow = `{
	"word": "Elephant",
	"phonetic": "/ˈel.ɪ.fənt/",
	"audio_url": null,
	"meanings": [{"partOfSpeech": "noun", "definitions": [{"definition": "A very large grey animal."}]}],
	"origin": "Greek",
	"kannada_translation": "ಆನೆ",
	"hindi_translation": "हाथी",
	"is_age_appropriate": true,
	"min_age": 2,
	"content_flags": [],
	"complexity_level": 3,
	"search_count": 42
}`

func TestFetchPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/cached_words", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "eq.true", q.Get("is_age_appropriate"))
		assert.Equal(t, "lte.12", q.Get("min_age"))
		assert.Equal(t, "search_count.desc,word.asc", q.Get("order"))
		assert.Equal(t, "100", q.Get("offset"))
		assert.Equal(t, "50", q.Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "["+elephantRow+"]")
	})

	words, err := client.FetchPage(context.Background(), 100, 50, 12)
	require.NoError(t, err)
	require.Len(t, words, 1)

	got := words[0]
	assert.Equal(t, "elephant", got.Word)
	assert.Equal(t, "", got.AudioURL)
	assert.Equal(t, "ಆನೆ", got.Translations[entities.LangKannada])
	assert.Equal(t, "हाथी", got.Translations[entities.LangHindi])
	assert.True(t, got.IsAgeAppropriate)
	assert.Equal(t, 2, got.MinAge)
	assert.Equal(t, 42, got.SearchCount)
	require.Len(t, got.Meanings, 1)
	assert.Equal(t, "noun", got.Meanings[0].PartOfSpeech)
}

func TestFetchPage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
				assert.True(t, IsTransient(err))
			},
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			check: func(t *testing.T, err error) {
				assert.False(t, IsTransient(err))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"not": "an array"}`)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
		{
			name: "row without word",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `[{"word": " ", "min_age": 2}]`)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchPage(context.Background(), 0, 50, 12)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFetchPage_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := client.FetchPage(context.Background(), 0, 50, 12)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTransient(err))
}

func TestFetchPage_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := client.FetchPage(context.Background(), 0, 50, 12)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchPage_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "[]")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchPage(ctx, 0, 50, 12)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransient(err))
}

func TestCountWords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-0/1234")
		_, _ = io.WriteString(w, `[{"word":"a"}]`)
	})

	total, err := client.CountWords(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 1234, total)
}

func TestParseContentRangeTotal(t *testing.T) {
	total, err := parseContentRangeTotal("*/0")
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	_, err = parseContentRangeTotal("")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = parseContentRangeTotal("0-1/*")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchOne(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("word") {
		case "eq.elephant":
			_, _ = io.WriteString(w, "["+elephantRow+"]")
		default:
			_, _ = io.WriteString(w, "[]")
		}
	})

	found, err := client.FetchOne(context.Background(), "  Elephant ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "elephant", found.Word)

	missing, err := client.FetchOne(context.Background(), "zyzzyva")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ilike.ele*", q.Get("word"))
		assert.Equal(t, "lte.8", q.Get("min_age"))
		assert.Equal(t, "10", q.Get("limit"))
		_, _ = io.WriteString(w, "["+elephantRow+"]")
	})

	words, err := client.SearchPrefix(context.Background(), "Ele", 8, 10)
	require.NoError(t, err)
	assert.Len(t, words, 1)
}

func TestUpsertWord(t *testing.T) {
	var rows []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		w.WriteHeader(http.StatusCreated)
	})

	word := &entities.Word{
		Word:             "Cat",
		Meanings:         []entities.Meaning{{PartOfSpeech: "noun", Definitions: []entities.Definition{{Definition: "A small pet."}}}},
		Translations:     map[string]string{entities.LangHindi: "बिल्ली"},
		IsAgeAppropriate: true,
		MinAge:           2,
		ComplexityLevel:  5,
	}
	require.NoError(t, client.UpsertWord(context.Background(), word))

	require.Len(t, rows, 1)
	assert.Equal(t, "cat", rows[0]["word"])
	assert.Equal(t, "बिल्ली", rows[0]["hindi_translation"])
	assert.Equal(t, "", rows[0]["kannada_translation"])
	assert.Equal(t, true, rows[0]["is_age_appropriate"])
}

func TestIncrementSearchCount(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/increment_word_search_count", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.IncrementSearchCount(context.Background(), "Dragon"))
	assert.Equal(t, map[string]string{"word_text": "dragon"}, body)
}

func TestProfiles(t *testing.T) {
	var methods []string
	var upserted []profileRow
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/kid_profiles", r.URL.Path)
		methods = append(methods, r.Method)
		switch r.Method {
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&upserted))
		case http.MethodDelete:
			assert.Equal(t, "eq.p-1", r.URL.Query().Get("id"))
		}
		w.WriteHeader(http.StatusNoContent)
	})

	profile := &entities.Profile{ID: "p-1", Name: "Asha", Age: 7, Gender: entities.GenderGirl, TotalXP: 120, CurrentLevel: 2, WordsLearned: 12}
	require.NoError(t, client.UpsertProfile(context.Background(), profile))
	require.NoError(t, client.DeleteProfile(context.Background(), "p-1"))

	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
	require.Len(t, upserted, 1)
	assert.Equal(t, "girl", upserted[0].Gender)
	assert.Equal(t, 120, upserted[0].TotalXP)
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{StatusCode: 500, Body: "boom"}
	assert.Equal(t, "remote error: HTTP 500: boom", err.Error())
	assert.False(t, errors.Is(err, ErrUnavailable))
}
