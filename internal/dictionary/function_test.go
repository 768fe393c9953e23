package dictionary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidopedia/kidopedia/internal/entities"
)

func TestFunctionClient_Lookup(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantOutcome Outcome
		wantErr     error
	}{
		{
			name:   "found",
			status: http.StatusOK,
			body: `[{"word":"Elephant","phonetic":"/ˈel.ɪ.fənt/","audioUrl":"https://a/e.mp3",
				"meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"A very large animal.","example":"The elephant drank.","synonyms":null}]}],
				"origin":"Greek","kannadaTranslation":"ಆನೆ","hindiTranslation":""}]`,
			wantOutcome: OutcomeFound,
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			body:        `{"error":"Word not found"}`,
			wantOutcome: OutcomeNotFound,
		},
		{
			name:        "empty array",
			status:      http.StatusOK,
			body:        `[]`,
			wantOutcome: OutcomeNotFound,
		},
		{
			name:        "not json",
			status:      http.StatusOK,
			body:        `<html>oops</html>`,
			wantOutcome: OutcomeMalformed,
		},
		{
			name:        "missing meanings",
			status:      http.StatusOK,
			body:        `[{"word":"elephant"}]`,
			wantOutcome: OutcomeMalformed,
		},
		{
			name:        "definition without text",
			status:      http.StatusOK,
			body:        `[{"word":"elephant","meanings":[{"partOfSpeech":"noun","definitions":[{"example":"x"}]}]}]`,
			wantOutcome: OutcomeMalformed,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `bad gateway`,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
				assert.Equal(t, "elephant", r.URL.Query().Get("word"))
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewFunctionClient(server.URL+"/functions/v1/fetch-dictionary", "anon", time.Second)
			result, err := client.Lookup(context.Background(), " Elephant")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			if tt.wantOutcome == OutcomeMalformed {
				assert.NotEmpty(t, result.Detail)
			}
		})
	}
}

func TestFunctionClient_FoundEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/fetch-dictionary", r.URL.Path)
		_, _ = io.WriteString(w, `[{"word":"Elephant","phonetic":"/e/","meanings":[{"partOfSpeech":"noun",
			"definitions":[{"definition":"A very large animal.","antonyms":["mouse"]}]}],
			"kannadaTranslation":" ಆನೆ ","hindiTranslation":"हाथी"}]`)
	}))
	defer server.Close()

	client := NewFunctionClient(server.URL+"/functions/v1/fetch-dictionary", "", time.Second)
	result, err := client.Lookup(context.Background(), "elephant")
	require.NoError(t, err)
	require.Equal(t, OutcomeFound, result.Outcome)

	entry := result.Entry
	assert.Equal(t, "elephant", entry.Word)
	assert.Equal(t, "/e/", entry.Phonetic)
	assert.Equal(t, map[string]string{entities.LangKannada: "ಆನೆ", entities.LangHindi: "हाथी"}, entry.Translations)
	require.Len(t, entry.Meanings, 1)
	assert.Equal(t, []string{"mouse"}, entry.Meanings[0].Definitions[0].Antonyms)
}

func TestFunctionClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewFunctionClient(server.URL, "", 50*time.Millisecond)
	_, err := client.Lookup(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFunctionClient_EmptyWord(t *testing.T) {
	client := NewFunctionClient("http://127.0.0.1:1", "", time.Second)
	_, err := client.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", OutcomeFound.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
	assert.Equal(t, "malformed", OutcomeMalformed.String())
}
