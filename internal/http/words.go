package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/lookup"
	"github.com/kidopedia/kidopedia/internal/profiles"
)

const maxListLimit = 100

// WordService answers word lookups for a viewer age.
type WordService interface {
	GetWordDetails(ctx context.Context, word string, age int) (lookup.Result, error)
	SearchWords(ctx context.Context, query string, age, limit int) (lookup.SearchResult, error)
	RecordView(word string) (bool, error)
	RandomWord(age int) (*entities.Word, error)
	PopularWords(limit, age int) ([]entities.Word, error)
}

// ViewTracker records learning progress for a profile.
type ViewTracker interface {
	AgeSource
	TrackWordView(profileID, word string) (*profiles.Activity, error)
	AddRecentSearch(profileID, word string) error
}

type WordsController struct {
	words    WordService
	profiles ViewTracker
}

func NewWordsController(words WordService, tracker ViewTracker) *WordsController {
	return &WordsController{words: words, profiles: tracker}
}

// GetWord handles GET /api/words/:word?age=
// Blocked and not-found lookups answer 200 with the status in the body.
func (wc *WordsController) GetWord(c *gin.Context) {
	word, ok := requireParam(c, "word")
	if !ok {
		return
	}
	age, ok := parseAgeQuery(c, wc.profiles)
	if !ok {
		return
	}

	res, err := wc.words.GetWordDetails(c.Request.Context(), word, age)
	if err != nil {
		respondInternalError(c, err, "get word")
		return
	}
	c.JSON(http.StatusOK, res)
}

// RecordView handles POST /api/words/:word/view?profile_id=
func (wc *WordsController) RecordView(c *gin.Context) {
	word, ok := requireParam(c, "word")
	if !ok {
		return
	}

	stored, err := wc.words.RecordView(word)
	if err != nil {
		respondInternalError(c, err, "record view")
		return
	}

	resp := gin.H{"word": entities.NormalizeWord(word), "stored": stored}
	if profileID := c.Query("profile_id"); profileID != "" {
		activity, err := wc.profiles.TrackWordView(profileID, word)
		if err != nil {
			respondProfileError(c, err, "track word view")
			return
		}
		resp["activity"] = activity
	}
	c.JSON(http.StatusOK, resp)
}

// Search handles GET /api/search?q=&age=&limit=&profile_id=
// A blocked query answers 200 with blocked=true, distinct from an empty result.
func (wc *WordsController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}
	age, ok := parseAgeQuery(c, wc.profiles)
	if !ok {
		return
	}
	limit, ok := parseLimitQuery(c, maxListLimit)
	if !ok {
		return
	}

	res, err := wc.words.SearchWords(c.Request.Context(), query, age, limit)
	if err != nil {
		respondInternalError(c, err, "search words")
		return
	}

	if !res.Blocked && res.Term != "" {
		if err := wc.profiles.AddRecentSearch(c.Query("profile_id"), res.Term); err != nil {
			_ = c.Error(err).SetMeta("add recent search")
		}
	}
	c.JSON(http.StatusOK, res)
}

// Random handles GET /api/words/random?age=
func (wc *WordsController) Random(c *gin.Context) {
	age, ok := parseAgeQuery(c, wc.profiles)
	if !ok {
		return
	}
	w, err := wc.words.RandomWord(age)
	if err != nil {
		respondInternalError(c, err, "random word")
		return
	}
	if w == nil {
		respondNotFound(c, "word")
		return
	}
	c.JSON(http.StatusOK, w)
}

// Popular handles GET /api/words/popular?age=&limit=
func (wc *WordsController) Popular(c *gin.Context) {
	age, ok := parseAgeQuery(c, wc.profiles)
	if !ok {
		return
	}
	limit, ok := parseLimitQuery(c, maxListLimit)
	if !ok {
		return
	}
	words, err := wc.words.PopularWords(limit, age)
	if err != nil {
		respondInternalError(c, err, "popular words")
		return
	}
	c.JSON(http.StatusOK, gin.H{"words": words, "count": len(words)})
}
