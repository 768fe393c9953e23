package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/profiles"
)

// ProfileService manages child profiles and their learning state.
type ProfileService interface {
	ViewTracker
	Create(in profiles.Input) (*entities.Profile, error)
	Update(id string, u profiles.Update) (*entities.Profile, error)
	Delete(id string) error
	Get(id string) (*entities.Profile, error)
	List() ([]entities.Profile, error)
	SetActiveProfile(id string) (*entities.Profile, error)
	ActiveProfile() (*entities.Profile, error)
	ToggleFavorite(profileID, word string) (*profiles.FavoriteResult, error)
	FavoriteWords(profileID string) ([]entities.Word, error)
	Streak(profileID string) (*entities.DailyStreak, error)
	Achievements(profileID string) ([]profiles.AchievementStatus, error)
	RecentSearches(profileID string, limit int) ([]entities.RecentSearch, error)
	ClearRecentSearches(profileID string) error
}

type ProfilesController struct {
	profiles ProfileService
}

func NewProfilesController(svc ProfileService) *ProfilesController {
	return &ProfilesController{profiles: svc}
}

// List handles GET /api/profiles
func (pc *ProfilesController) List(c *gin.Context) {
	list, err := pc.profiles.List()
	if err != nil {
		respondInternalError(c, err, "list profiles")
		return
	}
	active, err := pc.profiles.ActiveProfile()
	if err != nil {
		respondInternalError(c, err, "active profile")
		return
	}
	resp := gin.H{"profiles": list, "count": len(list)}
	if active != nil {
		resp["active_profile_id"] = active.ID
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/profiles
func (pc *ProfilesController) Create(c *gin.Context) {
	var in profiles.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	p, err := pc.profiles.Create(in)
	if err != nil {
		respondProfileError(c, err, "create profile")
		return
	}
	respondCreated(c, p)
}

// Get handles GET /api/profiles/:id
func (pc *ProfilesController) Get(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	p, err := pc.profiles.Get(id)
	if err != nil {
		respondInternalError(c, err, "get profile")
		return
	}
	if p == nil {
		respondNotFound(c, "profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update handles PUT /api/profiles/:id
func (pc *ProfilesController) Update(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	var u profiles.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	p, err := pc.profiles.Update(id, u)
	if err != nil {
		respondProfileError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/profiles/:id
func (pc *ProfilesController) Delete(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	if err := pc.profiles.Delete(id); err != nil {
		respondProfileError(c, err, "delete profile")
		return
	}
	respondSuccess(c, "profile deleted")
}

// Activate handles POST /api/profiles/:id/activate
func (pc *ProfilesController) Activate(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	p, err := pc.profiles.SetActiveProfile(id)
	if err != nil {
		respondProfileError(c, err, "activate profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// ToggleFavorite handles POST /api/profiles/:id/favorites/:word
func (pc *ProfilesController) ToggleFavorite(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	word, ok := requireParam(c, "word")
	if !ok {
		return
	}
	res, err := pc.profiles.ToggleFavorite(id, word)
	if err != nil {
		respondProfileError(c, err, "toggle favorite")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Favorites handles GET /api/profiles/:id/favorites
func (pc *ProfilesController) Favorites(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	words, err := pc.profiles.FavoriteWords(id)
	if err != nil {
		respondProfileError(c, err, "favorite words")
		return
	}
	c.JSON(http.StatusOK, gin.H{"words": words, "count": len(words)})
}

// Streak handles GET /api/profiles/:id/streak
func (pc *ProfilesController) Streak(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	streak, err := pc.profiles.Streak(id)
	if err != nil {
		respondProfileError(c, err, "streak")
		return
	}
	if streak == nil {
		streak = &entities.DailyStreak{ProfileID: id}
	}
	c.JSON(http.StatusOK, streak)
}

// Achievements handles GET /api/profiles/:id/achievements
func (pc *ProfilesController) Achievements(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	list, err := pc.profiles.Achievements(id)
	if err != nil {
		respondProfileError(c, err, "achievements")
		return
	}
	unlocked := 0
	for _, a := range list {
		if a.Unlocked {
			unlocked++
		}
	}
	c.JSON(http.StatusOK, gin.H{"achievements": list, "unlocked": unlocked, "total": len(list)})
}

// RecentSearches handles GET /api/profiles/:id/recent-searches?limit=
func (pc *ProfilesController) RecentSearches(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	limit, ok := parseLimitQuery(c, maxListLimit)
	if !ok {
		return
	}
	list, err := pc.profiles.RecentSearches(id, limit)
	if err != nil {
		respondInternalError(c, err, "recent searches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"searches": list, "count": len(list)})
}

// ClearRecentSearches handles DELETE /api/profiles/:id/recent-searches
func (pc *ProfilesController) ClearRecentSearches(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}
	if err := pc.profiles.ClearRecentSearches(id); err != nil {
		respondInternalError(c, err, "clear recent searches")
		return
	}
	respondSuccess(c, "recent searches cleared")
}
