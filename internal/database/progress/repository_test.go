package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/database/dbtest"
	"github.com/kidopedia/kidopedia/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db := dbtest.Open(t, &entities.WordProgress{}, &entities.Word{})
	return NewRepository(db), db
}

func TestRepository_RecordView(t *testing.T) {
	repo, _ := setupTestDB(t)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	wp, first, err := repo.RecordView("p1", "Cat", now)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, 1, wp.TimesViewed)
	assert.Equal(t, "cat", wp.Word)

	later := now.Add(time.Hour)
	wp, first, err = repo.RecordView("p1", "cat", later)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, 2, wp.TimesViewed)

	stored, err := repo.Get("p1", "cat")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.TimesViewed)
	assert.True(t, stored.LastViewedAt.Equal(later))

	_, first, err = repo.RecordView("p2", "cat", now)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestRepository_ToggleFavorite_RoundTrip(t *testing.T) {
	repo, db := setupTestDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&entities.Word{Word: "cat", IsAgeAppropriate: true, MinAge: 2}).Error)
	require.NoError(t, db.Create(&entities.Word{Word: "dog", IsAgeAppropriate: true, MinAge: 2}).Error)

	fav, created, err := repo.ToggleFavorite("p1", "cat", now)
	require.NoError(t, err)
	assert.True(t, fav)
	assert.True(t, created)

	fav, _, err = repo.ToggleFavorite("p1", "dog", now)
	require.NoError(t, err)
	assert.True(t, fav)

	words, err := repo.GetFavoriteWords("p1")
	require.NoError(t, err)
	assert.Len(t, words, 2)

	fav, created, err = repo.ToggleFavorite("p1", "cat", now)
	require.NoError(t, err)
	assert.False(t, fav)
	assert.False(t, created)

	words, err = repo.GetFavoriteWords("p1")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "dog", words[0].Word)

	count, err := repo.CountFavorites("p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	wp, err := repo.Get("p1", "cat")
	require.NoError(t, err)
	assert.Equal(t, 1, wp.TimesViewed)
}

func TestRepository_ToggleFavorite_KeepsViews(t *testing.T) {
	repo, _ := setupTestDB(t)
	now := time.Now()

	_, _, err := repo.RecordView("p1", "owl", now)
	require.NoError(t, err)
	_, _, err = repo.RecordView("p1", "owl", now)
	require.NoError(t, err)

	fav, created, err := repo.ToggleFavorite("p1", "owl", now)
	require.NoError(t, err)
	assert.True(t, fav)
	assert.False(t, created)

	wp, err := repo.Get("p1", "owl")
	require.NoError(t, err)
	assert.Equal(t, 2, wp.TimesViewed)
	assert.True(t, wp.IsFavorite)

	favs, err := repo.ListFavorites("p1")
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}
