package words

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kidopedia/kidopedia/internal/database/dbtest"
	"github.com/kidopedia/kidopedia/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db := dbtest.Open(t, &entities.Word{}, &entities.WordPrefix{})
	return NewRepository(db), db
}

func testWord(word string, searchCount int) entities.Word {
	return entities.Word{
		Word:     word,
		Phonetic: "/" + word + "/",
		Meanings: []entities.Meaning{{
			PartOfSpeech: "noun",
			Definitions:  []entities.Definition{{Definition: "A " + word + "."}},
		}},
		Translations:     map[string]string{entities.LangHindi: word + "-hi"},
		IsAgeAppropriate: true,
		MinAge:           2,
		ComplexityLevel:  5,
		SearchCount:      searchCount,
	}
}

func TestRepository_UpsertWord_Idempotent(t *testing.T) {
	repo, _ := setupTestDB(t)

	w := testWord("Elephant", 3)
	require.NoError(t, repo.UpsertWord(&w))
	first, err := repo.GetWord("elephant")
	require.NoError(t, err)
	require.NotNil(t, first)
	firstIndex, err := repo.CountIndexEntries("elephant")
	require.NoError(t, err)

	w = testWord("Elephant", 3)
	require.NoError(t, repo.UpsertWord(&w))
	second, err := repo.GetWord("elephant")
	require.NoError(t, err)
	secondIndex, err := repo.CountIndexEntries("elephant")
	require.NoError(t, err)

	first.UpdatedAt = second.UpdatedAt
	assert.Equal(t, first, second)
	assert.Equal(t, firstIndex, secondIndex)
	assert.Equal(t, int64(7), secondIndex) // el..elephant

	count, err := repo.CountWords()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_UpsertWord_NormalizesCase(t *testing.T) {
	repo, _ := setupTestDB(t)

	w := testWord("  Giraffe ", 0)
	require.NoError(t, repo.UpsertWord(&w))
	assert.Equal(t, "giraffe", w.Word)
	assert.False(t, w.UpdatedAt.IsZero())

	got, err := repo.GetWord("GIRAFFE")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "giraffe", got.Word)
	assert.Equal(t, "  Giraffe -hi", got.Translations[entities.LangHindi])
	require.Len(t, got.Meanings, 1)
	assert.Equal(t, "A   Giraffe .", got.Meanings[0].Definitions[0].Definition)
	assert.Equal(t, w.UpdatedAt.Unix(), got.UpdatedAt.Unix())
}

func TestRepository_UpsertWord_SearchCountIsMax(t *testing.T) {
	repo, _ := setupTestDB(t)

	for _, count := range []int{5, 3, 8} {
		w := testWord("lion", count)
		require.NoError(t, repo.UpsertWord(&w))
	}
	got, err := repo.GetWord("lion")
	require.NoError(t, err)
	assert.Equal(t, 8, got.SearchCount)

	w := testWord("lion", 1)
	require.NoError(t, repo.UpsertWord(&w))
	got, err = repo.GetWord("lion")
	require.NoError(t, err)
	assert.Equal(t, 8, got.SearchCount)
}

func TestRepository_UpsertWord_LastWriteWinsOtherFields(t *testing.T) {
	repo, _ := setupTestDB(t)

	w := testWord("tiger", 2)
	require.NoError(t, repo.UpsertWord(&w))

	w = testWord("tiger", 0)
	w.Phonetic = "/ˈtaɪɡər/"
	w.IsAgeAppropriate = false
	w.MinAge = 16
	w.ContentFlags = []string{"flagged"}
	require.NoError(t, repo.UpsertWord(&w))

	got, err := repo.GetWord("tiger")
	require.NoError(t, err)
	assert.Equal(t, "/ˈtaɪɡər/", got.Phonetic)
	assert.False(t, got.IsAgeAppropriate)
	assert.Equal(t, 16, got.MinAge)
	assert.Equal(t, []string{"flagged"}, got.ContentFlags)
	assert.Equal(t, 2, got.SearchCount)
}

func TestRepository_UpsertWords_DuplicateKeysInBatch(t *testing.T) {
	repo, _ := setupTestDB(t)

	batch := []entities.Word{testWord("Cat", 9), testWord("cat", 4)}
	require.NoError(t, repo.UpsertWords(batch))
	got, err := repo.GetWord("cat")
	require.NoError(t, err)
	assert.Equal(t, 9, got.SearchCount)

	for _, w := range batch {
		assert.Equal(t, "cat", w.Word)
		assert.Equal(t, got.UpdatedAt.Unix(), w.UpdatedAt.Unix())
	}
}

func TestRepository_UpsertWords_RollsBackWithIndex(t *testing.T) {
	repo, db := setupTestDB(t)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).UpsertWords([]entities.Word{testWord("zebra", 1), testWord("zebu", 1)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.CountWords()
	require.NoError(t, err)
	assert.Zero(t, count)

	var idx int64
	require.NoError(t, db.Model(&entities.WordPrefix{}).Count(&idx).Error)
	assert.Zero(t, idx)
}

func TestRepository_UpsertWords_RejectsEmptyWord(t *testing.T) {
	repo, _ := setupTestDB(t)

	err := repo.UpsertWords([]entities.Word{testWord("ok", 1), testWord("  ", 1)})
	require.Error(t, err)

	count, err := repo.CountWords()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_SearchWords(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.UpsertWords([]entities.Word{
		testWord("cat", 5),
		testWord("cats", 9),
		testWord("car", 1),
		testWord("dog", 100),
	}))

	t.Run("prefix match ordered by search count", func(t *testing.T) {
		results, err := repo.SearchWords("ca", 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "cats", results[0].Word)
		assert.Equal(t, "cat", results[1].Word)
		assert.Equal(t, "car", results[2].Word)
	})

	t.Run("case and quotes are ignored", func(t *testing.T) {
		results, err := repo.SearchWords(` "CA*`, 10)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("respects limit", func(t *testing.T) {
		results, err := repo.SearchWords("ca", 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("single character falls back to scan", func(t *testing.T) {
		results, err := repo.SearchWords("d", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "dog", results[0].Word)
	})

	t.Run("wildcards do not match everything", func(t *testing.T) {
		results, err := repo.SearchWords("%", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("no match", func(t *testing.T) {
		results, err := repo.SearchWords("zz", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestRepository_SearchWords_OneLetterWord(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.UpsertWords([]entities.Word{testWord("a", 1), testWord("ant", 2)}))

	results, err := repo.SearchWords("a", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRepository_SearchWords_LongQuery(t *testing.T) {
	repo, _ := setupTestDB(t)

	long := "pneumonoultramicroscopicsilicovolcanoconiosis"
	require.NoError(t, repo.UpsertWords([]entities.Word{testWord(long, 1)}))

	results, err := repo.SearchWords(long, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = repo.SearchWords(long+"x", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRepository_DeleteWord_RemovesIndex(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.UpsertWords([]entities.Word{testWord("cat", 1), testWord("cats", 1)}))
	require.NoError(t, repo.DeleteWord("cat"))

	idx, err := repo.CountIndexEntries("cat")
	require.NoError(t, err)
	assert.Zero(t, idx)

	results, err := repo.SearchWords("ca", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cats", results[0].Word)
}

func TestRepository_ClearAll(t *testing.T) {
	repo, db := setupTestDB(t)

	require.NoError(t, repo.UpsertWords([]entities.Word{testWord("cat", 1), testWord("dog", 1)}))
	require.NoError(t, repo.ClearAll())

	count, err := repo.CountWords()
	require.NoError(t, err)
	assert.Zero(t, count)

	var idx int64
	require.NoError(t, db.Model(&entities.WordPrefix{}).Count(&idx).Error)
	assert.Zero(t, idx)
}

func TestRepository_AgeFilteredReads(t *testing.T) {
	repo, _ := setupTestDB(t)

	teen := testWord("volcano", 50)
	teen.MinAge = 13
	hidden := testWord("secret", 99)
	hidden.IsAgeAppropriate = false
	require.NoError(t, repo.UpsertWords([]entities.Word{testWord("apple", 10), teen, hidden}))

	popular, err := repo.GetPopularWords(10, 8)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, "apple", popular[0].Word)

	popular, err = repo.GetPopularWords(10, 14)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "volcano", popular[0].Word)

	for i := 0; i < 10; i++ {
		random, err := repo.GetRandomWord(8, 10)
		require.NoError(t, err)
		require.NotNil(t, random)
		assert.Equal(t, "apple", random.Word)
	}

	none, err := repo.GetRandomWord(1, 10)
	require.NoError(t, err)
	assert.Nil(t, none)

	all, err := repo.GetAllWords()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_GetRandomWord_PrefersSimplerWords(t *testing.T) {
	repo, _ := setupTestDB(t)

	easy := testWord("cat", 1)
	easy.ComplexityLevel = 2
	hard := testWord("photosynthesis", 1)
	hard.ComplexityLevel = 9
	require.NoError(t, repo.UpsertWords([]entities.Word{easy, hard}))

	for i := 0; i < 10; i++ {
		random, err := repo.GetRandomWord(8, 3)
		require.NoError(t, err)
		require.NotNil(t, random)
		assert.Equal(t, "cat", random.Word)
	}

	require.NoError(t, repo.DeleteWord("cat"))
	random, err := repo.GetRandomWord(8, 3)
	require.NoError(t, err)
	require.NotNil(t, random)
	assert.Equal(t, "photosynthesis", random.Word)
}

func TestRepository_GetWord_Missing(t *testing.T) {
	repo, _ := setupTestDB(t)

	got, err := repo.GetWord("nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_IncrementSearchCount_Concurrent(t *testing.T) {
	repo, _ := setupTestDB(t)

	w := testWord("owl", 0)
	require.NoError(t, repo.UpsertWord(&w))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementSearchCount("owl")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetWord("owl")
	require.NoError(t, err)
	assert.Equal(t, 20, got.SearchCount)

	found, err := repo.IncrementSearchCount("missing")
	require.NoError(t, err)
	assert.False(t, found)
}
