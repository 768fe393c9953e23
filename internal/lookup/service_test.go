package lookup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidopedia/kidopedia/internal/database"
	"github.com/kidopedia/kidopedia/internal/database/words"
	"github.com/kidopedia/kidopedia/internal/dictionary"
	"github.com/kidopedia/kidopedia/internal/entities"
)

type fakeRemote struct {
	mu        sync.Mutex
	words     map[string]entities.Word
	fetchErr  error
	fetches   int
	searches  int
	upserts   []entities.Word
	searchErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{words: map[string]entities.Word{}}
}

func (f *fakeRemote) FetchOne(ctx context.Context, word string) (*entities.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	w, ok := f.words[word]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (f *fakeRemote) SearchPrefix(ctx context.Context, prefix string, maxAge, limit int) ([]entities.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []entities.Word
	for _, w := range f.words {
		if len(w.Word) >= len(prefix) && w.Word[:len(prefix)] == prefix && w.VisibleTo(maxAge) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeRemote) UpsertWord(ctx context.Context, w *entities.Word) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, *w)
	return nil
}

type fakeDictionary struct {
	calls   atomic.Int32
	results map[string]dictionary.LookupResult
	err     error
	gate    chan struct{}

	// honorCtx makes Lookup fail once its context is done, like the real clients.
	honorCtx bool
}

func (f *fakeDictionary) Name() string { return "fake" }

func (f *fakeDictionary) Lookup(ctx context.Context, word string) (dictionary.LookupResult, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.honorCtx && ctx.Err() != nil {
		return dictionary.LookupResult{}, ctx.Err()
	}
	if f.err != nil {
		return dictionary.LookupResult{}, f.err
	}
	if res, ok := f.results[word]; ok {
		return res, nil
	}
	return dictionary.NotFound(), nil
}

type fakeScheduler struct {
	words []string
}

func (f *fakeScheduler) ScheduleSearchCountIncrement(word string) {
	f.words = append(f.words, word)
}

func meanings(defs ...string) []entities.Meaning {
	m := entities.Meaning{PartOfSpeech: "noun"}
	for _, d := range defs {
		m.Definitions = append(m.Definitions, entities.Definition{Definition: d})
	}
	return []entities.Meaning{m}
}

func visibleWord(word string, minAge, searchCount int) entities.Word {
	return entities.Word{
		Word:             word,
		Meanings:         meanings("A thing called " + word + "."),
		IsAgeAppropriate: true,
		MinAge:           minAge,
		ComplexityLevel:  5,
		SearchCount:      searchCount,
	}
}

type testEnv struct {
	local  *words.Repository
	remote *fakeRemote
	dict   *fakeDictionary
	svc    *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db)
	env := &testEnv{
		local:  store.Words,
		remote: newFakeRemote(),
		dict:   &fakeDictionary{results: map[string]dictionary.LookupResult{}},
	}
	env.svc = NewService(env.local, env.remote, env.dict, Config{}, nil)
	return env
}

func TestGetWordDetails_EndToEndCacheFill(t *testing.T) {
	env := newTestEnv(t)
	env.dict.results["elephant"] = dictionary.Found(&dictionary.Entry{
		Word:         "elephant",
		Phonetic:     "/ˈel.ɪ.fənt/",
		Meanings:     meanings("A very large grey animal with a long trunk."),
		Translations: map[string]string{entities.LangHindi: "हाथी"},
	})

	first, err := env.svc.GetWordDetails(context.Background(), "Elephant", 6)
	require.NoError(t, err)
	require.Equal(t, StatusFound, first.Status)
	assert.Equal(t, SourceDictionary, first.Source)
	assert.Equal(t, "elephant", first.Word.Word)
	assert.Equal(t, 2, first.Word.MinAge)
	assert.Equal(t, 5, first.Word.ComplexityLevel)

	stored, err := env.local.GetWord("elephant")
	require.NoError(t, err)
	require.NotNil(t, stored, "persisted locally")
	assert.Equal(t, "हाथी", stored.Translations[entities.LangHindi])
	require.Len(t, env.remote.upserts, 1, "written to the remote cache")

	second, err := env.svc.GetWordDetails(context.Background(), "elephant", 6)
	require.NoError(t, err)
	require.Equal(t, StatusFound, second.Status)
	assert.Equal(t, SourceLocal, second.Source)
	assert.Equal(t, first.Word.Meanings, second.Word.Meanings)
	assert.Equal(t, int32(1), env.dict.calls.Load(), "external lookup not repeated")
}

func TestGetWordDetails_BlockedWordConsultsNoTier(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.GetWordDetails(context.Background(), "fuck", 5)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.NotEmpty(t, res.Reason)
	assert.NotEmpty(t, res.Message)
	assert.Nil(t, res.Word)
	assert.Zero(t, env.remote.fetches)
	assert.Zero(t, env.dict.calls.Load())
}

func TestGetWordDetails_LocalAgeGate(t *testing.T) {
	env := newTestEnv(t)
	w := visibleWord("photosynthesis", 10, 0)
	require.NoError(t, env.local.UpsertWord(&w))

	res, err := env.svc.GetWordDetails(context.Background(), "photosynthesis", 6)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, reasonNotForAge, res.Reason)
	assert.Zero(t, env.remote.fetches, "a stored record is final")

	res, err = env.svc.GetWordDetails(context.Background(), "photosynthesis", 10)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, res.Status)
	assert.Equal(t, SourceLocal, res.Source)
}

func TestGetWordDetails_RemoteCacheFiltersAndStores(t *testing.T) {
	env := newTestEnv(t)
	cached := visibleWord("hunter", 2, 7)
	cached.Meanings = meanings("A person who looks for animals in the forest.", "Someone who uses a gun to kill animals.")
	env.remote.words["hunter"] = cached

	res, err := env.svc.GetWordDetails(context.Background(), "hunter", 8)
	require.NoError(t, err)
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, SourceRemoteCache, res.Source)
	require.Len(t, res.Word.Meanings, 1)
	require.Len(t, res.Word.Meanings[0].Definitions, 1)
	assert.Contains(t, res.Word.Meanings[0].Definitions[0].Definition, "forest")

	stored, err := env.local.GetWord("hunter")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Meanings[0].Definitions, 1)
	assert.Zero(t, env.dict.calls.Load())
}

func TestGetWordDetails_RemoteCacheFullyFilteredIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	cached := visibleWord("sidearm", 2, 0)
	cached.Meanings = meanings("A small gun.")
	env.remote.words["sidearm"] = cached

	res, err := env.svc.GetWordDetails(context.Background(), "sidearm", 12)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)

	stored, err := env.local.GetWord("sidearm")
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Zero(t, env.dict.calls.Load())
}

func TestGetWordDetails_RemoteFailureFallsThrough(t *testing.T) {
	env := newTestEnv(t)
	env.remote.fetchErr = errors.New("remote unavailable")
	env.dict.results["kite"] = dictionary.Found(&dictionary.Entry{Word: "kite", Meanings: meanings("A toy that flies in the wind.")})

	res, err := env.svc.GetWordDetails(context.Background(), "kite", 6)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, res.Status)
	assert.Equal(t, SourceDictionary, res.Source)
}

func TestGetWordDetails_TeenRecordFromDictionary(t *testing.T) {
	env := newTestEnv(t)
	env.dict.results["brewery"] = dictionary.Found(&dictionary.Entry{Word: "brewery", Meanings: meanings("A place where beer is made.")})

	res, err := env.svc.GetWordDetails(context.Background(), "brewery", 14)
	require.NoError(t, err)
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, 13, res.Word.MinAge)

	res, err = env.svc.GetWordDetails(context.Background(), "brewery", 8)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, reasonNotForAge, res.Reason)
	assert.Equal(t, int32(1), env.dict.calls.Load())
}

func TestGetWordDetails_DictionaryOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(d *fakeDictionary)
		status Status
	}{
		{"not found", func(d *fakeDictionary) {}, StatusNotFound},
		{"malformed", func(d *fakeDictionary) { d.results["zorp"] = dictionary.Malformed("missing meanings") }, StatusNotFound},
		{"error", func(d *fakeDictionary) { d.err = dictionary.ErrTimeout }, StatusNotFound},
		{"restricted record", func(d *fakeDictionary) {
			d.results["zorp"] = dictionary.Found(&dictionary.Entry{Word: "zorp", Meanings: meanings("A kind of drug.")})
		}, StatusBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env.dict)

			res, err := env.svc.GetWordDetails(context.Background(), "zorp", 12)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
		})
	}
}

func TestGetWordDetails_OfflineTiers(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.local, nil, nil, Config{}, nil)

	res, err := svc.GetWordDetails(context.Background(), "anything", 8)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
}

type failingStore struct {
	LocalStore
}

func (failingStore) GetWord(string) (*entities.Word, error) {
	return nil, errors.New("disk I/O error")
}

func TestGetWordDetails_LocalFailurePropagates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(failingStore{env.local}, env.remote, env.dict, Config{}, nil)

	_, err := svc.GetWordDetails(context.Background(), "cat", 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestGetWordDetails_ConcurrentLookupsShareOneFill(t *testing.T) {
	env := newTestEnv(t)
	env.dict.gate = make(chan struct{})
	env.dict.results["giraffe"] = dictionary.Found(&dictionary.Entry{Word: "giraffe", Meanings: meanings("A tall animal with a long neck.")})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.svc.GetWordDetails(context.Background(), "giraffe", 7)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	require.Eventually(t, func() bool { return env.dict.calls.Load() > 0 }, time.Second, time.Millisecond)
	close(env.dict.gate)
	wg.Wait()

	assert.Equal(t, int32(1), env.dict.calls.Load())
	for _, res := range results {
		assert.Equal(t, StatusFound, res.Status)
	}
}

func TestGetWordDetails_FillSurvivesCallerCancel(t *testing.T) {
	env := newTestEnv(t)
	env.dict.gate = make(chan struct{})
	env.dict.honorCtx = true
	env.dict.results["zebra"] = dictionary.Found(&dictionary.Entry{Word: "zebra", Meanings: meanings("A striped horse.")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() {
		res, err := env.svc.GetWordDetails(ctx, "zebra", 7)
		assert.NoError(t, err)
		done <- res
	}()

	require.Eventually(t, func() bool { return env.dict.calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	close(env.dict.gate)

	res := <-done
	assert.Equal(t, StatusFound, res.Status)
	assert.Equal(t, SourceDictionary, res.Source)

	stored, err := env.local.GetWord("zebra")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestSearchWords_PrefixCorrectness(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.local.UpsertWords([]entities.Word{
		visibleWord("cat", 2, 5),
		visibleWord("cats", 2, 9),
		visibleWord("car", 2, 1),
		visibleWord("dog", 2, 50),
	}))

	res, err := env.svc.SearchWords(context.Background(), "ca", 8, 10)
	require.NoError(t, err)
	assert.False(t, res.Blocked)

	var got []string
	for _, w := range res.Words {
		got = append(got, w.Word)
	}
	assert.Equal(t, []string{"cats", "cat", "car"}, got)
	assert.Zero(t, env.remote.searches, "local matches skip the remote")
}

func TestSearchWords_Blocked(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.local.UpsertWord(ptr(visibleWord("dragon", 2, 1))))

	res, err := env.svc.SearchWords(context.Background(), "kill the dragon", 8, 10)
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Empty(t, res.Words)
	assert.NotEmpty(t, res.Message)

	res, err = env.svc.SearchWords(context.Background(), "dragon", 8, 10)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Len(t, res.Words, 1)
}

func TestSearchWords_NoMatchesIsNotBlocked(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.SearchWords(context.Background(), "xylo", 8, 10)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Empty(t, res.Words)
	assert.NotNil(t, res.Words)
}

func TestSearchWords_SkipsStopwords(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.local.UpsertWord(ptr(visibleWord("rainbow", 2, 1))))

	res, err := env.svc.SearchWords(context.Background(), "the rain", 8, 10)
	require.NoError(t, err)
	assert.Equal(t, "rain", res.Term)
	require.Len(t, res.Words, 1)
	assert.Equal(t, "rainbow", res.Words[0].Word)
}

func TestSearchWords_AgeFiltered(t *testing.T) {
	env := newTestEnv(t)
	restricted := visibleWord("starfish", 2, 100)
	restricted.IsAgeAppropriate = false
	require.NoError(t, env.local.UpsertWords([]entities.Word{
		visibleWord("star", 2, 1),
		visibleWord("stargazing", 9, 50),
		restricted,
	}))

	res, err := env.svc.SearchWords(context.Background(), "star", 6, 10)
	require.NoError(t, err)
	require.Len(t, res.Words, 1)
	assert.Equal(t, "star", res.Words[0].Word)

	res, err = env.svc.SearchWords(context.Background(), "star", 12, 10)
	require.NoError(t, err)
	assert.Len(t, res.Words, 2)
}

func TestSearchWords_RemoteFallbackIsCached(t *testing.T) {
	env := newTestEnv(t)
	env.remote.words["volcano"] = visibleWord("volcano", 2, 3)
	env.remote.words["vole"] = visibleWord("vole", 2, 1)

	res, err := env.svc.SearchWords(context.Background(), "vo", 8, 10)
	require.NoError(t, err)
	assert.Len(t, res.Words, 2)
	assert.Equal(t, 1, env.remote.searches)

	stored, err := env.local.GetWord("volcano")
	require.NoError(t, err)
	assert.NotNil(t, stored)

	_, err = env.svc.SearchWords(context.Background(), "vo", 8, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, env.remote.searches, "second search is answered locally")
}

func TestSearchWords_RemoteFailureIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.remote.searchErr = errors.New("timeout")

	res, err := env.svc.SearchWords(context.Background(), "vo", 8, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Words)
	assert.False(t, res.Blocked)
}

func TestRecordView(t *testing.T) {
	env := newTestEnv(t)
	scheduler := &fakeScheduler{}
	env.svc.SetScheduler(scheduler)
	require.NoError(t, env.local.UpsertWord(ptr(visibleWord("moon", 2, 4))))

	ok, err := env.svc.RecordView("Moon")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"moon"}, scheduler.words)

	stored, err := env.local.GetWord("moon")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.SearchCount)

	ok, err = env.svc.RecordView("unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRandomAndPopularWords(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.local.UpsertWords([]entities.Word{
		visibleWord("apple", 2, 10),
		visibleWord("banana", 2, 30),
		visibleWord("chemistry", 11, 99),
	}))

	popular, err := env.svc.PopularWords(5, 6)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "banana", popular[0].Word)

	random, err := env.svc.RandomWord(6)
	require.NoError(t, err)
	require.NotNil(t, random)
	assert.NotEqual(t, "chemistry", random.Word)
}

func TestRandomWord_PrefersAgeComplexity(t *testing.T) {
	env := newTestEnv(t)
	simple := visibleWord("dog", 2, 1)
	simple.ComplexityLevel = 3
	harder := visibleWord("habitat", 2, 1)
	harder.ComplexityLevel = 6
	require.NoError(t, env.local.UpsertWords([]entities.Word{simple, harder}))

	for i := 0; i < 10; i++ {
		random, err := env.svc.RandomWord(4)
		require.NoError(t, err)
		require.NotNil(t, random)
		assert.Equal(t, "dog", random.Word)
	}

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		random, err := env.svc.RandomWord(14)
		require.NoError(t, err)
		seen[random.Word] = true
	}
	assert.True(t, seen["habitat"])
}

func ptr(w entities.Word) *entities.Word {
	return &w
}
