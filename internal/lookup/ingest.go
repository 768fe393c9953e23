package lookup

import (
	"github.com/kidopedia/kidopedia/internal/contentfilter"
	"github.com/kidopedia/kidopedia/internal/dictionary"
	"github.com/kidopedia/kidopedia/internal/entities"
)

// classificationAges are the first ages of each age group, youngest first.
// A record is stored with the youngest of them it is fit for.
var classificationAges = []int{2, 6, 9, 13}

const (
	restrictedMinAge       = 16
	defaultComplexityLevel = 5

	flagAllDefinitionsFiltered = "All definitions contain inappropriate content"
)

// Classify turns a freshly fetched dictionary entry into a stored record.
// The record gets the youngest age group whose filter passes the word and
// keeps at least one definition, with definitions, examples, synonyms and
// antonyms filtered for that group. An entry no group accepts is restricted.
func Classify(entry *dictionary.Entry) entities.Word {
	w := entities.Word{
		Word:             entities.NormalizeWord(entry.Word),
		Phonetic:         entry.Phonetic,
		AudioURL:         entry.AudioURL,
		Origin:           entry.Origin,
		Translations:     entry.Translations,
		IsAgeAppropriate: true,
		ContentFlags:     []string{},
		ComplexityLevel:  defaultComplexityLevel,
	}

	var flag string
	for _, age := range classificationAges {
		if res := contentfilter.IsWordAppropriate(w.Word, age); !res.Appropriate {
			flag = res.Reason
			continue
		}
		meanings := contentfilter.FilterMeanings(entry.Meanings, age)
		if len(meanings) == 0 && len(entry.Meanings) > 0 {
			flag = flagAllDefinitionsFiltered
			continue
		}
		w.MinAge = age
		w.Meanings = meanings
		return w
	}

	w.IsAgeAppropriate = false
	w.MinAge = restrictedMinAge
	w.ContentFlags = append(w.ContentFlags, flag)
	w.Meanings = []entities.Meaning{}
	return w
}

// filterCached strips meanings from a record read from the remote cache
// that are unfit at the record's own minimum age. It reports false when
// nothing is left.
func filterCached(w *entities.Word) bool {
	age := w.MinAge
	if age < classificationAges[0] {
		age = classificationAges[0]
	}
	filtered := contentfilter.FilterMeanings(w.Meanings, age)
	if len(filtered) == 0 && len(w.Meanings) > 0 {
		return false
	}
	w.Meanings = filtered
	return true
}
