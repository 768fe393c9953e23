package contentfilter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/kidopedia/kidopedia/internal/entities"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Result is the outcome of classifying a word or a span of text.
// Reason and Severity are empty when Appropriate is true.
type Result struct {
	Appropriate bool     `json:"isAppropriate"`
	Reason      string   `json:"reason,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	Category    string   `json:"category,omitempty"`
}

var pass = Result{Appropriate: true}

type AgeGroup string

const (
	AgeGroupToddler AgeGroup = "2-5"
	AgeGroupEarly   AgeGroup = "6-8"
	AgeGroupMiddle  AgeGroup = "9-12"
	AgeGroupTeen    AgeGroup = "13+"
)

type band struct {
	maxComplexity int
	blocked       map[string]struct{}
	scanner       *ahocorasick.Automaton
}

var bands map[AgeGroup]*band

func init() {
	bands = map[AgeGroup]*band{
		AgeGroupToddler: newBand(3, blockedWords),
		AgeGroupEarly:   newBand(5, blockedWords),
		AgeGroupMiddle:  newBand(7, blockedWords),
		AgeGroupTeen:    newBand(10, blockedWords[:teenBlockedCount]),
	}
}

func newBand(maxComplexity int, words []string) *band {
	b := &band{
		maxComplexity: maxComplexity,
		blocked:       make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		b.blocked[w] = struct{}{}
	}
	ac, err := ahocorasick.NewBuilder().
		AddStrings(words).
		SetPrefilter(true).
		Build()
	if err != nil {
		panic("contentfilter: build blocklist automaton: " + err.Error())
	}
	b.scanner = ac
	return b
}

// GroupForAge maps an age onto its age group.
func GroupForAge(age int) AgeGroup {
	switch {
	case age <= 5:
		return AgeGroupToddler
	case age <= 8:
		return AgeGroupEarly
	case age <= 12:
		return AgeGroupMiddle
	default:
		return AgeGroupTeen
	}
}

// MaxComplexityForAge returns the highest word complexity suitable for the age.
func MaxComplexityForAge(age int) int {
	return bands[GroupForAge(age)].maxComplexity
}

// IsWordAppropriate classifies a single word for a viewer of the given age.
func IsWordAppropriate(word string, age int) Result {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if utf8.RuneCountInString(normalized) < 2 {
		return Result{Reason: "Word too short", Severity: SeverityLow}
	}

	if _, blocked := bands[GroupForAge(age)].blocked[normalized]; blocked {
		return Result{Reason: "Inappropriate word for age group", Severity: SeverityHigh, Category: "blocklist"}
	}

	for _, c := range categories {
		if c.pattern.MatchString(normalized) {
			return Result{Reason: c.wordReason, Severity: SeverityHigh, Category: c.name}
		}
	}
	return pass
}

// FilterDefinition classifies a definition. Category patterns are high
// severity; a blocklisted word appearing as a whole word is medium.
func FilterDefinition(text string, age int) Result {
	normalized := strings.ToLower(text)

	for _, c := range categories {
		if c.pattern.MatchString(normalized) {
			return Result{Reason: c.textReason, Severity: SeverityHigh, Category: c.name}
		}
	}

	if containsBlockedWord(bands[GroupForAge(age)], normalized) {
		return Result{Reason: "Inappropriate content in definition", Severity: SeverityMedium, Category: "blocklist"}
	}
	return pass
}

// FilterExample classifies an example sentence with the definition rules.
func FilterExample(text string, age int) Result {
	return FilterDefinition(text, age)
}

// containsBlockedWord reports whether any blocklisted word occurs in text
// bounded by non-word characters, so "shell" does not match "hell".
func containsBlockedWord(b *band, text string) bool {
	if text == "" {
		return false
	}
	for _, m := range b.scanner.FindAllOverlapping([]byte(text)) {
		if isBoundary(text, m.Start, m.End) {
			return true
		}
	}
	return false
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Query is a search query after sanitization.
type Query struct {
	Sanitized string
	Tokens    []string
	Blocked   bool
}

// SanitizeSearchQuery drops low and medium severity tokens from a query.
// The query is blocked when any token is high severity, when every token
// was dropped, or when it is shorter than two characters.
func SanitizeSearchQuery(query string, age int) Query {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < 2 {
		return Query{Blocked: true}
	}

	var kept []string
	blocked := false
	for _, token := range strings.Fields(trimmed) {
		res := IsWordAppropriate(token, age)
		if res.Appropriate {
			kept = append(kept, token)
			continue
		}
		if res.Severity == SeverityHigh {
			blocked = true
		}
	}

	if blocked || len(kept) == 0 {
		return Query{Blocked: true}
	}
	return Query{Sanitized: strings.Join(kept, " "), Tokens: kept}
}

// FilterMeanings returns a copy of meanings with inappropriate content removed:
// failing definitions are dropped, failing examples are blanked, synonyms and
// antonyms that fail the word check are removed, and meanings left with no
// definitions are dropped. The input is not modified.
func FilterMeanings(meanings []entities.Meaning, age int) []entities.Meaning {
	out := make([]entities.Meaning, 0, len(meanings))
	for _, m := range meanings {
		defs := make([]entities.Definition, 0, len(m.Definitions))
		for _, d := range m.Definitions {
			if !FilterDefinition(d.Definition, age).Appropriate {
				continue
			}
			if d.Example != "" && !FilterExample(d.Example, age).Appropriate {
				d.Example = ""
			}
			d.Synonyms = filterWords(d.Synonyms, age)
			d.Antonyms = filterWords(d.Antonyms, age)
			defs = append(defs, d)
		}
		if len(defs) == 0 {
			continue
		}
		out = append(out, entities.Meaning{PartOfSpeech: m.PartOfSpeech, Definitions: defs})
	}
	return out
}

func filterWords(words []string, age int) []string {
	if len(words) == 0 {
		return words
	}
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if IsWordAppropriate(w, age).Appropriate {
			kept = append(kept, w)
		}
	}
	return kept
}

// BlockedMessage is the user-facing text shown for a blocked query.
func BlockedMessage(age int) string {
	if age <= 8 {
		return "Oops! That word isn't in our kid-friendly dictionary. Try searching for something else!"
	}
	return "This word may not be appropriate for your age. Please try a different word."
}
