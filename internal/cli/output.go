package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kidopedia/kidopedia/internal/entities"
)

var (
	titleColor = color.New(color.Bold, color.FgCyan)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	dimColor   = color.New(color.Faint)
)

var translationNames = map[string]string{
	entities.LangKannada: "Kannada",
	entities.LangHindi:   "Hindi",
}

func printWord(w io.Writer, word *entities.Word) {
	titleColor.Fprint(w, word.Word)
	if word.Phonetic != "" {
		dimColor.Fprintf(w, "  %s", word.Phonetic)
	}
	fmt.Fprintln(w)

	for _, m := range word.Meanings {
		if m.PartOfSpeech != "" {
			fmt.Fprintf(w, "  (%s)\n", m.PartOfSpeech)
		}
		for i, d := range m.Definitions {
			fmt.Fprintf(w, "    %d. %s\n", i+1, d.Definition)
			if d.Example != "" {
				dimColor.Fprintf(w, "       \"%s\"\n", d.Example)
			}
		}
	}
	if word.Origin != "" {
		fmt.Fprintf(w, "  Origin: %s\n", word.Origin)
	}
	for _, lang := range []string{entities.LangKannada, entities.LangHindi} {
		if t := word.Translations[lang]; t != "" {
			fmt.Fprintf(w, "  %s: %s\n", translationNames[lang], t)
		}
	}
}

func printWordLine(w io.Writer, word entities.Word) {
	summary := ""
	if len(word.Meanings) > 0 && len(word.Meanings[0].Definitions) > 0 {
		summary = word.Meanings[0].Definitions[0].Definition
	}
	titleColor.Fprint(w, word.Word)
	if summary != "" {
		fmt.Fprintf(w, "  %s", truncate(summary, 70))
	}
	fmt.Fprintln(w)
}

func printProfile(w io.Writer, p entities.Profile, active bool) {
	marker := " "
	if active {
		marker = okColor.Sprint("*")
	}
	fmt.Fprintf(w, "%s %s  %s, age %d, level %d, %d XP, %d words",
		marker, p.ID, p.Name, p.Age, p.CurrentLevel, p.TotalXP, p.WordsLearned)
	if !p.SyncedToRemote {
		warnColor.Fprint(w, "  (not backed up)")
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
