// Package moderation censors forbidden words in chat messages before they
// are persisted or broadcast.
package moderation

import (
	"bufio"
	"embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"chat-backend/errors"
)

//go:embed words.txt
var wordsFile embed.FS

// Moderator replaces every occurrence of a censored word with the
// replacement rune. Matching is case-insensitive. Safe for concurrent use
// once built; the automaton is read-only after construction.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the lowercased word
// list.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyWordList
	}

	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		patterns = append(patterns, []rune(strings.ToLower(w)))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor returns text with every censored span overwritten by the
// replacement rune. The input is returned unchanged when nothing matches.
func (m *Moderator) Censor(text string) string {
	runes := []rune(text)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	spans := m.matcher.MultiPatternSearch(lowered, false)
	if len(spans) == 0 {
		return text
	}

	for _, span := range spans {
		end := span.Pos + len(span.Word)
		if span.Pos < 0 || end > len(runes) {
			continue
		}
		for i := span.Pos; i < end; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

// LoadEmbeddedWords reads the default censored word list shipped with the
// binary. Blank lines and '#' comments are skipped.
func LoadEmbeddedWords() ([]string, error) {
	f, err := wordsFile.Open("words.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}
