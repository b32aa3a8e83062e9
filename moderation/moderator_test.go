package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-backend/errors"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g. "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Case-insensitive matching",
			input:    "A SNAKE and a BaDgEr",
			expected: "A ***** and a ******",
		},
		{
			name:     "Accents around the match (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Word adjacent to punctuation",
			input:    "mushroom!",
			expected: "********!",
		},
		{
			name:     "Several distinct words in one message",
			input:    "snake meets badger near a mushroom",
			expected: "***** meets ****** near a ********",
		},
		{
			name:     "Clean input returned unchanged",
			input:    "Nothing to see here",
			expected: "Nothing to see here",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestModerator_Censor_Matches_Inside_Words(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger"}, replacementChar)
	req.NoError(err)

	// Substring matches are censored too; the word list is expected to
	// contain stems.
	req.Equal("******s everywhere", mod.Censor("badgers everywhere"))
}

func TestNewModerator_Rejects_An_Empty_Word_List(t *testing.T) {
	req := require.New(t)

	_, err := NewModerator(nil, replacementChar)
	req.ErrorIs(err, errors.ErrEmptyWordList)

	// Whitespace-only entries do not count as words either
	_, err = NewModerator([]string{}, replacementChar)
	req.ErrorIs(err, errors.ErrEmptyWordList)
}

func TestLoadEmbeddedWords_Skips_Blanks_And_Comments(t *testing.T) {
	req := require.New(t)

	words, err := LoadEmbeddedWords()
	req.NoError(err)
	req.NotEmpty(words)
	for _, w := range words {
		req.NotEmpty(strings.TrimSpace(w))
		req.False(strings.HasPrefix(w, "#"))
	}
}
