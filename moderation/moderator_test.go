package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake"}
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
			name:     "Multiple occurrences",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Case insensitive match",
			input:    "A BADGER and a SnAkE",
			expected: "A ****** and a *****",
		},
		{
			name:     "Accents around the match (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Clean text is untouched",
			input:    "nothing to see here",
			expected: "nothing to see here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestModerator_Empty_Dictionary_Is_Pass_Through(t *testing.T) {
	req := require.New(t)

	mod, err := NewModerator(nil, replacementChar)
	req.NoError(err)
	req.Equal("badger", mod.Censor("badger"))

	// Blank entries are discarded, not compiled
	mod, err = NewModerator([]string{"  ", ""}, replacementChar)
	req.NoError(err)
	req.Equal("anything", mod.Censor("anything"))
}
