package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator stars out censored words in message bodies before they are
// persisted, so broadcast and history always agree on the stored text.
// Matching is case-insensitive via an Aho-Corasick automaton built once.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the automaton from the configured word list.
// An empty list yields a pass-through moderator.
func NewModerator(censoredWords []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			patterns = append(patterns, []rune(word))
		}
	}
	if len(patterns) == 0 {
		return &Moderator{replacement: replacement}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, replacement: replacement}, nil
}

// Censor replaces every matched pattern with the replacement rune,
// preserving the length and the untouched parts of the text.
func (m *Moderator) Censor(text string) string {
	if m.matcher == nil {
		return text
	}

	original := []rune(text)
	lowered := make([]rune, len(original))
	for i, r := range original {
		lowered[i] = unicode.ToLower(r)
	}

	spans := m.matcher.MultiPatternSearch(lowered, false)
	if len(spans) == 0 {
		return text
	}
	for _, span := range spans {
		end := span.Pos + len(span.Word)
		if end > len(original) {
			continue
		}
		for i := span.Pos; i < end; i++ {
			original[i] = m.replacement
		}
	}
	return string(original)
}
