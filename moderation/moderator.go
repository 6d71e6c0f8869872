package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator masks forbidden words in public and private chat text before it is stored or relayed.
// It is read-only once built, so the reactor can call it without locking.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
	log         *slog.Logger
}

func NewModerator(censoredWords []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		// Pure punctuation folds to nothing
		if folded, _ := fold(word); len(folded) > 0 {
			patterns = append(patterns, folded)
		}
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderation ready", "patterns", len(patterns))
	return &Moderator{matcher: m, replacement: replacement, log: log}, nil
}

// Censor masks every forbidden word of text, rune for rune, and returns the words it found.
// Spacing and punctuation around a match are left as they are.
func (m *Moderator) Censor(text string) (string, []string) {
	folded, positions := fold(text)
	if len(folded) == 0 {
		return text, nil
	}
	hits := m.matcher.MultiPatternSearch(folded, false)
	if len(hits) == 0 {
		return text, nil
	}

	masked := []rune(text)
	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		end := hit.Pos + len(hit.Word)
		if hit.Pos < 0 || end > len(positions) {
			continue
		}
		for i := positions[hit.Pos]; i <= positions[end-1]; i++ {
			masked[i] = m.replacement
		}
		words = append(words, string(hit.Word))
	}
	if len(words) > 0 {
		m.log.Debug("Chat text censored", "words", len(words))
	}
	return string(masked), words
}

// fold lower-cases text, undoes leet speak and drops separators.
// positions[i] is the index in text of the i-th folded rune.
func fold(text string) (folded []rune, positions []int) {
	runes := []rune(text)
	folded = make([]rune, 0, len(runes))
	positions = make([]int, 0, len(runes))
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return folded, positions
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	}
	return r
}
