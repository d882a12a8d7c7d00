package diary

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// wordPattern matches candidate name tokens: letter runs with optional
// apostrophes or hyphens inside.
var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z'\-]*`)

// Replacer substitutes real-world names in diary text with their in-game
// equivalents before the text reaches the LLM.
//
// Substitution runs in two stages:
//
//  1. Exact replacement: every mapped real name is replaced on word
//     boundaries, case-insensitively, longest names first so multi-word
//     names win over their own substrings.
//  2. Fuzzy replacement: remaining capitalised tokens are compared against
//     the real names by Double Metaphone code overlap ranked with
//     Jaro-Winkler, so misspellings ("Micheal") still map. A phonetic
//     candidate is accepted at the phonetic threshold; without phonetic
//     overlap a higher pure Jaro-Winkler threshold applies.
//
// A Replacer is read-only after construction and safe for concurrent use.
type Replacer struct {
	mappings          []character.NameMapping
	exact             []*regexp.Regexp
	gameNames         map[string]struct{}
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// ReplacerOption is a functional option for [NewReplacer].
type ReplacerOption func(*Replacer)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically matched name. Default: 0.70.
func WithPhoneticThreshold(threshold float64) ReplacerOption {
	return func(r *Replacer) { r.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score when no phonetic
// overlap exists. Default: 0.85.
func WithFuzzyThreshold(threshold float64) ReplacerOption {
	return func(r *Replacer) { r.fuzzyThreshold = threshold }
}

// NewReplacer builds a [Replacer] for the given mappings.
func NewReplacer(mappings []character.NameMapping, opts ...ReplacerOption) *Replacer {
	r := &Replacer{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
		gameNames:         make(map[string]struct{}, len(mappings)),
	}
	for _, o := range opts {
		o(r)
	}

	// Longest real names first so "Mary Ann" is replaced before "Mary".
	r.mappings = make([]character.NameMapping, len(mappings))
	copy(r.mappings, mappings)
	for i := 1; i < len(r.mappings); i++ {
		for j := i; j > 0 && len(r.mappings[j].RealName) > len(r.mappings[j-1].RealName); j-- {
			r.mappings[j], r.mappings[j-1] = r.mappings[j-1], r.mappings[j]
		}
	}

	r.exact = make([]*regexp.Regexp, len(r.mappings))
	for i, m := range r.mappings {
		r.exact[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(m.RealName) + `\b`)
		// Every word of a game name is excluded from the fuzzy pass, so a
		// substitution from the exact pass is never substituted again.
		for _, w := range strings.Fields(m.GameName) {
			r.gameNames[strings.ToLower(w)] = struct{}{}
		}
	}
	return r
}

// Apply returns text with every mapped real name replaced by its game name.
// Text without matches is returned unchanged.
func (r *Replacer) Apply(text string) string {
	if len(r.mappings) == 0 || text == "" {
		return text
	}

	for i, m := range r.mappings {
		text = r.exact[i].ReplaceAllString(text, m.GameName)
	}

	return wordPattern.ReplaceAllStringFunc(text, func(token string) string {
		// Only capitalised tokens are name candidates; this keeps ordinary
		// prose words from phonetically colliding with short names.
		if token[0] < 'A' || token[0] > 'Z' {
			return token
		}
		lower := strings.ToLower(token)
		// Tokens already in game-name form are left alone.
		if _, ok := r.gameNames[lower]; ok {
			return token
		}
		if game, ok := r.fuzzyMatch(lower); ok {
			return game
		}
		return token
	})
}

// fuzzyMatch finds the mapping whose real name best matches token, using
// Double Metaphone overlap ranked by Jaro-Winkler, with a pure Jaro-Winkler
// fallback at the stricter fuzzy threshold.
func (r *Replacer) fuzzyMatch(token string) (string, bool) {
	tokenPrimary, tokenSecondary := matchr.DoubleMetaphone(token)

	var (
		bestGame     string
		bestScore    float64
		bestPhonetic bool
	)

	for _, m := range r.mappings {
		real := strings.ToLower(m.RealName)
		// Multi-word real names are handled by the exact pass only.
		if strings.ContainsRune(real, ' ') {
			continue
		}

		realPrimary, realSecondary := matchr.DoubleMetaphone(real)
		phonetic := codesOverlap(tokenPrimary, tokenSecondary, realPrimary, realSecondary)
		score := matchr.JaroWinkler(token, real, false)

		switch {
		case phonetic && score >= r.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				bestGame, bestScore, bestPhonetic = m.GameName, score, true
			}
		case !phonetic && !bestPhonetic && score >= r.fuzzyThreshold && score > bestScore:
			bestGame, bestScore = m.GameName, score
		}
	}

	return bestGame, bestGame != ""
}

// codesOverlap reports whether any non-empty Double Metaphone code is shared
// between the two words.
func codesOverlap(aPrimary, aSecondary, bPrimary, bSecondary string) bool {
	for _, a := range []string{aPrimary, aSecondary} {
		if a == "" {
			continue
		}
		if a == bPrimary || (bSecondary != "" && a == bSecondary) {
			return true
		}
	}
	return false
}
