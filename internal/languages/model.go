package languages

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TokenizerVariant selects how a language splits text into tokens.
type TokenizerVariant string

const (
	TokenizerUnicode    TokenizerVariant = "unicode"
	TokenizerWhitespace TokenizerVariant = "whitespace"
)

// Language is a registered language as supplied by an administrator.
type Language struct {
	Code           string           `yaml:"code"`
	Name           string           `yaml:"name"`
	Stopwords      []string         `yaml:"stopwords"`
	Tokenizer      TokenizerVariant `yaml:"tokenizer"`
	FoldDiacritics bool             `yaml:"fold_diacritics"`
}

// Profile is the immutable rule set the pipeline consumes for one language.
// Profiles are value types; once built they are never mutated, so they may
// be shared freely across concurrent analysis runs.
type Profile struct {
	Code           string
	Name           string
	Tokenizer      TokenizerVariant
	FoldDiacritics bool

	stopwords map[string]struct{}
}

func newProfile(lang Language) Profile {
	stops := make(map[string]struct{}, len(lang.Stopwords))
	for _, w := range lang.Stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if lang.FoldDiacritics {
			w = FoldDiacritics(w)
		}
		if w != "" {
			stops[w] = struct{}{}
		}
	}
	variant := lang.Tokenizer
	if variant == "" {
		variant = TokenizerUnicode
	}
	return Profile{
		Code:           lang.Code,
		Name:           lang.Name,
		Tokenizer:      variant,
		FoldDiacritics: lang.FoldDiacritics,
		stopwords:      stops,
	}
}

// IsStopword reports whether the lowercased token is a stop-word of this
// language. Callers are expected to pass tokens already normalized the way
// the profile's tokenizer produces them.
func (p Profile) IsStopword(token string) bool {
	_, ok := p.stopwords[token]
	return ok
}

// StopwordCount returns the size of the stop-word set.
func (p Profile) StopwordCount() int {
	return len(p.stopwords)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics strips combining marks: "análisis" becomes "analisis".
func FoldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
