package stages

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"doclex-backend/internal/languages"
)

// Tokenize splits text into normalized tokens using the profile's rules:
// lowercasing, optional diacritic folding, and the profile's splitting
// variant. The min_token_length parameter drops short fragments.
// It fails with ErrInvalidEncoding on malformed UTF-8 and with
// ErrEmptyDocument when no token survives.
func Tokenize(text string, profile languages.Profile, p Params) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidEncoding
	}

	minLen := p.integer("min_token_length", 1)
	if minLen < 1 {
		minLen = 1
	}

	var tokens []string
	switch profile.Tokenizer {
	case languages.TokenizerWhitespace:
		tokens = whitespaceTokens(text)
	default:
		tokens = unicodeTokens(text)
	}

	out := tokens[:0]
	for _, tok := range tokens {
		if profile.FoldDiacritics {
			tok = languages.FoldDiacritics(tok)
		}
		if utf8.RuneCountInString(tok) < minLen {
			continue
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no tokens in %d bytes of text: %w", len(text), ErrEmptyDocument)
	}
	return out, nil
}

// TokenizationMetrics is the registry-facing wrapper: by the time stages
// run, the orchestrator has already tokenized, so this only reports counts.
func TokenizationMetrics(in Input, p Params) (map[string]any, error) {
	if len(in.Tokens) == 0 {
		return nil, ErrEmptyDocument
	}
	return map[string]any{
		"token_count": float64(len(in.Tokens)),
	}, nil
}

// unicodeTokens walks runes and keeps letter/digit runs, treating inner
// hyphens as part of the token ("utf-8", "co-op").
func unicodeTokens(text string) []string {
	var (
		tokens  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := strings.Trim(current.String(), "-")
		if tok != "" {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// whitespaceTokens splits on whitespace and strips edge punctuation,
// keeping inner punctuation intact ("don't", "3.14").
func whitespaceTokens(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(strings.ToLower(f), func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
