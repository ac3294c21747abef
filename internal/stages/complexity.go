package stages

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Complexity computes structural metrics: average token length, sentence
// count, lexical density (content tokens over all tokens, judged against
// the language's stop-word set) and the Shannon entropy of the token
// distribution in bits.
func Complexity(in Input, p Params) (map[string]any, error) {
	if len(in.Tokens) == 0 {
		return nil, ErrEmptyDocument
	}

	var runeTotal int
	content := 0
	counts := make(map[string]int, len(in.Tokens))
	for _, tok := range in.Tokens {
		runeTotal += utf8.RuneCountInString(tok)
		if !in.Profile.IsStopword(tok) {
			content++
		}
		counts[tok]++
	}

	return map[string]any{
		"avg_token_length": float64(runeTotal) / float64(len(in.Tokens)),
		"sentence_count":   float64(sentenceCount(in.Text)),
		"lexical_density":  float64(content) / float64(len(in.Tokens)),
		"token_entropy":    tokenEntropy(counts, len(in.Tokens)),
	}, nil
}

// tokenEntropy is Shannon entropy over the token frequency distribution,
// log base 2.
func tokenEntropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, n := range counts {
		if n > 0 {
			p := float64(n) / float64(total)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// sentenceCount counts terminator runs. Text without any terminator counts
// as a single sentence.
func sentenceCount(text string) int {
	count := 0
	inRun := false
	for _, r := range text {
		switch r {
		case '.', '!', '?', '…':
			if !inRun {
				count++
				inRun = true
			}
		default:
			inRun = false
		}
	}
	if count == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	return count
}
