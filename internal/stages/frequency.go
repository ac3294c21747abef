package stages

import (
	"sort"
)

// Frequency computes token/type counts and the type-token ratio, plus the
// hapax count and the top_terms most frequent terms.
func Frequency(in Input, p Params) (map[string]any, error) {
	if len(in.Tokens) == 0 {
		return nil, ErrEmptyDocument
	}

	counts := make(map[string]int, len(in.Tokens))
	for _, tok := range in.Tokens {
		counts[tok]++
	}

	hapaxes := 0
	for _, n := range counts {
		if n == 1 {
			hapaxes++
		}
	}

	topK := p.integer("top_terms", 5)
	if topK < 0 {
		topK = 0
	}

	return map[string]any{
		"token_count":      float64(len(in.Tokens)),
		"type_count":       float64(len(counts)),
		"type_token_ratio": float64(len(counts)) / float64(len(in.Tokens)),
		"hapax_count":      float64(hapaxes),
		"top_terms":        topTerms(counts, topK),
	}, nil
}

// topTerms orders by descending count, then term, so the output is stable
// for identical input.
func topTerms(counts map[string]int, k int) []map[string]any {
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if k < len(terms) {
		terms = terms[:k]
	}

	out := make([]map[string]any, 0, len(terms))
	for _, term := range terms {
		out = append(out, map[string]any{
			"term":  term,
			"count": float64(counts[term]),
		})
	}
	return out
}
