package stages

import (
	"unicode"

	"doclex-backend/internal/languages"
)

// RuleFlags runs language-specific pattern checks and emits boolean or
// categorical outputs rather than counts:
//
//   - mixed_language / contaminant_language: the share of tokens that are
//     stop-words of some other registered language but not of the document's
//     own language, flagged above contamination_threshold;
//   - high_symbol_content: non-letter rune share above symbol_threshold;
//   - missing_diacritics: the profile folds diacritics but the raw text
//     carries none at all, a hint that the document lost its accents.
func RuleFlags(in Input, p Params) (map[string]any, error) {
	if len(in.Tokens) == 0 {
		return nil, ErrEmptyDocument
	}

	contaminationThreshold := p.float("contamination_threshold", 0.25)
	symbolThreshold := p.float("symbol_threshold", 0.30)

	contaminant, foreignRatio := worstContaminant(in)
	mixed := contaminant != "" && foreignRatio >= contaminationThreshold
	if !mixed {
		contaminant = ""
	}

	symbolRatio := nonLetterRatio(in.Text)

	return map[string]any{
		"mixed_language":         mixed,
		"contaminant_language":   contaminant,
		"foreign_stopword_ratio": foreignRatio,
		"non_letter_ratio":       symbolRatio,
		"high_symbol_content":    symbolRatio >= symbolThreshold,
		"missing_diacritics":     in.Profile.FoldDiacritics && !hasDiacritics(in.Text),
	}, nil
}

// worstContaminant returns the foreign language whose exclusive stop-words
// cover the largest share of the token stream.
func worstContaminant(in Input) (code string, ratio float64) {
	for _, other := range in.Others {
		if other.Code == in.Profile.Code {
			continue
		}
		hits := 0
		for _, tok := range in.Tokens {
			probe := tok
			if other.FoldDiacritics {
				probe = languages.FoldDiacritics(tok)
			}
			if other.IsStopword(probe) && !in.Profile.IsStopword(tok) {
				hits++
			}
		}
		r := float64(hits) / float64(len(in.Tokens))
		if r > ratio {
			ratio = r
			code = other.Code
		}
	}
	return code, ratio
}

func nonLetterRatio(text string) float64 {
	var total, nonLetter int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if !unicode.IsLetter(r) {
			nonLetter++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nonLetter) / float64(total)
}

func hasDiacritics(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && languages.FoldDiacritics(string(r)) != string(r) {
			return true
		}
	}
	return false
}
