package languages

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoLanguages         = errors.New("no languages registered")
)

// DefaultMinConfidence is the detection score floor applied when Options
// leaves MinConfidence unset.
const DefaultMinConfidence = 0.15

// Options tunes registry behavior. Thresholds live here rather than in the
// resolver so deployments can adjust them without code changes.
type Options struct {
	// MinConfidence is the minimum stop-word overlap score a language must
	// reach for heuristic detection to accept it. Zero means DefaultMinConfidence.
	MinConfidence float64
}

type snapshot struct {
	byCode        map[string]Profile
	order         []string
	minConfidence float64
}

// Registry resolves language hints and detects languages from sample text.
// Reads never block: the language table is an immutable snapshot swapped
// atomically by Replace, so in-flight analyses keep the profiles they
// started with.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry builds a registry over the given languages. Registration
// order is preserved and breaks detection-score ties.
func NewRegistry(opts Options, langs ...Language) (*Registry, error) {
	snap, err := buildSnapshot(opts, langs)
	if err != nil {
		return nil, err
	}
	r := &Registry{}
	r.snap.Store(snap)
	return r, nil
}

// Replace swaps the whole language table in one step. Analyses already
// holding a Profile are unaffected.
func (r *Registry) Replace(opts Options, langs ...Language) error {
	snap, err := buildSnapshot(opts, langs)
	if err != nil {
		return err
	}
	r.snap.Store(snap)
	return nil
}

func buildSnapshot(opts Options, langs []Language) (*snapshot, error) {
	if len(langs) == 0 {
		return nil, ErrNoLanguages
	}
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	snap := &snapshot{
		byCode:        make(map[string]Profile, len(langs)),
		order:         make([]string, 0, len(langs)),
		minConfidence: minConfidence,
	}
	for _, lang := range langs {
		code := strings.ToLower(strings.TrimSpace(lang.Code))
		if code == "" {
			return nil, fmt.Errorf("language %q: empty code", lang.Name)
		}
		if _, dup := snap.byCode[code]; dup {
			return nil, fmt.Errorf("language %q: duplicate code", code)
		}
		switch lang.Tokenizer {
		case "", TokenizerUnicode, TokenizerWhitespace:
		default:
			return nil, fmt.Errorf("language %q: unknown tokenizer %q", code, lang.Tokenizer)
		}
		lang.Code = code
		snap.byCode[code] = newProfile(lang)
		snap.order = append(snap.order, code)
	}
	return snap, nil
}

// Profile returns the profile for an exact language code.
func (r *Registry) Profile(code string) (Profile, bool) {
	snap := r.snap.Load()
	p, ok := snap.byCode[strings.ToLower(strings.TrimSpace(code))]
	return p, ok
}

// Profiles returns all registered profiles in registration order.
func (r *Registry) Profiles() []Profile {
	snap := r.snap.Load()
	out := make([]Profile, 0, len(snap.order))
	for _, code := range snap.order {
		out = append(out, snap.byCode[code])
	}
	return out
}

// Resolve returns the profile for hint when the hint names a registered
// language, and otherwise detects the language of sample by stop-word
// overlap scoring. Resolution is deterministic: the same hint and sample
// always yield the same profile.
func (r *Registry) Resolve(hint, sample string) (Profile, error) {
	snap := r.snap.Load()
	if hint = strings.ToLower(strings.TrimSpace(hint)); hint != "" {
		if p, ok := snap.byCode[hint]; ok {
			return p, nil
		}
	}
	return detect(snap, sample)
}

func detect(snap *snapshot, sample string) (Profile, error) {
	tokens := detectionTokens(sample)
	if len(tokens) == 0 {
		return Profile{}, fmt.Errorf("empty sample: %w", ErrUnsupportedLanguage)
	}

	var (
		best      Profile
		bestScore = -1.0
	)
	for _, code := range snap.order {
		p := snap.byCode[code]
		score := overlapScore(p, tokens)
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	if bestScore < snap.minConfidence {
		return Profile{}, fmt.Errorf("best candidate %q scored %.3f: %w", best.Code, bestScore, ErrUnsupportedLanguage)
	}
	return best, nil
}

// overlapScore is the share of sample tokens that are stop-words of the
// candidate language. Stop-words are the most frequent words of a language,
// so genuine text in that language scores high while foreign text scores
// near zero.
func overlapScore(p Profile, tokens []string) float64 {
	hits := 0
	for _, tok := range tokens {
		if p.FoldDiacritics {
			tok = FoldDiacritics(tok)
		}
		if p.IsStopword(tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// detectionTokens lowercases and splits on non-letter runes. Detection uses
// its own splitter on purpose: it must behave identically for every
// candidate language regardless of tokenizer variant.
func detectionTokens(sample string) []string {
	lowered := strings.ToLower(sample)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
