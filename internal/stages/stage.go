// Package stages holds the pure lexical computations of the analysis
// pipeline. A stage takes text plus a language profile and parameters and
// returns a metrics map; stages never perform I/O and share no state, so
// the same input always produces the same metrics.
package stages

import (
	"errors"
	"fmt"

	"doclex-backend/internal/languages"
)

const (
	StageTokenization = "tokenization"
	StageFrequency    = "frequency"
	StageComplexity   = "complexity"
	StageRuleFlags    = "ruleflags"
)

var (
	ErrEmptyDocument   = errors.New("empty document")
	ErrInvalidEncoding = errors.New("invalid text encoding")
	ErrUnknownStage    = errors.New("unknown stage")
)

// Input carries everything a stage may read. Tokens are the output of the
// tokenization precondition; token-dependent stages must not re-split the
// text themselves so that all stages agree on one token stream.
type Input struct {
	Text    string
	Profile languages.Profile
	// Others holds the remaining registered profiles, used by contamination
	// checks. May be empty.
	Others []languages.Profile
	Tokens []string
}

// Params are the per-stage parameters from the configuration snapshot.
// Values decoded from JSON arrive as float64/string/bool.
type Params map[string]any

// Func is one pure stage computation.
type Func func(in Input, p Params) (map[string]any, error)

// Registry maps stage names to their implementations.
type Registry struct {
	byName map[string]Func
}

// NewRegistry builds an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Func)}
}

// Register adds or replaces a named stage.
func (r *Registry) Register(name string, fn Func) {
	r.byName[name] = fn
}

// Get looks up a stage implementation.
func (r *Registry) Get(name string) (Func, error) {
	fn, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("stage %q: %w", name, ErrUnknownStage)
	}
	return fn, nil
}

// DefaultRegistry returns the canonical stage set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(StageTokenization, TokenizationMetrics)
	r.Register(StageFrequency, Frequency)
	r.Register(StageComplexity, Complexity)
	r.Register(StageRuleFlags, RuleFlags)
	return r
}

// DependsOnTokens reports whether a stage needs the token stream. Such
// stages are skipped, not failed, when tokenization itself fails.
func DependsOnTokens(name string) bool {
	switch name {
	case StageFrequency, StageComplexity, StageRuleFlags:
		return true
	}
	return false
}

func (p Params) float(key string, def float64) float64 {
	raw, ok := p[key]
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func (p Params) integer(key string, def int) int {
	return int(p.float(key, float64(def)))
}
