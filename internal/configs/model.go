package configs

import "time"

// StageSetting is one entry of a configuration's ordered stage list.
type StageSetting struct {
	Name    string         `json:"name" yaml:"name"`
	Enabled bool           `json:"enabled" yaml:"enabled"`
	Params  map[string]any `json:"params,omitempty" yaml:"params"`
}

// Configuration is an immutable, versioned stage plan. An Analysis records
// the (ID, Version) pair that produced it, and stores never overwrite a
// version, so historical results stay reproducible.
type Configuration struct {
	ID        string         `json:"id" yaml:"id"`
	Version   int            `json:"version" yaml:"version"`
	Stages    []StageSetting `json:"stages" yaml:"stages"`
	Active    bool           `json:"active" yaml:"active"`
	CreatedAt time.Time      `json:"createdAt" yaml:"-"`
}

// Clone returns a deep copy so callers can never mutate a stored snapshot
// through shared stage or parameter maps.
func (c Configuration) Clone() Configuration {
	out := c
	out.Stages = make([]StageSetting, len(c.Stages))
	for i, s := range c.Stages {
		cp := s
		if s.Params != nil {
			cp.Params = make(map[string]any, len(s.Params))
			for k, v := range s.Params {
				cp.Params[k] = v
			}
		}
		out.Stages[i] = cp
	}
	return out
}

// Default returns the stock configuration with every canonical stage
// enabled, for embedders that run without a populated store.
func Default() Configuration {
	return Configuration{
		ID:      "default",
		Version: 1,
		Stages: []StageSetting{
			{Name: "tokenization", Enabled: true},
			{Name: "frequency", Enabled: true},
			{Name: "complexity", Enabled: true},
			{Name: "ruleflags", Enabled: true},
		},
		Active: true,
	}
}
