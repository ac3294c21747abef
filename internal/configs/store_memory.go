package configs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type versionKey struct {
	id      string
	version int
}

// MemoryStore keeps configurations in memory and is safe for concurrent
// use. Reads hand out deep copies.
type MemoryStore struct {
	mu     sync.RWMutex
	byKey  map[versionKey]Configuration
	latest map[string]int
	active versionKey
	hasAct bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:  make(map[versionKey]Configuration),
		latest: make(map[string]int),
	}
}

// Seed builds a store pre-populated with the given snapshots; the last one
// flagged Active wins the active pointer.
func Seed(cfgs ...Configuration) (*MemoryStore, error) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, cfg := range cfgs {
		if err := s.Put(ctx, cfg); err != nil {
			return nil, err
		}
		if cfg.Active {
			if err := s.Activate(ctx, cfg.ID, cfg.Version); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Put appends a snapshot. Existing (id, version) pairs are never replaced.
func (s *MemoryStore) Put(ctx context.Context, cfg Configuration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.ID == "" || cfg.Version <= 0 {
		return fmt.Errorf("configuration needs id and positive version")
	}
	key := versionKey{id: cfg.ID, version: cfg.Version}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKey[key]; exists {
		return fmt.Errorf("%s v%d: %w", cfg.ID, cfg.Version, ErrVersionExists)
	}
	stored := cfg.Clone()
	stored.Active = false
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.byKey[key] = stored
	if cfg.Version > s.latest[cfg.ID] {
		s.latest[cfg.ID] = cfg.Version
	}
	return nil
}

// Get returns a snapshot by id and version; version <= 0 means latest.
func (s *MemoryStore) Get(ctx context.Context, id string, version int) (Configuration, error) {
	if err := ctx.Err(); err != nil {
		return Configuration{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if version <= 0 {
		latest, ok := s.latest[id]
		if !ok {
			return Configuration{}, fmt.Errorf("%s: %w", id, ErrConfigNotFound)
		}
		version = latest
	}
	cfg, ok := s.byKey[versionKey{id: id, version: version}]
	if !ok {
		return Configuration{}, fmt.Errorf("%s v%d: %w", id, version, ErrConfigNotFound)
	}
	out := cfg.Clone()
	out.Active = s.hasAct && s.active.id == id && s.active.version == version
	return out, nil
}

// GetActive returns the configuration currently marked active.
func (s *MemoryStore) GetActive(ctx context.Context) (Configuration, error) {
	if err := ctx.Err(); err != nil {
		return Configuration{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasAct {
		return Configuration{}, ErrNoActiveConfig
	}
	cfg, ok := s.byKey[s.active]
	if !ok {
		return Configuration{}, ErrNoActiveConfig
	}
	out := cfg.Clone()
	out.Active = true
	return out, nil
}

// Activate points the active marker at one stored snapshot.
func (s *MemoryStore) Activate(ctx context.Context, id string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := versionKey{id: id, version: version}
	if _, ok := s.byKey[key]; !ok {
		return fmt.Errorf("%s v%d: %w", id, version, ErrConfigNotFound)
	}
	s.active = key
	s.hasAct = true
	return nil
}
