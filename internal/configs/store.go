package configs

import (
	"context"
	"errors"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrNoActiveConfig = errors.New("no active configuration")
	ErrVersionExists  = errors.New("configuration version already exists")
)

// Store defines persistence operations for analysis configurations.
// Versions are append-only: Put never overwrites, and snapshots referenced
// by a past analysis remain retrievable by (id, version) indefinitely.
type Store interface {
	// Get returns the snapshot for id at the given version. Version <= 0
	// means the latest version of id.
	Get(ctx context.Context, id string, version int) (Configuration, error)
	// GetActive returns the configuration currently marked active.
	GetActive(ctx context.Context) (Configuration, error)
	// Put appends a new (id, version) snapshot.
	Put(ctx context.Context, cfg Configuration) error
	// Activate marks one (id, version) active and deactivates the rest.
	Activate(ctx context.Context, id string, version int) error
}
