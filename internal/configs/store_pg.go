package configs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGStore implements Store using Postgres. The stage list is stored as a
// JSONB column; rows are append-only, matching the versioning guarantee.
type PGStore struct {
	DB *sql.DB
}

// Put appends a snapshot. A duplicate (id, version) surfaces the unique
// constraint as ErrVersionExists.
func (s *PGStore) Put(ctx context.Context, cfg Configuration) error {
	if cfg.ID == "" || cfg.Version <= 0 {
		return fmt.Errorf("configuration needs id and positive version")
	}
	stages, err := json.Marshal(cfg.Stages)
	if err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}
	createdAt := cfg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	const query = `
INSERT INTO configurations (id, version, stages, active, created_at)
VALUES ($1, $2, $3, FALSE, $4)`
	if _, err := s.DB.ExecContext(ctx, query, cfg.ID, cfg.Version, stages, createdAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s v%d: %w", cfg.ID, cfg.Version, ErrVersionExists)
		}
		return err
	}
	return nil
}

// Get returns a snapshot by id and version; version <= 0 means latest.
func (s *PGStore) Get(ctx context.Context, id string, version int) (Configuration, error) {
	const query = `
SELECT id, version, stages, active, created_at
FROM configurations
WHERE id = $1 AND ($2 <= 0 OR version = $2)
ORDER BY version DESC
LIMIT 1`
	return s.scanOne(s.DB.QueryRowContext(ctx, query, id, version), fmt.Sprintf("%s v%d", id, version))
}

// GetActive returns the configuration currently marked active.
func (s *PGStore) GetActive(ctx context.Context) (Configuration, error) {
	const query = `
SELECT id, version, stages, active, created_at
FROM configurations
WHERE active
LIMIT 1`
	cfg, err := s.scanOne(s.DB.QueryRowContext(ctx, query), "active")
	if errors.Is(err, ErrConfigNotFound) {
		return Configuration{}, ErrNoActiveConfig
	}
	return cfg, err
}

// Activate flips the active flag to exactly one row, transactionally.
func (s *PGStore) Activate(ctx context.Context, id string, version int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Clear first: a partial unique index allows at most one active row.
	if _, err := tx.ExecContext(ctx, `UPDATE configurations SET active = FALSE WHERE active`); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE configurations SET active = TRUE WHERE id = $1 AND version = $2`, id, version)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s v%d: %w", id, version, ErrConfigNotFound)
	}
	return tx.Commit()
}

func (s *PGStore) scanOne(row *sql.Row, label string) (Configuration, error) {
	var (
		cfg    Configuration
		stages []byte
	)
	if err := row.Scan(&cfg.ID, &cfg.Version, &stages, &cfg.Active, &cfg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Configuration{}, fmt.Errorf("%s: %w", label, ErrConfigNotFound)
		}
		return Configuration{}, err
	}
	if err := json.Unmarshal(stages, &cfg.Stages); err != nil {
		return Configuration{}, fmt.Errorf("decode stages for %s: %w", label, err)
	}
	return cfg, nil
}
