package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register the sqlite driver
)

// SQLiteGateway implements Gateway on an embedded SQLite database, for
// single-process deployments without a Postgres backend.
type SQLiteGateway struct {
	db *sql.DB
}

// OpenSQLiteGateway opens (and if needed initializes) a SQLite database at
// path. WAL mode is enabled so readers do not block the commit transaction.
func OpenSQLiteGateway(ctx context.Context, path string) (*SQLiteGateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteGateway{db: db}, nil
}

// Close closes the underlying database.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	language_code TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL,
	ingested_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL UNIQUE,
	config_id TEXT NOT NULL,
	config_version INTEGER NOT NULL,
	language_code TEXT NOT NULL,
	metrics TEXT NOT NULL,
	status TEXT NOT NULL,
	computed_at TEXT NOT NULL,
	FOREIGN KEY(document_id) REFERENCES documents(id)
);

CREATE TABLE IF NOT EXISTS processing_log (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	duration_us INTEGER NOT NULL,
	at TEXT NOT NULL,
	FOREIGN KEY(document_id) REFERENCES documents(id)
);

CREATE INDEX IF NOT EXISTS idx_processing_log_document ON processing_log(document_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Commit writes the whole batch inside one transaction.
func (g *SQLiteGateway) Commit(ctx context.Context, batch Batch) (string, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return "", classifySQLiteErr(err)
	}
	defer tx.Rollback()

	doc := batch.Document
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, body, language_code, size_bytes, ingested_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Text, doc.LanguageCode, doc.SizeBytes, doc.IngestedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", classifySQLiteErr(err)
	}

	if a := batch.Analysis; a != nil {
		metrics, err := json.Marshal(a.Metrics)
		if err != nil {
			return "", fmt.Errorf("encode metrics: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analyses (id, document_id, config_id, config_version, language_code, metrics, status, computed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.DocumentID, a.ConfigID, a.ConfigVersion, a.LanguageCode, string(metrics), a.Status,
			a.ComputedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return "", classifySQLiteErr(err)
		}
	}

	for _, e := range batch.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processing_log (id, document_id, stage, outcome, reason, duration_us, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.DocumentID, e.Stage, e.Outcome, e.Reason, e.Duration.Microseconds(), e.At.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return "", classifySQLiteErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", classifySQLiteErr(err)
	}
	return uuid.NewString(), nil
}

// GetAnalysis reads back a committed analysis by id.
func (g *SQLiteGateway) GetAnalysis(ctx context.Context, analysisID string) (Analysis, error) {
	var (
		a          Analysis
		metrics    string
		computedAt string
	)
	err := g.db.QueryRowContext(ctx,
		`SELECT id, document_id, config_id, config_version, language_code, metrics, status, computed_at
		 FROM analyses WHERE id = ? LIMIT 1`, analysisID,
	).Scan(&a.ID, &a.DocumentID, &a.ConfigID, &a.ConfigVersion, &a.LanguageCode, &metrics, &a.Status, &computedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, classifySQLiteErr(err)
	}
	if metrics != "" {
		if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
			return Analysis{}, fmt.Errorf("decode metrics for %s: %w", analysisID, err)
		}
	}
	if a.ComputedAt, err = time.Parse(time.RFC3339Nano, computedAt); err != nil {
		return Analysis{}, fmt.Errorf("decode computed_at for %s: %w", analysisID, err)
	}
	return a, nil
}

func classifySQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"):
		return fmt.Errorf("%v: %w", err, ErrConflict)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "busy"),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	return err
}
