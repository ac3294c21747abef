package analyses

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGGateway implements Gateway on Postgres. One Commit is one transaction;
// the transaction is opened only here, after all stages have computed
// (compute-then-commit, keeping lock hold time minimal).
type PGGateway struct {
	DB *sql.DB
}

// Commit writes the document, the optional analysis, and every log entry
// inside a single transaction.
func (g *PGGateway) Commit(ctx context.Context, batch Batch) (string, error) {
	tx, err := g.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", classifyStorageErr(err)
	}
	defer tx.Rollback()

	doc := batch.Document
	const docQuery = `
INSERT INTO documents (id, body, language_code, size_bytes, ingested_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, docQuery, doc.ID, doc.Text, doc.LanguageCode, doc.SizeBytes, doc.IngestedAt); err != nil {
		return "", classifyStorageErr(err)
	}

	if a := batch.Analysis; a != nil {
		metrics, err := json.Marshal(a.Metrics)
		if err != nil {
			return "", fmt.Errorf("encode metrics: %w", err)
		}
		const analysisQuery = `
INSERT INTO analyses (id, document_id, config_id, config_version, language_code, metrics, status, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := tx.ExecContext(ctx, analysisQuery,
			a.ID, a.DocumentID, a.ConfigID, a.ConfigVersion, a.LanguageCode, metrics, a.Status, a.ComputedAt,
		); err != nil {
			return "", classifyStorageErr(err)
		}
	}

	const entryQuery = `
INSERT INTO processing_log (id, document_id, stage, outcome, reason, duration_us, at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, e := range batch.Entries {
		if _, err := tx.ExecContext(ctx, entryQuery,
			e.ID, e.DocumentID, e.Stage, e.Outcome, e.Reason, e.Duration.Microseconds(), e.At,
		); err != nil {
			return "", classifyStorageErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", classifyStorageErr(err)
	}
	return uuid.NewString(), nil
}

// GetAnalysis reads back a committed analysis by id.
func (g *PGGateway) GetAnalysis(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT id, document_id, config_id, config_version, language_code, metrics, status, computed_at
FROM analyses
WHERE id = $1
LIMIT 1`
	var (
		a       Analysis
		metrics []byte
	)
	err := g.DB.QueryRowContext(ctx, query, analysisID).Scan(
		&a.ID, &a.DocumentID, &a.ConfigID, &a.ConfigVersion, &a.LanguageCode, &metrics, &a.Status, &a.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, classifyStorageErr(err)
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &a.Metrics); err != nil {
			return Analysis{}, fmt.Errorf("decode metrics for %s: %w", analysisID, err)
		}
	}
	return a, nil
}

// classifyStorageErr maps backend failures onto the gateway's error
// contract: uniqueness violations become ErrConflict, transient faults
// (timeouts, dropped connections) become ErrUnavailable.
func classifyStorageErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrConflict)
		case "40001", "40P01":
			// serialization failure / deadlock: the same batch can be retried
			return fmt.Errorf("%s: %w", pgErr.Code, ErrUnavailable)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "timeout") {
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	return err
}
