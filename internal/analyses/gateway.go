package analyses

import (
	"context"

	"doclex-backend/internal/documents"
)

// Batch is the unit of durability for one pipeline run: the document, its
// analysis, and every processing log entry, committed together or not at
// all. Analysis is nil only on the language-resolution-failure path, which
// persists the document and its failed log entry without a result.
type Batch struct {
	Document documents.Document
	Analysis *Analysis
	Entries  []ProcessingLogEntry
}

// Gateway is the transactional boundary to durable storage. Commit is
// all-or-nothing: on error, none of the batch is visible. Errors are
// ErrConflict for uniqueness violations and ErrUnavailable for transient
// backend failures; both may be retried with the same batch, since the
// records are already computed.
type Gateway interface {
	Commit(ctx context.Context, batch Batch) (commitID string, err error)
}
