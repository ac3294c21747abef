package analyses

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"doclex-backend/internal/documents"
)

// MemoryGateway stores committed batches in memory and is safe for
// concurrent use. Intended for tests and embedders without a database.
type MemoryGateway struct {
	mu        sync.RWMutex
	docs      map[string]documents.Document
	analyses  map[string]Analysis
	byDoc     map[string]string // document id -> analysis id
	entries   map[string][]ProcessingLogEntry
	nextError error
}

// NewMemoryGateway constructs an empty MemoryGateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		docs:     make(map[string]documents.Document),
		analyses: make(map[string]Analysis),
		byDoc:    make(map[string]string),
		entries:  make(map[string][]ProcessingLogEntry),
	}
}

// FailNextCommit makes the next Commit fail with err, storing nothing.
func (g *MemoryGateway) FailNextCommit(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextError = err
}

// Commit stores the whole batch, or nothing when a failure is injected or
// the document id already exists.
func (g *MemoryGateway) Commit(ctx context.Context, batch Batch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nextError != nil {
		err := g.nextError
		g.nextError = nil
		return "", err
	}
	if _, exists := g.docs[batch.Document.ID]; exists {
		return "", ErrConflict
	}

	g.docs[batch.Document.ID] = batch.Document
	if batch.Analysis != nil {
		g.analyses[batch.Analysis.ID] = *batch.Analysis
		g.byDoc[batch.Document.ID] = batch.Analysis.ID
	}
	stored := make([]ProcessingLogEntry, len(batch.Entries))
	copy(stored, batch.Entries)
	g.entries[batch.Document.ID] = stored

	return uuid.NewString(), nil
}

// Document returns a committed document.
func (g *MemoryGateway) Document(id string) (documents.Document, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	doc, ok := g.docs[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	return doc, nil
}

// Analysis returns a committed analysis.
func (g *MemoryGateway) Analysis(id string) (Analysis, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	a, ok := g.analyses[id]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// AnalysisByDocument returns the analysis committed for a document.
func (g *MemoryGateway) AnalysisByDocument(documentID string) (Analysis, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byDoc[documentID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return g.analyses[id], nil
}

// Entries returns the committed log entries for a document in stored order.
func (g *MemoryGateway) Entries(documentID string) []ProcessingLogEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	entries := g.entries[documentID]
	out := make([]ProcessingLogEntry, len(entries))
	copy(out, entries)
	return out
}

// Counts reports how many documents, analyses and log entries are stored.
func (g *MemoryGateway) Counts() (docs, analyses, entries int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.entries {
		entries += len(e)
	}
	return len(g.docs), len(g.analyses), entries
}
