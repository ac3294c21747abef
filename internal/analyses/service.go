package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"doclex-backend/internal/configs"
	"doclex-backend/internal/documents"
	"doclex-backend/internal/extract"
	"doclex-backend/internal/languages"
	"doclex-backend/internal/shared/metrics"
	"doclex-backend/internal/shared/telemetry"
	"doclex-backend/internal/stages"
)

const commitRetryBaseDelay = 200 * time.Millisecond

// Service orchestrates one analysis run: resolve language and
// configuration, execute the configured stages in order, and commit the
// document, analysis and processing log as a single unit. The service is
// stateless; concurrent Analyze calls share nothing mutable.
type Service struct {
	Languages *languages.Registry
	Configs   configs.Store
	Stages    *stages.Registry
	Gateway   Gateway

	// MaxDocumentBytes rejects oversized input before any stage runs.
	// Zero means no bound.
	MaxDocumentBytes int64
	// CommitAttempts bounds retries of a commit that failed with
	// ErrUnavailable. Zero means 3.
	CommitAttempts int
}

// AnalyzeRequest carries one document through the pipeline.
type AnalyzeRequest struct {
	Text string
	// LanguageHint is an optional language code; unknown hints fall back
	// to detection.
	LanguageHint string
	// ConfigID selects an explicit configuration; empty means the active
	// one. ConfigVersion <= 0 means the latest version of ConfigID.
	ConfigID      string
	ConfigVersion int
}

// AnalyzeResult is the outcome of one run. On the language-resolution
// failure path Analysis is nil but Document, Entries and CommitID are
// populated, so callers still receive the audit trail reference.
type AnalyzeResult struct {
	Document documents.Document
	Analysis *Analysis
	Entries  []ProcessingLogEntry
	CommitID string
}

// Analyze runs the whole pipeline for one document.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	startedAt := time.Now().UTC()
	metrics.IncRunStarted()

	if strings.TrimSpace(req.Text) == "" {
		return AnalyzeResult{}, s.reject(fmt.Errorf("document text: %w", stages.ErrEmptyDocument))
	}
	if s.MaxDocumentBytes > 0 && int64(len(req.Text)) > s.MaxDocumentBytes {
		return AnalyzeResult{}, s.reject(fmt.Errorf("document is %d bytes, bound is %d: %w",
			len(req.Text), s.MaxDocumentBytes, ErrDocumentTooLarge))
	}

	profile, resolveErr := s.Languages.Resolve(req.LanguageHint, req.Text)
	if resolveErr != nil {
		return s.commitResolutionFailure(ctx, req, startedAt, resolveErr)
	}

	cfg, err := s.resolveConfig(ctx, req)
	if err != nil {
		metrics.IncRunFailed()
		return AnalyzeResult{}, err
	}

	doc := documents.Document{
		ID:           uuid.NewString(),
		Text:         req.Text,
		LanguageCode: profile.Code,
		SizeBytes:    int64(len(req.Text)),
		IngestedAt:   startedAt,
	}

	analysis, entries := s.runStages(doc, profile, cfg)

	result := AnalyzeResult{Document: doc, Analysis: &analysis, Entries: entries}
	commitID, err := s.commit(ctx, Batch{Document: doc, Analysis: &analysis, Entries: entries})
	if err != nil {
		metrics.IncRunFailed()
		telemetry.Error("analysis.commit", map[string]any{
			"document_id": doc.ID,
			"error":       sanitizeError(err),
			"error_code":  CodeFor(err),
		})
		return AnalyzeResult{}, err
	}
	result.CommitID = commitID

	s.observeOutcome(analysis.Status, startedAt)
	telemetry.Info("analysis.completed", map[string]any{
		"document_id":    doc.ID,
		"analysis_id":    analysis.ID,
		"language":       profile.Code,
		"config_id":      cfg.ID,
		"config_version": cfg.Version,
		"status":         analysis.Status,
		"stages":         len(entries),
		"duration_ms":    durationMs(startedAt),
	})
	return result, nil
}

// AnalyzeBytes extracts text from an uploaded payload (UTF-8 text or PDF)
// and analyzes it. The request's Text field is ignored.
func (s *Service) AnalyzeBytes(ctx context.Context, data []byte, mimeType, fileName string, req AnalyzeRequest) (AnalyzeResult, error) {
	text, err := extract.Text(data, mimeType, fileName)
	if err != nil {
		metrics.IncRunStarted()
		metrics.IncRunFailed()
		return AnalyzeResult{}, fmt.Errorf("extract %s: %w", fileName, err)
	}
	req.Text = text
	return s.Analyze(ctx, req)
}

func (s *Service) reject(err error) error {
	metrics.IncRunFailed()
	telemetry.Warn("analysis.rejected", map[string]any{
		"error":      sanitizeError(err),
		"error_code": CodeFor(err),
	})
	return err
}

// commitResolutionFailure persists the document and a single failed
// language_resolution log entry. No analysis exists without a profile.
func (s *Service) commitResolutionFailure(ctx context.Context, req AnalyzeRequest, startedAt time.Time, resolveErr error) (AnalyzeResult, error) {
	doc := documents.Document{
		ID:         uuid.NewString(),
		Text:       req.Text,
		SizeBytes:  int64(len(req.Text)),
		IngestedAt: startedAt,
	}
	entry := ProcessingLogEntry{
		ID:         ulid.Make().String(),
		DocumentID: doc.ID,
		Stage:      StageLanguageResolution,
		Outcome:    OutcomeFailed,
		Reason:     sanitizeError(resolveErr),
		Duration:   time.Since(startedAt),
		At:         time.Now().UTC(),
	}

	result := AnalyzeResult{Document: doc, Entries: []ProcessingLogEntry{entry}}
	commitID, err := s.commit(ctx, Batch{Document: doc, Entries: result.Entries})
	if err != nil {
		metrics.IncRunFailed()
		return AnalyzeResult{}, err
	}
	result.CommitID = commitID

	metrics.IncRunFailed()
	telemetry.Warn("analysis.language_resolution_failed", map[string]any{
		"document_id": doc.ID,
		"hint":        req.LanguageHint,
		"error":       sanitizeError(resolveErr),
	})
	return result, fmt.Errorf("%s: %w", sanitizeError(resolveErr), ErrLanguageResolution)
}

func (s *Service) resolveConfig(ctx context.Context, req AnalyzeRequest) (configs.Configuration, error) {
	var (
		cfg configs.Configuration
		err error
	)
	if req.ConfigID != "" {
		cfg, err = s.Configs.Get(ctx, req.ConfigID, req.ConfigVersion)
	} else {
		cfg, err = s.Configs.GetActive(ctx)
	}
	if err != nil {
		return configs.Configuration{}, fmt.Errorf("%s: %w", sanitizeError(err), ErrConfigurationUnavailable)
	}
	return cfg, nil
}

// runStages executes the configuration's stage list in declared order.
// A stage failure is recorded and the run continues; only tokenization is
// a precondition, and stages that need tokens are skipped when it fails.
func (s *Service) runStages(doc documents.Document, profile languages.Profile, cfg configs.Configuration) (Analysis, []ProcessingLogEntry) {
	tokenParams := stageParams(cfg, stages.StageTokenization)
	tokens, tokErr := stages.Tokenize(doc.Text, profile, tokenParams)

	input := stages.Input{
		Text:    doc.Text,
		Profile: profile,
		Others:  s.Languages.Profiles(),
		Tokens:  tokens,
	}

	analysis := Analysis{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		ConfigID:      cfg.ID,
		ConfigVersion: cfg.Version,
		LanguageCode:  profile.Code,
		Metrics:       make(map[string]map[string]any),
	}

	entries := make([]ProcessingLogEntry, 0, len(cfg.Stages))
	succeeded, failed := 0, 0

	for _, setting := range cfg.Stages {
		stageStart := time.Now().UTC()
		entry := ProcessingLogEntry{
			ID:         ulid.Make().String(),
			DocumentID: doc.ID,
			Stage:      setting.Name,
		}

		switch {
		case !setting.Enabled:
			entry.Outcome = OutcomeSkipped
			entry.Reason = "disabled by configuration"
		case tokErr != nil && setting.Name == stages.StageTokenization:
			entry.Outcome = OutcomeFailed
			entry.Reason = sanitizeError(tokErr)
			failed++
		case tokErr != nil && stages.DependsOnTokens(setting.Name):
			entry.Outcome = OutcomeSkipped
			entry.Reason = "tokenization failed"
		default:
			metricsOut, err := s.runStage(setting, input)
			if err != nil {
				entry.Outcome = OutcomeFailed
				entry.Reason = sanitizeError(err)
				failed++
			} else {
				entry.Outcome = OutcomeOk
				analysis.Metrics[setting.Name] = metricsOut
				succeeded++
			}
		}

		entry.Duration = time.Since(stageStart)
		entry.At = time.Now().UTC()
		entries = append(entries, entry)
	}

	switch {
	case tokErr != nil || succeeded == 0:
		analysis.Status = StatusFailed
	case failed > 0:
		analysis.Status = StatusPartiallyFailed
	default:
		analysis.Status = StatusSucceeded
	}
	analysis.ComputedAt = time.Now().UTC()
	return analysis, entries
}

func (s *Service) runStage(setting configs.StageSetting, input stages.Input) (map[string]any, error) {
	fn, err := s.Stages.Get(setting.Name)
	if err != nil {
		return nil, err
	}
	return fn(input, stages.Params(setting.Params))
}

// commit hands the already-computed batch to the gateway, retrying
// transient failures without recomputing any stage.
func (s *Service) commit(ctx context.Context, batch Batch) (string, error) {
	attempts := s.CommitAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := commitRetryBaseDelay
	for attempt := 1; ; attempt++ {
		commitID, err := s.Gateway.Commit(ctx, batch)
		if err == nil || !errors.Is(err, ErrUnavailable) || attempt >= attempts {
			return commitID, err
		}
		telemetry.Warn("analysis.commit_retry", map[string]any{
			"document_id": batch.Document.ID,
			"attempt":     attempt,
			"error":       sanitizeError(err),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
}

func (s *Service) observeOutcome(status string, startedAt time.Time) {
	switch status {
	case StatusSucceeded:
		metrics.IncRunSucceeded()
	case StatusPartiallyFailed:
		metrics.IncRunPartiallyFailed()
	default:
		metrics.IncRunFailed()
	}
	metrics.ObserveRunDurationMs(durationMs(startedAt))
}

func durationMs(startedAt time.Time) float64 {
	return float64(time.Since(startedAt).Microseconds()) / 1000.0
}

func stageParams(cfg configs.Configuration, name string) stages.Params {
	for _, setting := range cfg.Stages {
		if setting.Name == name {
			return stages.Params(setting.Params)
		}
	}
	return nil
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
