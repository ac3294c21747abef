package analyses

import "time"

// Analysis statuses. Succeeded means every enabled stage produced metrics;
// PartiallyFailed means at least one of each; Failed means no stage
// succeeded or tokenization itself failed.
const (
	StatusSucceeded       = "succeeded"
	StatusPartiallyFailed = "partially_failed"
	StatusFailed          = "failed"
)

// Per-stage log outcomes.
const (
	OutcomeOk      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Synthetic log stage recorded when language resolution fails before any
// lexical stage could run.
const StageLanguageResolution = "language_resolution"

// Analysis is the write-once result of one pipeline run. It references
// exactly one document and one configuration snapshot.
type Analysis struct {
	ID            string                    `json:"id"`
	DocumentID    string                    `json:"documentId"`
	ConfigID      string                    `json:"configId"`
	ConfigVersion int                       `json:"configVersion"`
	LanguageCode  string                    `json:"languageCode"`
	Metrics       map[string]map[string]any `json:"metrics"`
	Status        string                    `json:"status"`
	ComputedAt    time.Time                 `json:"computedAt"`
}

// ProcessingLogEntry is one append-only audit record: the outcome of one
// stage within one analysis attempt. Entries are ordered by the
// configuration's declared stage order, not completion time.
type ProcessingLogEntry struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"documentId"`
	Stage      string        `json:"stage"`
	Outcome    string        `json:"outcome"`
	Reason     string        `json:"reason,omitempty"`
	Duration   time.Duration `json:"duration"`
	At         time.Time     `json:"at"`
}
