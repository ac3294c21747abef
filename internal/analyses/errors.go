package analyses

import (
	"errors"

	"doclex-backend/internal/stages"
)

var (
	// ErrDocumentTooLarge rejects input above the configured byte bound
	// before any stage runs.
	ErrDocumentTooLarge = errors.New("document too large")
	// ErrLanguageResolution means no language could be resolved. The
	// document and one failed log entry are persisted; no analysis is.
	ErrLanguageResolution = errors.New("language resolution failed")
	// ErrConfigurationUnavailable means the requested or active
	// configuration could not be loaded. Nothing is persisted.
	ErrConfigurationUnavailable = errors.New("configuration unavailable")

	// ErrConflict is a storage uniqueness violation; retrying the same
	// records cannot succeed.
	ErrConflict = errors.New("storage conflict")
	// ErrUnavailable is a transient storage failure; the same in-memory
	// batch may be committed again.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrNotFound is returned by gateway readers.
	ErrNotFound = errors.New("not found")
)

// Error codes surfaced alongside the sentinel errors for callers that
// serialize failures.
const (
	ErrorCodeInput         = "INPUT_ERROR"
	ErrorCodeLanguage      = "LANGUAGE_RESOLUTION_FAILED"
	ErrorCodeConfiguration = "CONFIGURATION_UNAVAILABLE"
	ErrorCodeStorage       = "STORAGE_ERROR"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)

// CodeFor maps an error to its serializable code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDocumentTooLarge), errors.Is(err, stages.ErrEmptyDocument):
		return ErrorCodeInput
	case errors.Is(err, ErrLanguageResolution):
		return ErrorCodeLanguage
	case errors.Is(err, ErrConfigurationUnavailable):
		return ErrorCodeConfiguration
	case errors.Is(err, ErrConflict), errors.Is(err, ErrUnavailable):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}
