package documents

import "time"

// Document is an ingested text document. It is immutable once persisted:
// re-analysis creates a new Analysis against the same document, never a
// changed text.
type Document struct {
	ID           string    `json:"id"`
	Text         string    `json:"-"`
	LanguageCode string    `json:"languageCode,omitempty"`
	SizeBytes    int64     `json:"sizeBytes"`
	IngestedAt   time.Time `json:"ingestedAt"`
}
