package domain

import (
	"strings"
	"time"
)

// Candidate is a post fetched from a source during one poll cycle.
// It is never persisted unless it passes the keyword filter.
type Candidate struct {
	SourceName string
	Text       string
	Link       string    // empty when the provider gave none
	PostedAt   time.Time // zero when unknown
	FetchedAt  time.Time
}

// AcceptedItem is a candidate that passed the filter, ready for the sink.
type AcceptedItem struct {
	SourceName  string
	Text        string
	Link        string
	ContentHash string
	SourceType  string
}

// Job is an accepted item as persisted by the store.
type Job struct {
	ID          int64     `json:"id"`
	SourceName  string    `json:"source_name"`
	Text        string    `json:"text"`
	Link        *string   `json:"link"`
	ContentHash string    `json:"content_hash"`
	SourceType  string    `json:"source_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NormalizeText trims surrounding whitespace. Fingerprints are always
// computed over normalized text.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// Accept turns a candidate into an accepted item tagged with sourceType.
func Accept(c Candidate, sourceType string) AcceptedItem {
	text := NormalizeText(c.Text)
	link := strings.TrimSpace(c.Link)
	return AcceptedItem{
		SourceName:  c.SourceName,
		Text:        text,
		Link:        link,
		ContentHash: Fingerprint(text, link),
		SourceType:  sourceType,
	}
}

// Validate checks the invariants every persisted item must satisfy.
// The returned error wraps ErrValidation.
func (it AcceptedItem) Validate() error {
	if NormalizeText(it.Text) == "" {
		return validationError("text is required")
	}
	if it.ContentHash == "" {
		return validationError("content_hash is required")
	}
	if !IsFingerprint(it.ContentHash) {
		return validationError("content_hash must be a 64 character hex sha256")
	}
	if it.ContentHash != Fingerprint(it.Text, it.Link) {
		return validationError("content_hash does not match text and link")
	}
	return nil
}
