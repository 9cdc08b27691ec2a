// Package documents implements the URS document domain for Attest.
// It provides types, data access, and business logic for requirements
// document upload, registration, status tracking, and blob storage
// integration.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a document through the categorization lifecycle.
type Status string

// Document lifecycle states. A document enters as pending, becomes
// categorized when automated analysis succeeds, moves to in_review when
// a human consultation is required or requested, and is complete once
// its test suite is approved.
const (
	StatusPending     Status = "pending"
	StatusCategorized Status = "categorized"
	StatusInReview    Status = "in_review"
	StatusComplete    Status = "complete"
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusCategorized, StatusInReview},
	StatusCategorized: {StatusInReview, StatusComplete},
	StatusInReview:    {StatusCategorized, StatusComplete},
}

// CanTransition reports whether moving from s to next is a legal
// lifecycle step. Complete is terminal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCategorized, StatusInReview, StatusComplete:
		return true
	}
	return false
}

// Document represents a registered URS document with its metadata, blob
// storage reference, and the summary of its current categorization when
// one exists.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Version      string    `json:"version"`
	SourceSystem string    `json:"source_system"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	PageCount    *int      `json:"page_count"`
	StorageKey   string    `json:"storage_key"`
	Checksum     string    `json:"checksum"`
	Status       Status    `json:"status"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated from the latest categorization, when one exists.
	Category      *int       `json:"category,omitempty"`
	Confidence    *float64   `json:"confidence,omitempty"`
	CategorizedAt *time.Time `json:"categorized_at,omitempty"`
}

// CreateCommand carries the data needed to upload and register a new
// document. Data holds the raw file bytes. PageCount is optional and may
// be extracted by the caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	Data         []byte
	Title        string
	Version      string
	SourceSystem string
	Filename     string
	ContentType  string
	PageCount    *int
}

// StatusCommand requests a lifecycle transition for a document.
type StatusCommand struct {
	Status Status `json:"status"`
}
