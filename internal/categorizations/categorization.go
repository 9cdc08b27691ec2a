// Package categorizations implements the GAMP categorization domain for
// Attest. It provides types, data access, and business logic for storing,
// querying, validating, and updating categorization results produced by
// the analysis workflow, along with the categorization error audit trail.
package categorizations

import (
	"time"

	"github.com/google/uuid"
)

// Categorization represents a stored categorization result for a URS
// document. It mirrors the categorizations table schema with the
// predicted category's evidence flattened into JSON columns.
type Categorization struct {
	ID               uuid.UUID      `json:"id"`
	DocumentID       uuid.UUID      `json:"document_id"`
	Category         int            `json:"category"`
	Confidence       float64        `json:"confidence"`
	Rationale        string         `json:"rationale"`
	StrongIndicators []string       `json:"strong_indicators"`
	WeakIndicators   []string       `json:"weak_indicators"`
	ExclusionFactors []string       `json:"exclusion_factors"`
	CategoryScores   map[string]int `json:"category_scores"`
	RequiresReview   bool           `json:"requires_review"`
	CategorizedAt    time.Time      `json:"categorized_at"`
	ValidatedBy      *string        `json:"validated_by"`
	ValidatedAt      *time.Time     `json:"validated_at"`
}

// Validated reports whether a human has confirmed this categorization.
func (c Categorization) Validated() bool {
	return c.ValidatedBy != nil
}

// Approved reports whether the categorization may feed downstream test
// generation: either the analyzer was confident enough on its own, or a
// human has validated it.
func (c Categorization) Approved() bool {
	return !c.RequiresReview || c.Validated()
}

// ValidateCommand carries the data needed to validate a categorization.
// ValidatedBy identifies the human who confirmed the automated result.
type ValidateCommand struct {
	ValidatedBy string `json:"validated_by"`
}

// UpdateCommand carries the data needed to manually correct a
// categorization. Category and Rationale overwrite the analyzer's
// values. UpdatedBy identifies the human who made the correction
// (stored as validated_by).
type UpdateCommand struct {
	Category  int    `json:"category"`
	Rationale string `json:"rationale"`
	UpdatedBy string `json:"updated_by"`
}

// ErrorRecord is a persisted categorization error from the audit trail.
type ErrorRecord struct {
	ID         uuid.UUID      `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	Type       string         `json:"type"`
	Severity   string         `json:"severity"`
	Message    string         `json:"message"`
	Strategy   string         `json:"strategy"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
