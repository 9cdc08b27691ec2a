// Package testsuites implements the OQ test suite domain for Attest.
// It provides types, data access, and business logic for generating,
// storing, querying, and approving Operational Qualification test
// suites produced by the generation workflow for categorized URS
// documents.
package testsuites

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/internal/workflow"
)

// TestSuite represents a stored OQ test suite for a document. It mirrors
// the test_suites table schema with the generated cases flattened into a
// JSON column. Category records the GAMP category the suite was sized
// for at generation time.
type TestSuite struct {
	ID           uuid.UUID           `json:"id"`
	DocumentID   uuid.UUID           `json:"document_id"`
	Category     int                 `json:"category"`
	Cases        []workflow.TestCase `json:"cases"`
	Rationale    string              `json:"rationale"`
	ModelName    string              `json:"model_name"`
	ProviderName string              `json:"provider_name"`
	GeneratedAt  time.Time           `json:"generated_at"`
	ApprovedBy   *string             `json:"approved_by"`
	ApprovedAt   *time.Time          `json:"approved_at"`
}

// Approved reports whether a human has approved this suite for execution.
func (s TestSuite) Approved() bool {
	return s.ApprovedBy != nil
}

// ApproveCommand carries the data needed to approve a test suite.
// ApprovedBy identifies the human who reviewed the generated cases.
type ApproveCommand struct {
	ApprovedBy string `json:"approved_by"`
}

// GenerateBatchCommand carries the document IDs for a batch generation
// request.
type GenerateBatchCommand struct {
	DocumentIDs []uuid.UUID `json:"document_ids"`
}
