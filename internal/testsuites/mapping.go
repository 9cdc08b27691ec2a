package testsuites

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/pkg/query"
	"github.com/mwhitford/attest/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "test_suites", "ts").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("category", "Category").
	Project("cases", "Cases").
	Project("rationale", "Rationale").
	Project("model_name", "ModelName").
	Project("provider_name", "ProviderName").
	Project("generated_at", "GeneratedAt").
	Project("approved_by", "ApprovedBy").
	Project("approved_at", "ApprovedAt")

var defaultSort = query.SortField{
	Field:      "GeneratedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for test suite queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Category   *int       `json:"category,omitempty"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("Category", f.Category).
		WhereEquals("ApprovedBy", f.ApprovedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if c := values.Get("category"); c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			f.Category = &n
		}
	}

	if a := values.Get("approved_by"); a != "" {
		f.ApprovedBy = &a
	}

	return f
}

func scanTestSuite(s repository.Scanner) (TestSuite, error) {
	var suite TestSuite
	var casesRaw []byte

	err := s.Scan(
		&suite.ID,
		&suite.DocumentID,
		&suite.Category,
		&casesRaw,
		&suite.Rationale,
		&suite.ModelName,
		&suite.ProviderName,
		&suite.GeneratedAt,
		&suite.ApprovedBy,
		&suite.ApprovedAt,
	)

	if err != nil {
		return suite, err
	}

	if len(casesRaw) > 0 {
		if err := json.Unmarshal(casesRaw, &suite.Cases); err != nil {
			return suite, fmt.Errorf("unmarshal cases: %w", err)
		}
	}

	return suite, nil
}
