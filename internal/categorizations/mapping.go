package categorizations

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
	NewProjectionMap("public", "categorizations", "c").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("category", "Category").
	Project("confidence", "Confidence").
	Project("rationale", "Rationale").
	Project("strong_indicators", "StrongIndicators").
	Project("weak_indicators", "WeakIndicators").
	Project("exclusion_factors", "ExclusionFactors").
	Project("category_scores", "CategoryScores").
	Project("requires_review", "RequiresReview").
	Project("categorized_at", "CategorizedAt").
	Project("validated_by", "ValidatedBy").
	Project("validated_at", "ValidatedAt")

var defaultSort = query.SortField{
	Field:      "CategorizedAt",
	Descending: true,
}

var errorProjection = query.
	NewProjectionMap("public", "categorization_errors", "e").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("error_type", "Type").
	Project("severity", "Severity").
	Project("message", "Message").
	Project("strategy", "Strategy").
	Project("details", "Details").
	Project("occurred_at", "OccurredAt")

var errorSort = query.SortField{
	Field:      "OccurredAt",
	Descending: true,
}

// Filters contains optional filtering criteria for categorization queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Category       *int       `json:"category,omitempty"`
	DocumentID     *uuid.UUID `json:"document_id,omitempty"`
	RequiresReview *bool      `json:"requires_review,omitempty"`
	ValidatedBy    *string    `json:"validated_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("RequiresReview", f.RequiresReview).
		WhereEquals("ValidatedBy", f.ValidatedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		if v, err := strconv.Atoi(c); err == nil {
			f.Category = &v
		}
	}

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if rr := values.Get("requires_review"); rr != "" {
		if v, err := strconv.ParseBool(rr); err == nil {
			f.RequiresReview = &v
		}
	}

	if v := values.Get("validated_by"); v != "" {
		f.ValidatedBy = &v
	}

	return f
}

// ErrorFilters contains optional filtering criteria for the error audit
// trail.
type ErrorFilters struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Type       *string    `json:"type,omitempty"`
	Severity   *string    `json:"severity,omitempty"`
	Strategy   *string    `json:"strategy,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f ErrorFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("Type", f.Type).
		WhereEquals("Severity", f.Severity).
		WhereEquals("Strategy", f.Strategy)
}

// ErrorFiltersFromQuery extracts error filter values from URL query
// parameters.
func ErrorFiltersFromQuery(values url.Values) ErrorFilters {
	var f ErrorFilters

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if t := values.Get("type"); t != "" {
		f.Type = &t
	}

	if s := values.Get("severity"); s != "" {
		f.Severity = &s
	}

	if s := values.Get("strategy"); s != "" {
		f.Strategy = &s
	}

	return f
}

func scanCategorization(s repository.Scanner) (Categorization, error) {
	var c Categorization
	var strongRaw, weakRaw, exclusionRaw, scoresRaw []byte

	err := s.Scan(
		&c.ID,
		&c.DocumentID,
		&c.Category,
		&c.Confidence,
		&c.Rationale,
		&strongRaw,
		&weakRaw,
		&exclusionRaw,
		&scoresRaw,
		&c.RequiresReview,
		&c.CategorizedAt,
		&c.ValidatedBy,
		&c.ValidatedAt,
	)

	if err != nil {
		return c, err
	}

	if err := unmarshalList(strongRaw, &c.StrongIndicators); err != nil {
		return c, fmt.Errorf("unmarshal strong_indicators: %w", err)
	}
	if err := unmarshalList(weakRaw, &c.WeakIndicators); err != nil {
		return c, fmt.Errorf("unmarshal weak_indicators: %w", err)
	}
	if err := unmarshalList(exclusionRaw, &c.ExclusionFactors); err != nil {
		return c, fmt.Errorf("unmarshal exclusion_factors: %w", err)
	}

	if len(scoresRaw) > 0 {
		if err := json.Unmarshal(scoresRaw, &c.CategoryScores); err != nil {
			return c, fmt.Errorf("unmarshal category_scores: %w", err)
		}
	}
	if c.CategoryScores == nil {
		c.CategoryScores = map[string]int{}
	}

	return c, nil
}

func unmarshalList(raw []byte, dst *[]string) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}

func scanErrorRecord(s repository.Scanner) (ErrorRecord, error) {
	var e ErrorRecord
	var detailsRaw []byte

	err := s.Scan(
		&e.ID,
		&e.DocumentID,
		&e.Type,
		&e.Severity,
		&e.Message,
		&e.Strategy,
		&detailsRaw,
		&e.OccurredAt,
	)

	if err != nil {
		return e, err
	}

	if len(detailsRaw) > 0 {
		if err := json.Unmarshal(detailsRaw, &e.Details); err != nil {
			return e, fmt.Errorf("unmarshal details: %w", err)
		}
	}

	return e, nil
}
