package testsuites_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/internal/testsuites"
	"github.com/mwhitford/attest/internal/workflow"
	"github.com/mwhitford/attest/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", testsuites.ErrNotFound, http.StatusNotFound},
		{"document not found", workflow.ErrDocumentNotFound, http.StatusNotFound},
		{"duplicate", testsuites.ErrDuplicate, http.StatusConflict},
		{"not approved", testsuites.ErrNotApproved, http.StatusConflict},
		{"no documents", testsuites.ErrNoDocuments, http.StatusBadRequest},
		{"no identity", testsuites.ErrNoIdentity, http.StatusBadRequest},
		{"suite invalid", workflow.ErrSuiteInvalid, http.StatusUnprocessableEntity},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped suite invalid", fmt.Errorf("generate: %w", workflow.ErrSuiteInvalid), http.StatusUnprocessableEntity},
		{"wrapped not approved", fmt.Errorf("generate: %w", testsuites.ErrNotApproved), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testsuites.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSuiteApproved(t *testing.T) {
	now := time.Now()

	t.Run("unapproved", func(t *testing.T) {
		s := testsuites.TestSuite{}
		if s.Approved() {
			t.Error("Approved() = true, want false")
		}
	})

	t.Run("approved", func(t *testing.T) {
		s := testsuites.TestSuite{ApprovedBy: ptr("qa.lead"), ApprovedAt: &now}
		if !s.Approved() {
			t.Error("Approved() = false, want true")
		}
	})
}

func TestFiltersFromQuery(t *testing.T) {
	docID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"document_id": {docID.String()},
			"category":    {"4"},
			"approved_by": {"qa.lead"},
		}

		f := testsuites.FiltersFromQuery(values)

		if f.DocumentID == nil || *f.DocumentID != docID {
			t.Errorf("DocumentID = %v, want %v", f.DocumentID, docID)
		}
		if f.Category == nil || *f.Category != 4 {
			t.Errorf("Category = %v, want 4", f.Category)
		}
		if f.ApprovedBy == nil || *f.ApprovedBy != "qa.lead" {
			t.Errorf("ApprovedBy = %v, want qa.lead", f.ApprovedBy)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := testsuites.FiltersFromQuery(url.Values{})

		if f.DocumentID != nil || f.Category != nil || f.ApprovedBy != nil {
			t.Errorf("Filters = %+v, want all nil", f)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		values := url.Values{
			"document_id": {"not-a-uuid"},
			"category":    {"five"},
		}

		f := testsuites.FiltersFromQuery(values)

		if f.DocumentID != nil {
			t.Errorf("DocumentID = %v, want nil for invalid input", f.DocumentID)
		}
		if f.Category != nil {
			t.Errorf("Category = %v, want nil for invalid input", f.Category)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "test_suites", "ts").
		Project("document_id", "DocumentID").
		Project("category", "Category").
		Project("approved_by", "ApprovedBy")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := testsuites.Filters{}
		f.Apply(b)
		sql, args := b.Build()

		wantSQL := "SELECT ts.document_id, ts.category, ts.approved_by FROM public.test_suites ts"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("category equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := testsuites.Filters{Category: ptr(5)}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*int); !ok || *v != 5 {
			t.Errorf("args[0] = %v, want *5", args[0])
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		b := query.NewBuilder(projection)
		docID := uuid.New()
		f := testsuites.Filters{
			DocumentID: &docID,
			Category:   ptr(3),
			ApprovedBy: ptr("qa.lead"),
		}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 3 {
			t.Errorf("args length = %d, want 3", len(args))
		}
	})
}
