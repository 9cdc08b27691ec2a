package documents_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/mwhitford/attest/internal/documents"
	"github.com/mwhitford/attest/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"duplicate", documents.ErrDuplicate, http.StatusConflict},
		{"file too large", documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid file", documents.ErrInvalidFile, http.StatusBadRequest},
		{"invalid transition", documents.ErrInvalidTransition, http.StatusBadRequest},
		{"checksum mismatch", documents.ErrChecksumMismatch, http.StatusConflict},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", documents.ErrNotFound), http.StatusNotFound},
		{"wrapped duplicate", fmt.Errorf("insert failed: %w", documents.ErrDuplicate), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := documents.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from documents.Status
		to   documents.Status
		want bool
	}{
		{"pending to categorized", documents.StatusPending, documents.StatusCategorized, true},
		{"pending to in_review", documents.StatusPending, documents.StatusInReview, true},
		{"pending to complete", documents.StatusPending, documents.StatusComplete, false},
		{"categorized to in_review", documents.StatusCategorized, documents.StatusInReview, true},
		{"categorized to complete", documents.StatusCategorized, documents.StatusComplete, true},
		{"categorized to pending", documents.StatusCategorized, documents.StatusPending, false},
		{"in_review to categorized", documents.StatusInReview, documents.StatusCategorized, true},
		{"in_review to complete", documents.StatusInReview, documents.StatusComplete, true},
		{"complete is terminal", documents.StatusComplete, documents.StatusInReview, false},
		{"no self transition", documents.StatusPending, documents.StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []documents.Status{
		documents.StatusPending,
		documents.StatusCategorized,
		documents.StatusInReview,
		documents.StatusComplete,
	} {
		if !s.Valid() {
			t.Errorf("Valid(%s) = false, want true", s)
		}
	}

	if documents.Status("archived").Valid() {
		t.Error("Valid(archived) = true, want false")
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"status":        {"pending"},
			"title":         {"batch record"},
			"filename":      {"urs"},
			"source_system": {"LIMS"},
			"content_type":  {"text/plain"},
			"category":      {"5"},
		}

		f := documents.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "pending" {
			t.Errorf("Status = %v, want pending", f.Status)
		}
		if f.Title == nil || *f.Title != "batch record" {
			t.Errorf("Title = %v, want batch record", f.Title)
		}
		if f.Filename == nil || *f.Filename != "urs" {
			t.Errorf("Filename = %v, want urs", f.Filename)
		}
		if f.SourceSystem == nil || *f.SourceSystem != "LIMS" {
			t.Errorf("SourceSystem = %v, want LIMS", f.SourceSystem)
		}
		if f.ContentType == nil || *f.ContentType != "text/plain" {
			t.Errorf("ContentType = %v, want text/plain", f.ContentType)
		}
		if f.Category == nil || *f.Category != 5 {
			t.Errorf("Category = %v, want 5", f.Category)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := documents.FiltersFromQuery(url.Values{})

		if f.Status != nil {
			t.Errorf("Status = %v, want nil", f.Status)
		}
		if f.Title != nil {
			t.Errorf("Title = %v, want nil", f.Title)
		}
		if f.Filename != nil {
			t.Errorf("Filename = %v, want nil", f.Filename)
		}
		if f.SourceSystem != nil {
			t.Errorf("SourceSystem = %v, want nil", f.SourceSystem)
		}
		if f.ContentType != nil {
			t.Errorf("ContentType = %v, want nil", f.ContentType)
		}
		if f.Category != nil {
			t.Errorf("Category = %v, want nil", f.Category)
		}
	})

	t.Run("invalid category ignored", func(t *testing.T) {
		values := url.Values{"category": {"not-a-number"}}
		f := documents.FiltersFromQuery(values)

		if f.Category != nil {
			t.Errorf("Category = %v, want nil for invalid input", f.Category)
		}
	})

	t.Run("partial params", func(t *testing.T) {
		values := url.Values{
			"status":   {"in_review"},
			"filename": {"urs"},
		}

		f := documents.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "in_review" {
			t.Errorf("Status = %v, want in_review", f.Status)
		}
		if f.Filename == nil || *f.Filename != "urs" {
			t.Errorf("Filename = %v, want urs", f.Filename)
		}
		if f.SourceSystem != nil {
			t.Errorf("SourceSystem = %v, want nil", f.SourceSystem)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "documents", "d").
		Project("status", "Status").
		Project("title", "Title").
		Project("filename", "Filename").
		Project("source_system", "SourceSystem").
		Project("content_type", "ContentType").
		Project("category", "Category")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{}
		f.Apply(b)
		sql, args := b.Build()

		wantSQL := "SELECT d.status, d.title, d.filename, d.source_system, d.content_type, d.category FROM public.documents d"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("status equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{Status: ptr("pending")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*string); !ok || *v != "pending" {
			t.Errorf("args[0] = %v, want *pending", args[0])
		}
	})

	t.Run("title contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{Title: ptr("batch")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%batch%" {
			t.Errorf("args = %v, want [%%batch%%]", args)
		}
	})

	t.Run("filename contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{Filename: ptr("urs")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%urs%" {
			t.Errorf("args = %v, want [%%urs%%]", args)
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{
			Status:       ptr("pending"),
			Filename:     ptr("urs"),
			SourceSystem: ptr("LIMS"),
		}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 3 {
			t.Errorf("args length = %d, want 3", len(args))
		}
	})

	t.Run("category equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{Category: ptr(4)}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*int); !ok || *v != 4 {
			t.Errorf("args[0] = %v, want *4", args[0])
		}
	})
}
