package testsuites_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/internal/testsuites"
	"github.com/mwhitford/attest/internal/workflow"
	"github.com/mwhitford/attest/pkg/pagination"
)

type mockSystem struct {
	listFn          func(ctx context.Context, page pagination.PageRequest, filters testsuites.Filters) (*pagination.PageResult[testsuites.TestSuite], error)
	findFn          func(ctx context.Context, id uuid.UUID) (*testsuites.TestSuite, error)
	findByDocFn     func(ctx context.Context, documentID uuid.UUID) (*testsuites.TestSuite, error)
	generateFn      func(ctx context.Context, documentID uuid.UUID) (*testsuites.TestSuite, error)
	generateBatchFn func(ctx context.Context, documentIDs []uuid.UUID) ([]*testsuites.TestSuite, error)
	approveFn       func(ctx context.Context, id uuid.UUID, cmd testsuites.ApproveCommand) (*testsuites.TestSuite, error)
	deleteFn        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler() *testsuites.Handler {
	return testsuites.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters testsuites.Filters) (*pagination.PageResult[testsuites.TestSuite], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*testsuites.TestSuite, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) FindByDocument(ctx context.Context, documentID uuid.UUID) (*testsuites.TestSuite, error) {
	return m.findByDocFn(ctx, documentID)
}

func (m *mockSystem) Generate(ctx context.Context, documentID uuid.UUID) (*testsuites.TestSuite, error) {
	return m.generateFn(ctx, documentID)
}

func (m *mockSystem) GenerateBatch(ctx context.Context, documentIDs []uuid.UUID) ([]*testsuites.TestSuite, error) {
	return m.generateBatchFn(ctx, documentIDs)
}

func (m *mockSystem) Approve(ctx context.Context, id uuid.UUID, cmd testsuites.ApproveCommand) (*testsuites.TestSuite, error) {
	return m.approveFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func newTestHandler(sys *mockSystem) *testsuites.Handler {
	return testsuites.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *testsuites.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleSuite() testsuites.TestSuite {
	return testsuites.TestSuite{
		ID:         uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		DocumentID: uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"),
		Category:   4,
		Cases: []workflow.TestCase{
			{
				CaseID:    "OQ-001",
				Title:     "Verify sample registration",
				Objective: "Confirm the system registers a sample with required metadata.",
				Steps: []workflow.TestStep{
					{Number: 1, Action: "Register a new sample", ExpectedResult: "Sample appears with a unique identifier"},
				},
				AcceptanceCriteria: []string{"Sample record persists with audit trail entry"},
				RiskLevel:          "high",
			},
		},
		Rationale:    "covers registration requirements",
		ModelName:    "llama3.2",
		ProviderName: "ollama",
		GeneratedAt:  time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	s := sampleSuite()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, _ testsuites.Filters) (*pagination.PageResult[testsuites.TestSuite], error) {
			result := pagination.NewPageResult([]testsuites.TestSuite{s}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("returns paginated list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/testsuites", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[testsuites.TestSuite]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}

		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
		if len(result.Data) != 1 {
			t.Fatalf("data length = %d, want 1", len(result.Data))
		}
		if len(result.Data[0].Cases) != 1 {
			t.Errorf("cases length = %d, want 1", len(result.Data[0].Cases))
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured testsuites.Filters
		sys.listFn = func(_ context.Context, _ pagination.PageRequest, f testsuites.Filters) (*pagination.PageResult[testsuites.TestSuite], error) {
			captured = f
			result := pagination.NewPageResult([]testsuites.TestSuite{}, 0, 1, 20)
			return &result, nil
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/testsuites?category=4&approved_by=qa.lead", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Category == nil || *captured.Category != 4 {
			t.Errorf("category filter = %v, want 4", captured.Category)
		}
		if captured.ApprovedBy == nil || *captured.ApprovedBy != "qa.lead" {
			t.Errorf("approved_by filter = %v, want qa.lead", captured.ApprovedBy)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	s := sampleSuite()

	t.Run("returns suite by id", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*testsuites.TestSuite, error) {
				if id != s.ID {
					return nil, testsuites.ErrNotFound
				}
				return &s, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/testsuites/"+s.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got testsuites.TestSuite
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != s.ID {
			t.Errorf("id = %v, want %v", got.ID, s.ID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/testsuites/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*testsuites.TestSuite, error) {
				return nil, testsuites.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/testsuites/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerGenerate(t *testing.T) {
	s := sampleSuite()

	t.Run("generates suite for document", func(t *testing.T) {
		var capturedID uuid.UUID
		sys := &mockSystem{
			generateFn: func(_ context.Context, documentID uuid.UUID) (*testsuites.TestSuite, error) {
				capturedID = documentID
				return &s, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/"+s.DocumentID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if capturedID != s.DocumentID {
			t.Errorf("document_id = %v, want %v", capturedID, s.DocumentID)
		}
	})

	t.Run("unapproved categorization returns 409", func(t *testing.T) {
		sys := &mockSystem{
			generateFn: func(_ context.Context, _ uuid.UUID) (*testsuites.TestSuite, error) {
				return nil, testsuites.ErrNotApproved
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("invalid suite returns 422", func(t *testing.T) {
		sys := &mockSystem{
			generateFn: func(_ context.Context, _ uuid.UUID) (*testsuites.TestSuite, error) {
				return nil, fmt.Errorf("generate: %w", workflow.ErrSuiteInvalid)
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})
}

func TestHandlerGenerateBatch(t *testing.T) {
	s := sampleSuite()

	t.Run("generates suites for documents", func(t *testing.T) {
		var capturedIDs []uuid.UUID
		sys := &mockSystem{
			generateBatchFn: func(_ context.Context, documentIDs []uuid.UUID) ([]*testsuites.TestSuite, error) {
				capturedIDs = documentIDs
				return []*testsuites.TestSuite{&s}, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(testsuites.GenerateBatchCommand{
			DocumentIDs: []uuid.UUID{s.DocumentID},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/generate", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if len(capturedIDs) != 1 || capturedIDs[0] != s.DocumentID {
			t.Errorf("document_ids = %v, want [%v]", capturedIDs, s.DocumentID)
		}

		var got []testsuites.TestSuite
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("suites length = %d, want 1", len(got))
		}
	})

	t.Run("empty batch returns 400", func(t *testing.T) {
		sys := &mockSystem{
			generateBatchFn: func(_ context.Context, _ []uuid.UUID) ([]*testsuites.TestSuite, error) {
				return nil, testsuites.ErrNoDocuments
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/generate", bytes.NewReader([]byte(`{"document_ids":[]}`)))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/generate", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerApprove(t *testing.T) {
	s := sampleSuite()
	approved := s
	approvedBy := "qa.lead"
	now := time.Now()
	approved.ApprovedBy = &approvedBy
	approved.ApprovedAt = &now

	t.Run("approves suite", func(t *testing.T) {
		var capturedCmd testsuites.ApproveCommand
		sys := &mockSystem{
			approveFn: func(_ context.Context, _ uuid.UUID, cmd testsuites.ApproveCommand) (*testsuites.TestSuite, error) {
				capturedCmd = cmd
				return &approved, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(testsuites.ApproveCommand{ApprovedBy: "qa.lead"})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/"+s.ID.String()+"/approve", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedCmd.ApprovedBy != "qa.lead" {
			t.Errorf("approved_by = %q, want qa.lead", capturedCmd.ApprovedBy)
		}

		var got testsuites.TestSuite
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Approved() {
			t.Error("Approved() = false, want true")
		}
	})

	t.Run("missing identity returns 400", func(t *testing.T) {
		sys := &mockSystem{
			approveFn: func(_ context.Context, _ uuid.UUID, cmd testsuites.ApproveCommand) (*testsuites.TestSuite, error) {
				if cmd.ApprovedBy == "" {
					return nil, testsuites.ErrNoIdentity
				}
				return &approved, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/"+s.ID.String()+"/approve", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			approveFn: func(_ context.Context, _ uuid.UUID, _ testsuites.ApproveCommand) (*testsuites.TestSuite, error) {
				return nil, testsuites.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(testsuites.ApproveCommand{ApprovedBy: "qa.lead"})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/testsuites/"+uuid.New().String()+"/approve", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	t.Run("deletes suite", func(t *testing.T) {
		var capturedID uuid.UUID
		sys := &mockSystem{
			deleteFn: func(_ context.Context, id uuid.UUID) error {
				capturedID = id
				return nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/testsuites/"+id.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if capturedID != id {
			t.Errorf("id = %v, want %v", capturedID, id)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			deleteFn: func(_ context.Context, _ uuid.UUID) error {
				return testsuites.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/testsuites/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerRoutes(t *testing.T) {
	sys := &mockSystem{}
	h := newTestHandler(sys)
	group := h.Routes()

	if group.Prefix != "/testsuites" {
		t.Errorf("prefix = %q, want /testsuites", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"GET", "/document/{id}"},
		{"POST", "/search"},
		{"POST", "/generate"},
		{"POST", "/{documentId}"},
		{"POST", "/{id}/approve"},
		{"DELETE", "/{id}"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("route count = %d, want %d", len(group.Routes), len(want))
	}

	for i, w := range want {
		r := group.Routes[i]
		if r.Method != w.method || r.Pattern != w.pattern {
			t.Errorf("route[%d] = %s %s, want %s %s", i, r.Method, r.Pattern, w.method, w.pattern)
		}
	}
}
