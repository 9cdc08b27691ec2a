package scalar_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwhitford/attest/web/scalar"
)

func TestIndexRendersSpecURL(t *testing.T) {
	mod := scalar.NewModule("/scalar", "/api/openapi.json")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/scalar", nil)
	mod.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `data-spec-url="/api/openapi.json"`) {
		t.Errorf("body missing spec url: %q", body)
	}
	if !strings.Contains(body, `href="/scalar/scalar.css"`) {
		t.Errorf("body missing stylesheet link: %q", body)
	}
}

func TestServesAssets(t *testing.T) {
	mod := scalar.NewModule("/scalar", "/api/openapi.json")

	for _, path := range []string{"/scalar/scalar.css", "/scalar/scalar.js"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		mod.Serve(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, rec.Code)
		}
	}
}

func TestUnknownPathFallsBackToIndex(t *testing.T) {
	mod := scalar.NewModule("/scalar", "/api/openapi.json")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/scalar/nested/view", nil)
	mod.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "data-spec-url") {
		t.Errorf("fallback did not render index: %q", rec.Body.String())
	}
}
