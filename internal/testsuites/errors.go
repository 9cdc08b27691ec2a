package testsuites

import (
	"errors"
	"net/http"

	"github.com/mwhitford/attest/internal/workflow"
)

// Domain errors for test suite operations.
var (
	ErrNotFound    = errors.New("test suite not found")
	ErrDuplicate   = errors.New("test suite already exists")
	ErrNotApproved = errors.New("categorization is not approved for test generation")
	ErrNoDocuments = errors.New("no document ids provided")
	ErrNoIdentity  = errors.New("approving identity required")
)

// MapHTTPStatus maps test suite domain errors to appropriate HTTP status
// codes. A suite that fails structural validation after refinement maps
// to 422: the request was well formed but the generated output could not
// be accepted.
func MapHTTPStatus(err error) int {
	if errors.Is(err, workflow.ErrSuiteInvalid) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, workflow.ErrDocumentNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotApproved) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoDocuments) || errors.Is(err, ErrNoIdentity) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
