package categorizations

import (
	"errors"
	"net/http"

	"github.com/mwhitford/attest/pkg/compliance"
)

// Domain errors for categorization operations.
var (
	ErrNotFound        = errors.New("categorization not found")
	ErrDuplicate       = errors.New("categorization already exists")
	ErrInvalidStatus   = errors.New("document is not awaiting review")
	ErrInvalidCategory = errors.New("category must be 1, 3, 4, or 5")
	ErrNoIdentity      = errors.New("validating identity required")
)

// MapHTTPStatus maps categorization domain errors to appropriate HTTP
// status codes. Classified categorization errors map to 422: the request
// was well formed but the analysis could not be accepted.
func MapHTTPStatus(err error) int {
	var cerr *compliance.CategorizationError
	if errors.As(err, &cerr) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidStatus) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrNoIdentity) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
