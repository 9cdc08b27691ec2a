package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("validation failed: document content type is not analyzable text")
	ErrInvalidText       = errors.New("validation failed: document content is not valid UTF-8 text")
	ErrEmptyDocument     = errors.New("validation failed: document content is empty")
	ErrGenerateFailed    = errors.New("test suite generation failed")
	ErrSuiteInvalid      = errors.New("generated test suite failed structural validation")
)
