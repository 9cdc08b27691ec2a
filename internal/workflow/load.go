package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// LoadNode returns a state node that fetches a document's verified
// content from blob storage and stages its text for analysis. Only
// text-like content types are analyzable; anything else fails the run
// rather than producing an analysis of garbage bytes.
func LoadNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		documentID, err := extractDocumentID(s)
		if err != nil {
			return s, fmt.Errorf("load: %w", err)
		}

		doc, err := rt.Documents.Find(ctx, documentID)
		if err != nil {
			return s, fmt.Errorf("load: %w: %w", ErrDocumentNotFound, err)
		}

		if !analyzable(doc.ContentType) {
			return s, fmt.Errorf("load: %w: %s", ErrUnsupportedFormat, doc.ContentType)
		}

		data, err := rt.Documents.Content(ctx, documentID)
		if err != nil {
			return s, fmt.Errorf("load: %w", err)
		}

		if len(data) == 0 {
			return s, fmt.Errorf("load: %w", ErrEmptyDocument)
		}

		if !utf8.Valid(data) {
			return s, fmt.Errorf("load: %w", ErrInvalidText)
		}

		rt.Logger.InfoContext(
			ctx, "load node complete",
			"document_id", documentID,
			"content_type", doc.ContentType,
			"size_bytes", len(data),
		)

		return s.Set(KeyText, string(data)), nil
	})
}

func extractDocumentID(s state.State) (uuid.UUID, error) {
	docIDVal, ok := s.Get(KeyDocumentID)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s in state", KeyDocumentID)
	}

	documentID, ok := docIDVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%s is not uuid.UUID", KeyDocumentID)
	}

	return documentID, nil
}

func analyzable(contentType string) bool {
	contentType = strings.ToLower(contentType)
	if semi := strings.Index(contentType, ";"); semi >= 0 {
		contentType = strings.TrimSpace(contentType[:semi])
	}

	if strings.HasPrefix(contentType, "text/") {
		return true
	}

	switch contentType {
	case "application/json", "application/xml", "application/markdown":
		return true
	}

	return false
}
