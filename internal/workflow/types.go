// Package workflow implements the Attest pipelines as state graphs.
// Categorization runs load, categorize, qualify: loading pulls verified
// document content from storage, categorization runs the deterministic
// GAMP analysis, and qualification applies the compliance checks that
// decide whether the result stands, needs human review, or fails the
// run outright. Generation runs load, draft, refine, accept: drafting
// asks the agent for an OQ suite sized to the category's rigor, and a
// structurally invalid draft gets one refinement pass before the run
// is rejected.
package workflow

import (
	"sync"
	"time"

	"github.com/mwhitford/attest/pkg/compliance"
	"github.com/mwhitford/attest/pkg/gamp"
)

// State bag keys shared across workflow nodes.
const (
	KeyDocumentID = "document_id"
	KeyText       = "document_text"
	KeyAnalysis   = "analysis"
	KeyConfidence = "confidence"
	KeyFailure    = "failure"
	KeyHandler    = "handler"
)

// Result is the final output from a categorization workflow execution.
// Failure is set when the analysis completed but needs human review.
// Errors carries every categorization error recorded during the run,
// in order, for audit persistence.
type Result struct {
	Analysis    gamp.AnalysisResult
	Confidence  float64
	Failure     *compliance.CategorizationError
	Errors      []*compliance.CategorizationError
	CompletedAt time.Time
}

// runContext is the per-execution workflow context handed to the
// compliance handler for audit persistence. The graph executes nodes
// sequentially, but the handler contract allows concurrent access.
type runContext struct {
	mu     sync.Mutex
	values map[string]any
}

func newRunContext() *runContext {
	return &runContext{values: make(map[string]any)}
}

func (c *runContext) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *runContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *runContext) recorded() []*compliance.CategorizationError {
	v, ok := c.Get(compliance.ContextKeyErrors)
	if !ok {
		return nil
	}
	errs, _ := v.([]*compliance.CategorizationError)
	return errs
}
