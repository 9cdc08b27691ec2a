package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mwhitford/attest/pkg/compliance"
	"github.com/mwhitford/attest/pkg/gamp"
)

// Execute runs the categorization workflow for a single document. It
// builds the state graph (load → categorize → qualify), executes it, and
// extracts the Result from the final state. Errors surfaced by any node
// come back classified into the categorization taxonomy; the Result is
// returned alongside a non-nil error whenever audit records exist, so
// the caller can persist the trail regardless of outcome.
func Execute(ctx context.Context, rt *Runtime, documentID uuid.UUID) (*Result, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	wctx := newRunContext()
	handler := compliance.NewHandler(rt.Compliance, rt.Logger, wctx)

	initialState := state.New(nil)
	initialState = initialState.Set(KeyDocumentID, documentID)
	initialState = initialState.Set(KeyHandler, handler)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		classified := handler.HandleException(err, map[string]any{
			"document_id": documentID.String(),
		})
		return &Result{Errors: wctx.recorded()}, classified
	}

	result, err := extractResult(finalState)
	if err != nil {
		return &Result{Errors: wctx.recorded()}, handler.HandleException(err, nil)
	}

	result.Errors = wctx.recorded()
	return result, nil
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("attest-categorize")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("load", LoadNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("categorize", CategorizeNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("qualify", QualifyNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("load", "categorize", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("categorize", "qualify", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("load"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("qualify"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractResult(s state.State) (*Result, error) {
	analysisVal, ok := s.Get(KeyAnalysis)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyAnalysis)
	}

	analysis, ok := analysisVal.(gamp.AnalysisResult)
	if !ok {
		return nil, fmt.Errorf("%s is not gamp.AnalysisResult", KeyAnalysis)
	}

	confidenceVal, ok := s.Get(KeyConfidence)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyConfidence)
	}

	confidence, ok := confidenceVal.(float64)
	if !ok {
		return nil, fmt.Errorf("%s is not float64", KeyConfidence)
	}

	result := &Result{
		Analysis:    analysis,
		Confidence:  confidence,
		CompletedAt: time.Now(),
	}

	if failureVal, ok := s.Get(KeyFailure); ok {
		failure, ok := failureVal.(*compliance.CategorizationError)
		if !ok {
			return nil, fmt.Errorf("%s is not *compliance.CategorizationError", KeyFailure)
		}
		result.Failure = failure
	}

	return result, nil
}

func stateHandler(s state.State) (*compliance.Handler, error) {
	v, ok := s.Get(KeyHandler)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyHandler)
	}

	h, ok := v.(*compliance.Handler)
	if !ok {
		return nil, fmt.Errorf("%s is not *compliance.Handler", KeyHandler)
	}

	return h, nil
}
