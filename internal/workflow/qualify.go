package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mwhitford/attest/pkg/gamp"
)

// QualifyNode returns a state node that applies the compliance checks to
// a completed analysis. Confidence and ambiguity findings carry the
// human-intervention strategy: the run completes with the failure staged
// in the state bag so the result can be parked for review. Any other
// strategy terminates the graph with the classified error.
func QualifyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		handler, err := stateHandler(s)
		if err != nil {
			return s, fmt.Errorf("qualify: %w", err)
		}

		analysisVal, ok := s.Get(KeyAnalysis)
		if !ok {
			return s, fmt.Errorf("qualify: missing %s in state", KeyAnalysis)
		}

		analysis, ok := analysisVal.(gamp.AnalysisResult)
		if !ok {
			return s, fmt.Errorf("qualify: %s is not gamp.AnalysisResult", KeyAnalysis)
		}

		confidenceVal, ok := s.Get(KeyConfidence)
		if !ok {
			return s, fmt.Errorf("qualify: missing %s in state", KeyConfidence)
		}

		confidence, ok := confidenceVal.(float64)
		if !ok {
			return s, fmt.Errorf("qualify: %s is not float64", KeyConfidence)
		}

		scores := map[gamp.Category]float64{
			analysis.PredictedCategory: confidence,
		}

		cerr := handler.Handle(scores, analysis)
		if cerr == nil {
			rt.Logger.InfoContext(
				ctx, "qualify node complete",
				"category", analysis.PredictedCategory,
				"confidence", confidence,
			)
			return s, nil
		}

		if !cerr.HumanIntervention() {
			return s, cerr
		}

		rt.Logger.WarnContext(
			ctx, "qualify node parked result for review",
			"category", analysis.PredictedCategory,
			"confidence", confidence,
			"error_type", cerr.Type,
		)

		return s.Set(KeyFailure, cerr), nil
	})
}
