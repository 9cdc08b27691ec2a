package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mwhitford/attest/pkg/gamp"
)

// CategorizeNode returns a state node that runs the deterministic GAMP
// analysis over the staged document text and records the analysis and
// its confidence in the state bag. The node itself cannot fail once text
// is present: thin evidence is a qualification concern, not an analysis
// error.
func CategorizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		textVal, ok := s.Get(KeyText)
		if !ok {
			return s, fmt.Errorf("categorize: missing %s in state", KeyText)
		}

		text, ok := textVal.(string)
		if !ok {
			return s, fmt.Errorf("categorize: %s is not string", KeyText)
		}

		analysis := gamp.Analyze(text)
		confidence := gamp.ComputeConfidence(analysis)

		predicted := analysis.Predicted()
		rt.Logger.InfoContext(
			ctx, "categorize node complete",
			"category", analysis.PredictedCategory,
			"confidence", confidence,
			"strong", predicted.StrongCount(),
			"weak", predicted.WeakCount(),
			"exclusions", predicted.ExclusionCount(),
		)

		s = s.Set(KeyAnalysis, analysis)
		s = s.Set(KeyConfidence, confidence)

		return s, nil
	})
}
