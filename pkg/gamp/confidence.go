package gamp

// Confidence weights. These are calibrated independently from the scorer's
// internal weights and preserved exactly from the tuned design.
const (
	confWeightStrong    = 0.4
	confWeightWeak      = 0.2
	confWeightExclusion = -0.3

	// Ambiguity penalty: competing strong evidence is scaled by 0.1 per
	// indicator, capped at 0.3, then weighted.
	confAmbiguityWeight = -0.1
	confAmbiguityScale  = 0.1
	confAmbiguityCap    = 0.3

	// Neutral offset: no evidence either way lands at 0.5, not zero.
	confNeutral = 0.5
)

// ComputeConfidence converts an AnalysisResult into a scalar confidence in
// [0, 1] for the predicted category only. The base term weighs the
// predicted category's own evidence; the ambiguity penalty discounts
// confidence when other categories also show strong signal; the category
// adjustment encodes that some categories are harder to assert and deserve
// a boost once their evidence clears a bar.
//
// Confidence is deliberately computed for the single predicted category.
// Applying this formula across all categories produces artificially close
// scores (the clamp compresses the top of the range) and triggers false
// ambiguity detection downstream; see the regression test.
func ComputeConfidence(result AnalysisResult) float64 {
	predicted := result.Predicted()

	base := confWeightStrong*float64(predicted.StrongCount()) +
		confWeightWeak*float64(predicted.WeakCount()) +
		confWeightExclusion*float64(predicted.ExclusionCount())

	competing := 0
	for c, a := range result.Analyses {
		if c == result.PredictedCategory {
			continue
		}
		competing += a.StrongCount()
	}

	penalty := confAmbiguityWeight * min(float64(competing)*confAmbiguityScale, confAmbiguityCap)

	return clamp(confNeutral+base+penalty+adjustment(result.PredictedCategory, predicted.StrongCount()), 0, 1)
}

// adjustment returns the category-specific confidence bonus once the
// predicted category's own strong evidence clears its bar.
func adjustment(c Category, strong int) float64 {
	switch c {
	case CategoryCustom:
		if strong >= 3 {
			return 0.15
		}
	case CategoryInfrastructure:
		if strong >= 2 {
			return 0.10
		}
	case CategoryNonConfigured, CategoryConfigured:
		if strong >= 2 {
			return 0.05
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
