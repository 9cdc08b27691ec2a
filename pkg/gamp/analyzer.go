package gamp

import (
	"fmt"
	"strings"
)

// CategoryAnalysis is the per-category evidence found by one analysis pass.
// Matched phrases are recorded in table order; exclusion factors are listed
// only when they survived negation filtering.
type CategoryAnalysis struct {
	Category              Category `json:"category"`
	StrongIndicatorsFound []string `json:"strong_indicators_found"`
	WeakIndicatorsFound   []string `json:"weak_indicators_found"`
	ExclusionFactorsFound []string `json:"exclusion_factors_found"`
}

// StrongCount returns the number of strong indicators found.
func (a CategoryAnalysis) StrongCount() int { return len(a.StrongIndicatorsFound) }

// WeakCount returns the number of weak indicators found.
func (a CategoryAnalysis) WeakCount() int { return len(a.WeakIndicatorsFound) }

// ExclusionCount returns the number of exclusion factors that survived
// negation filtering.
func (a CategoryAnalysis) ExclusionCount() int { return len(a.ExclusionFactorsFound) }

// AnalysisResult aggregates the evidence for all categories together with
// the predicted category and its rationale. CategoryScores is retained for
// rationale and debugging only; downstream confidence never reads it.
type AnalysisResult struct {
	PredictedCategory Category                      `json:"predicted_category"`
	DecisionRationale string                        `json:"decision_rationale"`
	Analyses          map[Category]CategoryAnalysis `json:"analyses"`
	CategoryScores    map[Category]int              `json:"category_scores"`
}

// Predicted returns the CategoryAnalysis for the predicted category.
func (r AnalysisResult) Predicted() CategoryAnalysis {
	return r.Analyses[r.PredictedCategory]
}

// negationTemplates are instantiated with each found exclusion phrase;
// if any instantiation appears in the normalized text, the exclusion is
// dropped. URS text frequently states capabilities in negated form
// ("no custom business logic"); without this filter a plain substring
// match would produce systematic false exclusions.
var negationTemplates = []string{
	"without %s",
	"without any %s",
	"no %s",
	"not %s",
	"standard %s only",
	"basic %s",
	"minimal %s",
}

// fixedNegations negate any exclusion phrase containing the mapped
// fragment, independent of the templates above.
var fixedNegations = map[string]string{
	"custom":  "no custom",
	"bespoke": "no bespoke",
}

// Normalize lower-cases text and collapses all whitespace runs (including
// newlines) to single spaces, making phrase matching robust to markdown
// formatting and line wrapping. The transform is lossy by design and
// idempotent.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Analyze scans URS document text against the static indicator tables and
// returns the evidence tally for every category plus the predicted
// category. It is a pure function of its input and the tables: no side
// effects, no errors. Text with no indicators at all yields the Category 3
// default with empty evidence; absence of evidence is a confidence
// problem for the next layer, not an analysis error.
func Analyze(documentText string) AnalysisResult {
	normalized := Normalize(documentText)

	analyses := make(map[Category]CategoryAnalysis, len(indicatorSets))
	scores := make(map[Category]int, len(indicatorSets))

	for _, c := range Categories() {
		analysis := analyzeCategory(normalized, indicatorSets[c])
		analyses[c] = analysis
		scores[c] = score(c, analysis)
	}

	predicted, rationale := selectCategory(analyses, scores)

	return AnalysisResult{
		PredictedCategory: predicted,
		DecisionRationale: rationale,
		Analyses:          analyses,
		CategoryScores:    scores,
	}
}

func analyzeCategory(normalized string, set IndicatorSet) CategoryAnalysis {
	analysis := CategoryAnalysis{Category: set.Category}

	for _, phrase := range set.StrongIndicators {
		if strings.Contains(normalized, phrase) {
			analysis.StrongIndicatorsFound = append(analysis.StrongIndicatorsFound, phrase)
		}
	}

	for _, phrase := range set.WeakIndicators {
		if strings.Contains(normalized, phrase) {
			analysis.WeakIndicatorsFound = append(analysis.WeakIndicatorsFound, phrase)
		}
	}

	for _, phrase := range set.ExclusionFactors {
		if strings.Contains(normalized, phrase) && !negated(normalized, phrase) {
			analysis.ExclusionFactorsFound = append(analysis.ExclusionFactorsFound, phrase)
		}
	}

	return analysis
}

// negated reports whether an exclusion phrase appears in a negating
// construction anywhere in the normalized text.
func negated(normalized, phrase string) bool {
	for _, tmpl := range negationTemplates {
		if strings.Contains(normalized, fmt.Sprintf(tmpl, phrase)) {
			return true
		}
	}

	for fragment, negation := range fixedNegations {
		if strings.Contains(phrase, fragment) && strings.Contains(normalized, negation) {
			return true
		}
	}

	return false
}

func score(c Category, a CategoryAnalysis) int {
	s := a.StrongCount()*weightStrong +
		a.WeakCount()*weightWeak +
		a.ExclusionCount()*weightExclusion
	return s + bonus(c, a.StrongCount(), a.ExclusionCount())
}

// selectCategory applies the ordered-gate selection policy: categories are
// evaluated in the fixed priority order [1, 5, 4, 3] and the first whose
// gate passes wins. When no gate passes, Category 3 is the default: the
// lowest-commitment category is the safe answer when evidence is weak.
func selectCategory(
	analyses map[Category]CategoryAnalysis,
	scores map[Category]int,
) (Category, string) {
	for _, c := range gateOrder {
		a := analyses[c]
		if meetsGate(c, a, scores[c]) {
			return c, gateRationale(c, a, scores[c])
		}
	}

	d := analyses[CategoryNonConfigured]
	return CategoryNonConfigured, fmt.Sprintf(
		"Category 3 (%s) selected by default: no category gate passed "+
			"(strong=%d, weak=%d, exclusions=%d, score=%d)",
		CategoryNonConfigured.Name(),
		d.StrongCount(), d.WeakCount(), d.ExclusionCount(),
		scores[CategoryNonConfigured],
	)
}

func gateRationale(c Category, a CategoryAnalysis, score int) string {
	return fmt.Sprintf(
		"Category %s (%s) selected by gate: strong=%d %v, weak=%d, "+
			"exclusions=%d %v, score=%d",
		c, c.Name(),
		a.StrongCount(), a.StrongIndicatorsFound,
		a.WeakCount(),
		a.ExclusionCount(), a.ExclusionFactorsFound,
		score,
	)
}
