package gamp

// Scoring weights applied to indicator tallies. These are empirically tuned
// constants of the categorization design, preserved exactly; changing them
// changes categorization outcomes on real regulatory documents.
const (
	weightStrong    = 3
	weightWeak      = 1
	weightExclusion = -2
)

// IndicatorSet is the static evidence configuration for one category.
// Strong indicators carry decisive weight, weak indicators corroborate,
// and exclusion factors argue against the category unless negated in the
// source text. Sets are built once at package init and never mutated.
type IndicatorSet struct {
	Category         Category
	StrongIndicators []string
	WeakIndicators   []string
	ExclusionFactors []string
}

// gateOrder is the fixed category evaluation priority. The infrastructure
// and fully-custom extremes are checked before the intermediate categories
// so that decisive evidence at either end wins before configuration
// evidence is considered. Category 3 is the safe default when no gate
// passes.
var gateOrder = []Category{
	CategoryInfrastructure,
	CategoryCustom,
	CategoryConfigured,
	CategoryNonConfigured,
}

// indicatorSets holds the per-category evidence tables, keyed by category.
// All phrases are lower-case; matching happens on normalized text via plain
// substring containment, so multi-word phrases match across original line
// breaks and fragments match inside longer words (e.g. "custom" inside
// "customized"). This is intended behavior the tables were tuned against.
var indicatorSets = map[Category]IndicatorSet{
	// Category 1 scores on platform/runtime language. Bonus: +2 when at
	// least one strong indicator appears with no surviving exclusions;
	// absence of application-level customization is itself evidence of
	// infrastructure software.
	CategoryInfrastructure: {
		Category: CategoryInfrastructure,
		StrongIndicators: []string{
			"operating system",
			"database engine",
			"network infrastructure",
			"virtualization platform",
			"middleware layer",
			"laboratory information infrastructure",
		},
		WeakIndicators: []string{
			"infrastructure software",
			"system software",
			"platform component",
			"runtime environment",
			"server hardware",
		},
		ExclusionFactors: []string{
			"custom business logic",
			"configured workflow",
			"bespoke",
			"gxp-critical calculation",
		},
	},

	// Category 3 scores on unmodified vendor-product language. Bonus: +1
	// when at least one strong indicator appears with no surviving
	// exclusions.
	CategoryNonConfigured: {
		Category: CategoryNonConfigured,
		StrongIndicators: []string{
			"commercial off-the-shelf",
			"vendor-supplied software",
			"standard configuration",
			"used as supplied",
			"default settings",
			"off-the-shelf package",
		},
		WeakIndicators: []string{
			"standard software",
			"vendor manual",
			"packaged solution",
			"standard installation",
			"vendor default",
		},
		ExclusionFactors: []string{
			"customization",
			"custom code",
			"bespoke",
			"user-defined calculation",
			"configured workflow",
		},
	},

	// Category 4 scores on configuration-of-vendor-product language.
	// Bonus: +1 when two or more strong indicators appear.
	CategoryConfigured: {
		Category: CategoryConfigured,
		StrongIndicators: []string{
			"configured workflow",
			"user-configurable",
			"configuration parameters",
			"workflow configuration",
			"configured to match",
			"business rules engine",
		},
		WeakIndicators: []string{
			"configuration",
			"workflow",
			"interface",
			"parameter",
			"report format",
		},
		ExclusionFactors: []string{
			"custom code",
			"bespoke development",
			"used as supplied",
		},
	},

	// Category 5 scores on custom-development language. Bonus: +2 when
	// three or more strong indicators appear (overwhelming custom
	// evidence).
	CategoryCustom: {
		Category: CategoryCustom,
		StrongIndicators: []string{
			"custom-developed",
			"custom development",
			"bespoke solution",
			"proprietary algorithm",
			"bespoke analytics",
			"custom calculation engine",
			"custom audit trail",
			"developed in-house",
		},
		WeakIndicators: []string{
			"custom",
			"bespoke",
			"proprietary",
			"in-house",
			"tailored",
		},
		ExclusionFactors: []string{
			"vendor-supplied",
			"commercial off-the-shelf",
			"unmodified vendor",
			"standard configuration only",
		},
	},
}

// Indicators returns the static indicator table for a category.
// The returned set shares the package-level slices; callers must not
// modify it.
func Indicators(c Category) (IndicatorSet, bool) {
	set, ok := indicatorSets[c]
	return set, ok
}

// bonus returns the category-specific score bonus for the given tallies.
func bonus(c Category, strong, exclusions int) int {
	switch c {
	case CategoryInfrastructure:
		if strong >= 1 && exclusions == 0 {
			return 2
		}
	case CategoryNonConfigured:
		if strong >= 1 && exclusions == 0 {
			return 1
		}
	case CategoryConfigured:
		if strong >= 2 {
			return 1
		}
	case CategoryCustom:
		if strong >= 3 {
			return 2
		}
	}
	return 0
}

// meetsGate reports whether a category's evidence clears its selection
// gate. Gates encode that certain categories require corroborating
// evidence, not just a numerically higher score: the extremes (1 and 5)
// and the intermediate categories each have their own bar.
func meetsGate(c Category, a CategoryAnalysis, score int) bool {
	switch c {
	case CategoryInfrastructure:
		return a.StrongCount() >= 1 && a.ExclusionCount() == 0
	case CategoryCustom:
		return a.StrongCount() >= 1 && score > 0
	case CategoryConfigured:
		return a.StrongCount() >= 1 && score > 0
	case CategoryNonConfigured:
		return a.StrongCount() >= 1 && a.ExclusionCount() == 0
	}
	return false
}
