package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// TestStep is a single numbered action within an OQ test case.
type TestStep struct {
	Number         int    `json:"number"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
}

// TestCase is a single OQ test case produced by the generation graph.
// CaseID follows the OQ-NNN convention.
type TestCase struct {
	CaseID             string     `json:"case_id"`
	Title              string     `json:"title"`
	Objective          string     `json:"objective"`
	Prerequisites      []string   `json:"prerequisites"`
	Steps              []TestStep `json:"steps"`
	AcceptanceCriteria []string   `json:"acceptance_criteria"`
	RequirementRefs    []string   `json:"requirement_refs"`
	RiskLevel          string     `json:"risk_level"`
}

type suiteResponse struct {
	TestCases []TestCase `json:"test_cases"`
	Rationale string     `json:"rationale"`
}

var caseIDPattern = regexp.MustCompile(`^OQ-\d{3}$`)

// validateDraft checks a drafted suite against the structural contract
// the generation spec demands. It returns a problem list suitable for
// feeding back into the refine stage; an empty list means the draft is
// acceptable.
func validateDraft(draft suiteResponse, minCases int) []string {
	var problems []string

	if len(draft.TestCases) < minCases {
		problems = append(problems, fmt.Sprintf(
			"suite has %d test cases but requires at least %d",
			len(draft.TestCases), minCases,
		))
	}

	seen := make(map[string]bool, len(draft.TestCases))
	for i, tc := range draft.TestCases {
		label := tc.CaseID
		if label == "" {
			label = fmt.Sprintf("test case at index %d", i)
		}

		if !caseIDPattern.MatchString(tc.CaseID) {
			problems = append(problems, fmt.Sprintf(
				"%s: case_id must match OQ-NNN", label,
			))
		}

		if seen[tc.CaseID] {
			problems = append(problems, fmt.Sprintf(
				"%s: duplicate case_id", label,
			))
		}
		seen[tc.CaseID] = true

		if strings.TrimSpace(tc.Title) == "" {
			problems = append(problems, fmt.Sprintf("%s: title is empty", label))
		}

		if strings.TrimSpace(tc.Objective) == "" {
			problems = append(problems, fmt.Sprintf("%s: objective is empty", label))
		}

		if len(tc.Steps) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no steps", label))
		}

		for _, step := range tc.Steps {
			if strings.TrimSpace(step.Action) == "" {
				problems = append(problems, fmt.Sprintf(
					"%s step %d: action is empty", label, step.Number,
				))
			}
			if strings.TrimSpace(step.ExpectedResult) == "" {
				problems = append(problems, fmt.Sprintf(
					"%s step %d: expected_result is empty", label, step.Number,
				))
			}
		}

		if len(tc.AcceptanceCriteria) == 0 {
			problems = append(problems, fmt.Sprintf(
				"%s: no acceptance criteria", label,
			))
		}

		switch tc.RiskLevel {
		case "low", "medium", "high":
		default:
			problems = append(problems, fmt.Sprintf(
				"%s: risk_level must be low, medium, or high", label,
			))
		}
	}

	return problems
}
