package prompts

const generateSpec = `Respond with a JSON object matching this exact structure:

{
  "test_cases": [
    {
      "case_id": "OQ-001",
      "title": "<short test title>",
      "objective": "<what this test verifies>",
      "prerequisites": ["<precondition>"],
      "steps": [
        {
          "number": 1,
          "action": "<operator action>",
          "expected_result": "<observable outcome>"
        }
      ],
      "acceptance_criteria": "<pass/fail determination>",
      "requirement_refs": ["<URS requirement identifier>"],
      "risk_level": "low"
    }
  ],
  "rationale": "<explanation of test coverage strategy>"
}

Field constraints:
- case_id: Sequential identifiers in the form OQ-NNN, starting at OQ-001.
- title: Concise name for the verification performed.
- objective: One or two sentences stating what requirement behavior the
  test demonstrates.
- prerequisites: System state and materials required before execution.
  Empty array when none apply.
- steps: Ordered executable actions. Every step pairs one operator
  action with one observable expected result.
- acceptance_criteria: The condition that determines pass or fail for
  the whole case.
- requirement_refs: Identifiers of the URS requirements this case
  traces to. At least one entry per case.
- risk_level: One of "low", "medium", "high" reflecting the GxP impact
  of the function under test.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Produce at least the minimum number of test cases stated in the prompt
- Never reference requirements that do not appear in the provided URS
- Expected results must be observable without interpreting internal state`

const refineSpec = `Respond with a JSON object matching this exact structure:

{
  "test_cases": [
    {
      "case_id": "OQ-001",
      "title": "<short test title>",
      "objective": "<what this test verifies>",
      "prerequisites": ["<precondition>"],
      "steps": [
        {
          "number": 1,
          "action": "<operator action>",
          "expected_result": "<observable outcome>"
        }
      ],
      "acceptance_criteria": "<pass/fail determination>",
      "requirement_refs": ["<URS requirement identifier>"],
      "risk_level": "low"
    }
  ],
  "rationale": "<explanation of corrections applied>"
}

Field constraints:
- Identical to the generation stage: the corrected output must satisfy
  the same structure the draft failed to meet.
- rationale: Describe the corrections applied, referencing the
  validation problems from the prompt.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Preserve case identifiers and ordering from the draft wherever possible
- Correct only the reported problems; do not rewrite valid content`

var specs = map[Stage]string{
	StageGenerate: generateSpec,
	StageRefine:   refineSpec,
}

// Spec returns the hardcoded specification for a test generation stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
