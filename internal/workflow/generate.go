package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents/pkg/agent"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mwhitford/attest/internal/prompts"
	"github.com/mwhitford/attest/pkg/formatting"
	"github.com/mwhitford/attest/pkg/gamp"
)

// State bag keys used by the generation graph.
const (
	KeyGeneration = "generation"
	KeyDraft      = "draft"
	KeyProblems   = "problems"
)

// GenerationInput carries the approved categorization context that the
// generation prompt embeds alongside the URS text. MinCases scales the
// suite size to the category's validation rigor.
type GenerationInput struct {
	DocumentID       uuid.UUID     `json:"document_id"`
	Category         gamp.Category `json:"gamp_category"`
	Confidence       float64       `json:"confidence"`
	Rationale        string        `json:"rationale"`
	StrongIndicators []string      `json:"strong_indicators"`
	WeakIndicators   []string      `json:"weak_indicators"`
	MinCases         int           `json:"minimum_test_cases"`
}

// SuiteResult is the final output from a generation workflow execution.
type SuiteResult struct {
	Cases       []TestCase
	Rationale   string
	CompletedAt time.Time
}

// GenerateSuite runs the OQ generation workflow for a single document.
// The graph loads the document text, drafts a suite via the agent, and
// refines the draft once when structural validation finds problems. A
// draft that fails validation after refinement is an error; no partial
// suite is ever returned.
func GenerateSuite(ctx context.Context, rt *Runtime, input GenerationInput) (*SuiteResult, error) {
	graph, err := buildGenerateGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyDocumentID, input.DocumentID)
	initialState = initialState.Set(KeyGeneration, input)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractSuite(finalState)
}

func buildGenerateGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("attest-generate")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("load", LoadNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("draft", DraftNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("refine", RefineNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("accept", AcceptNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("load", "draft", nil); err != nil {
		return nil, err
	}

	// draft → refine (when structural validation found problems)
	if err := graph.AddEdge("draft", "refine", hasProblems); err != nil {
		return nil, err
	}

	// draft → accept (clean draft)
	if err := graph.AddEdge("draft", "accept", state.Not(hasProblems)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("refine", "accept", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("load"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("accept"); err != nil {
		return nil, err
	}

	return graph, nil
}

// DraftNode returns a state node that performs the initial suite draft:
// a single Chat inference over the generation prompt and URS text, with
// the response parsed and structurally validated. Validation problems
// route the graph through the refine node rather than failing the run.
func DraftNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		input, err := extractGeneration(s)
		if err != nil {
			return s, fmt.Errorf("draft: %w", err)
		}

		text, err := extractText(s)
		if err != nil {
			return s, fmt.Errorf("draft: %w", err)
		}

		prompt, err := composeGeneratePrompt(ctx, rt.Prompts, prompts.StageGenerate, input, text, nil, nil)
		if err != nil {
			return s, fmt.Errorf("draft: %w", err)
		}

		draft, err := infer(ctx, rt, prompt)
		if err != nil {
			return s, fmt.Errorf("draft: %w", err)
		}

		problems := validateDraft(draft, input.MinCases)

		rt.Logger.InfoContext(
			ctx, "draft node complete",
			"document_id", input.DocumentID,
			"test_cases", len(draft.TestCases),
			"problems", len(problems),
		)

		s = s.Set(KeyDraft, draft)
		s = s.Set(KeyProblems, problems)
		return s, nil
	})
}

// RefineNode returns a state node that sends a structurally invalid
// draft back to the agent with the problem list and revalidates the
// revision. One refinement pass is all the draft gets.
func RefineNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		input, err := extractGeneration(s)
		if err != nil {
			return s, fmt.Errorf("refine: %w", err)
		}

		text, err := extractText(s)
		if err != nil {
			return s, fmt.Errorf("refine: %w", err)
		}

		draft, err := extractDraft(s)
		if err != nil {
			return s, fmt.Errorf("refine: %w", err)
		}

		problems := extractProblems(s)

		prompt, err := composeGeneratePrompt(ctx, rt.Prompts, prompts.StageRefine, input, text, &draft, problems)
		if err != nil {
			return s, fmt.Errorf("refine: %w", err)
		}

		revised, err := infer(ctx, rt, prompt)
		if err != nil {
			return s, fmt.Errorf("refine: %w", err)
		}

		remaining := validateDraft(revised, input.MinCases)

		rt.Logger.InfoContext(
			ctx, "refine node complete",
			"document_id", input.DocumentID,
			"test_cases", len(revised.TestCases),
			"problems_remaining", len(remaining),
		)

		s = s.Set(KeyDraft, revised)
		s = s.Set(KeyProblems, remaining)
		return s, nil
	})
}

// AcceptNode returns a state node that rejects the run when validation
// problems survive refinement. A suite that reaches the exit point is
// structurally sound.
func AcceptNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		input, err := extractGeneration(s)
		if err != nil {
			return s, fmt.Errorf("accept: %w", err)
		}

		if problems := extractProblems(s); len(problems) > 0 {
			return s, fmt.Errorf("accept: %w: %s", ErrSuiteInvalid, strings.Join(problems, "; "))
		}

		draft, err := extractDraft(s)
		if err != nil {
			return s, fmt.Errorf("accept: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "accept node complete",
			"document_id", input.DocumentID,
			"test_cases", len(draft.TestCases),
		)

		return s, nil
	})
}

func infer(ctx context.Context, rt *Runtime, prompt string) (suiteResponse, error) {
	a, err := agent.New(&rt.Agent)
	if err != nil {
		return suiteResponse{}, fmt.Errorf("%w: create agent: %w", ErrGenerateFailed, err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return suiteResponse{}, fmt.Errorf("%w: chat call: %w", ErrGenerateFailed, err)
	}

	parsed, err := formatting.Parse[suiteResponse](resp.Content())
	if err != nil {
		return suiteResponse{}, fmt.Errorf("%w: parse response: %w", ErrGenerateFailed, err)
	}

	return parsed, nil
}

// composeGeneratePrompt builds a system prompt from tunable instructions,
// the immutable response spec, the categorization context, and the URS
// text. The refine stage additionally embeds the prior draft and its
// validation problems.
func composeGeneratePrompt(
	ctx context.Context,
	ps prompts.System,
	stage prompts.Stage,
	input GenerationInput,
	text string,
	draft *suiteResponse,
	problems []string,
) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	contextJSON, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize generation context: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	sb.WriteString("\n\nCategorization context:\n\n")
	sb.Write(contextJSON)
	sb.WriteString("\n\nURS document text:\n\n")
	sb.WriteString(text)

	if draft != nil {
		draftJSON, err := json.MarshalIndent(draft, "", "  ")
		if err != nil {
			return "", fmt.Errorf("serialize draft: %w", err)
		}

		sb.WriteString("\n\nPrevious draft:\n\n")
		sb.Write(draftJSON)
		sb.WriteString("\n\nValidation problems to fix:\n")
		for _, p := range problems {
			sb.WriteString("- ")
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func extractSuite(s state.State) (*SuiteResult, error) {
	draft, err := extractDraft(s)
	if err != nil {
		return nil, err
	}

	return &SuiteResult{
		Cases:       draft.TestCases,
		Rationale:   draft.Rationale,
		CompletedAt: time.Now(),
	}, nil
}

func extractGeneration(s state.State) (GenerationInput, error) {
	v, ok := s.Get(KeyGeneration)
	if !ok {
		return GenerationInput{}, fmt.Errorf("missing %s in state", KeyGeneration)
	}

	input, ok := v.(GenerationInput)
	if !ok {
		return GenerationInput{}, fmt.Errorf("%s is not GenerationInput", KeyGeneration)
	}

	return input, nil
}

func extractText(s state.State) (string, error) {
	v, ok := s.Get(KeyText)
	if !ok {
		return "", fmt.Errorf("missing %s in state", KeyText)
	}

	text, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is not string", KeyText)
	}

	return text, nil
}

func extractDraft(s state.State) (suiteResponse, error) {
	v, ok := s.Get(KeyDraft)
	if !ok {
		return suiteResponse{}, fmt.Errorf("missing %s in state", KeyDraft)
	}

	draft, ok := v.(suiteResponse)
	if !ok {
		return suiteResponse{}, fmt.Errorf("%s is not a suite draft", KeyDraft)
	}

	return draft, nil
}

func extractProblems(s state.State) []string {
	v, ok := s.Get(KeyProblems)
	if !ok {
		return nil
	}

	problems, _ := v.([]string)
	return problems
}

func hasProblems(s state.State) bool {
	return len(extractProblems(s)) > 0
}
