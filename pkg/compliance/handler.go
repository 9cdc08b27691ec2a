package compliance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mwhitford/attest/pkg/gamp"
)

// Context is the optional workflow-context collaborator used for
// best-effort audit persistence. The workflow's state bag satisfies it.
// Absence of a Context is a valid configuration, not an error.
type Context interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// ContextKeyErrors is the workflow-context key under which recorded
// errors accumulate as a []*CategorizationError.
const ContextKeyErrors = "categorization_errors"

// Handler detects and dispatches categorization errors for one workflow
// run. It holds the detection thresholds and monotonically increasing
// audit counters. A Handler must not be shared across unrelated runs:
// one handler per logical workflow execution keeps the audit counters
// attributable. Its counters are still serialized for safety when a run
// processes documents concurrently.
type Handler struct {
	cfg    Config
	logger *slog.Logger
	wctx   Context

	mu         sync.Mutex
	errorCount int
	attempts   map[gamp.Category]int
}

// NewHandler creates a Handler with the given thresholds and optional
// workflow context. A nil wctx disables audit persistence; logging still
// records every error.
func NewHandler(cfg Config, logger *slog.Logger, wctx Context) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logger.With("system", "compliance"),
		wctx:     wctx,
		attempts: make(map[gamp.Category]int),
	}
}

// ErrorCount returns the number of errors recorded by this handler.
func (h *Handler) ErrorCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errorCount
}

// Attempts returns the number of errors recorded against a category.
func (h *Handler) Attempts(c gamp.Category) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts[c]
}

// CheckConfidence compares the predicted category's confidence against
// the configured threshold. A sub-threshold confidence yields a recorded
// confidence error carrying the human-intervention strategy; nil means
// the check passed.
func (h *Handler) CheckConfidence(category gamp.Category, confidence float64) *CategorizationError {
	if confidence >= h.cfg.ConfidenceThreshold {
		return nil
	}

	cerr := newError(
		ErrorConfidence,
		SeverityMedium,
		fmt.Sprintf(
			"category %s could not be asserted with sufficient confidence: %.2f < %.2f",
			category, confidence, h.cfg.ConfidenceThreshold,
		),
		map[string]any{
			"category":   category,
			"confidence": confidence,
			"threshold":  h.cfg.ConfidenceThreshold,
		},
	)

	h.record(cerr, category)
	return cerr
}

// CheckAmbiguity inspects a category→confidence mapping for competing
// scores too close to separate. In normal operation the mapping has
// exactly one entry, the predicted category, and the check passes
// trivially; multi-entry input is supported for defensive testing. With
// two or more entries, ambiguity is flagged when the top-two gap falls
// below the tight threshold, or below the loose threshold while the top
// score exceeds the score floor.
func (h *Handler) CheckAmbiguity(scores map[gamp.Category]float64) *CategorizationError {
	if len(scores) < 2 {
		return nil
	}

	ranked := make([]float64, 0, len(scores))
	for _, s := range scores {
		ranked = append(ranked, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ranked)))

	gap := ranked[0] - ranked[1]
	if gap >= h.cfg.AmbiguityGapTight &&
		!(gap < h.cfg.AmbiguityGapLoose && ranked[0] > h.cfg.AmbiguityScoreFloor) {
		return nil
	}

	cerr := newError(
		ErrorAmbiguity,
		SeverityMedium,
		fmt.Sprintf(
			"category could not be asserted: top scores within %.2f of each other",
			gap,
		),
		map[string]any{
			"scores": scores,
			"gap":    gap,
		},
	)

	h.record(cerr, topCategory(scores))
	return cerr
}

// Handle runs the confidence and ambiguity checks for a completed
// analysis. It returns the first detected error, already recorded to the
// audit trail, or nil when the categorization may proceed. It never
// returns a success sentinel alongside a detected problem.
func (h *Handler) Handle(
	scores map[gamp.Category]float64,
	result gamp.AnalysisResult,
) *CategorizationError {
	if cerr := h.CheckConfidence(result.PredictedCategory, scores[result.PredictedCategory]); cerr != nil {
		return cerr
	}
	return h.CheckAmbiguity(scores)
}

// HandleException reclassifies an arbitrary error surfaced from
// surrounding tooling into the categorization taxonomy, records it, and
// returns the classified error for the caller to raise. A nil input
// returns nil.
func (h *Handler) HandleException(err error, details map[string]any) error {
	if err == nil {
		return nil
	}

	var cerr *CategorizationError
	if errors.As(err, &cerr) {
		// Already classified upstream; record-once semantics apply there.
		return cerr
	}

	t, severity := classify(err)
	if details == nil {
		details = make(map[string]any)
	}
	details["cause"] = err.Error()

	classified := newError(t, severity, err.Error(), details)
	h.record(classified, 0)
	return classified
}

// classify assigns a taxonomy type to a foreign error. Structured error
// types are inspected first; message-content matching is a narrow
// best-effort shim for errors raised by uncontrolled third-party
// libraries that carry no usable type.
func classify(err error) (ErrorType, Severity) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout, SeverityHigh
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		errors.As(err, new(*os.PathError)):
		return ErrorIO, SeverityHigh
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"):
		return ErrorValidation, SeverityHigh
	case strings.Contains(msg, "compliance"), strings.Contains(msg, "regulatory"):
		return ErrorCompliance, SeverityCritical
	case strings.Contains(msg, "integrity"):
		return ErrorDataIntegrity, SeverityCritical
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return ErrorTimeout, SeverityHigh
	case strings.Contains(msg, "agent"):
		return ErrorAgent, SeverityMedium
	}

	return ErrorWorkflow, SeverityMedium
}

// record logs the error to the audit trail, increments counters, and
// best-effort appends it to the workflow context. A failed context append
// is logged but never masks the original error.
func (h *Handler) record(cerr *CategorizationError, category gamp.Category) {
	h.mu.Lock()
	h.errorCount++
	if category.Valid() {
		h.attempts[category]++
	}
	h.mu.Unlock()

	h.logger.Error(
		"categorization error recorded",
		"error_id", cerr.ID,
		"type", cerr.Type,
		"severity", cerr.Severity,
		"strategy", cerr.Strategy,
		"message", cerr.Message,
	)

	if h.wctx == nil {
		return
	}

	existing, _ := h.wctx.Get(ContextKeyErrors)
	recorded, ok := existing.([]*CategorizationError)
	if existing != nil && !ok {
		h.logger.Warn(
			"workflow context holds unexpected error list type; skipping audit persistence",
			"error_id", cerr.ID,
		)
		return
	}

	h.wctx.Set(ContextKeyErrors, append(recorded, cerr))
}

func topCategory(scores map[gamp.Category]float64) gamp.Category {
	var top gamp.Category
	best := -1.0
	for c, s := range scores {
		if s > best {
			top, best = c, s
		}
	}
	return top
}
