// Package compliance implements the categorization error taxonomy and the
// no-fallback recovery dispatcher. Every problem detected around a
// categorization (low confidence, ambiguity between competing categories,
// or failures surfaced by surrounding tooling) is classified, recorded to
// the audit trail, and raised to the caller. The handler never substitutes
// a default category or suppresses an error to let a pipeline continue
// with guessed data; GAMP-5 / 21 CFR Part 11 traceability requires every
// automated decision to be either sufficiently confident or explicitly
// escalated.
package compliance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorType identifies the kind of categorization failure.
type ErrorType string

// Categorization error taxonomy.
const (
	ErrorConfidence    ErrorType = "confidence_error"
	ErrorAmbiguity     ErrorType = "ambiguity_error"
	ErrorValidation    ErrorType = "validation_error"
	ErrorIO            ErrorType = "io_error"
	ErrorAgent         ErrorType = "agent_error"
	ErrorWorkflow      ErrorType = "workflow_error"
	ErrorTimeout       ErrorType = "timeout_error"
	ErrorCompliance    ErrorType = "compliance_error"
	ErrorDataIntegrity ErrorType = "data_integrity_error"
)

// Severity grades how serious a categorization error is.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RecoveryStrategy is the action the caller must take for an error.
// There is no retry strategy: repeating the same deterministic
// categorization cannot produce a different answer.
type RecoveryStrategy string

// Recovery strategies.
const (
	StrategyAbort             RecoveryStrategy = "abort"
	StrategyEscalate          RecoveryStrategy = "escalate"
	StrategyHumanIntervention RecoveryStrategy = "human_intervention"
)

// recoveryStrategies is the fixed per-type strategy table.
var recoveryStrategies = map[ErrorType]RecoveryStrategy{
	ErrorValidation:    StrategyAbort,
	ErrorCompliance:    StrategyAbort,
	ErrorDataIntegrity: StrategyAbort,
	ErrorIO:            StrategyEscalate,
	ErrorAgent:         StrategyEscalate,
	ErrorWorkflow:      StrategyEscalate,
	ErrorTimeout:       StrategyEscalate,
	ErrorConfidence:    StrategyHumanIntervention,
	ErrorAmbiguity:     StrategyHumanIntervention,
}

// StrategyFor returns the fixed recovery strategy for an error type.
func StrategyFor(t ErrorType) RecoveryStrategy {
	if s, ok := recoveryStrategies[t]; ok {
		return s
	}
	return StrategyEscalate
}

// CategorizationError is a classified categorization failure. It is
// immutable after construction and carries everything a human reviewer
// needs to see why automated selection was not reliable.
type CategorizationError struct {
	ID         uuid.UUID        `json:"id"`
	Type       ErrorType        `json:"type"`
	Severity   Severity         `json:"severity"`
	Message    string           `json:"message"`
	Details    map[string]any   `json:"details,omitempty"`
	Strategy   RecoveryStrategy `json:"strategy"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Error implements the error interface.
func (e *CategorizationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Type, e.Severity, e.Message)
}

// HumanIntervention reports whether the caller should solicit a human
// review consultation for this error.
func (e *CategorizationError) HumanIntervention() bool {
	return e.Strategy == StrategyHumanIntervention
}

// newError constructs a classified error with a generated ID and timestamp
// and its strategy resolved from the fixed table.
func newError(t ErrorType, severity Severity, message string, details map[string]any) *CategorizationError {
	return &CategorizationError{
		ID:         uuid.New(),
		Type:       t,
		Severity:   severity,
		Message:    message,
		Details:    details,
		Strategy:   StrategyFor(t),
		OccurredAt: time.Now(),
	}
}
