package categorizations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/internal/documents"
	"github.com/mwhitford/attest/internal/workflow"
	"github.com/mwhitford/attest/pkg/compliance"
	"github.com/mwhitford/attest/pkg/gamp"
	"github.com/mwhitford/attest/pkg/pagination"
	"github.com/mwhitford/attest/pkg/query"
	"github.com/mwhitford/attest/pkg/repository"
)

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a categorization repository implementing the System
// interface. It internally constructs the analysis workflow runtime from
// the provided dependencies.
func New(
	db *sql.DB,
	compliance compliance.Config,
	logger *slog.Logger,
	pagination pagination.Config,
	docs documents.System,
) System {
	rt := &workflow.Runtime{
		Documents:  docs,
		Compliance: compliance,
		Logger:     logger.With("workflow", "categorize"),
	}
	return &repo{
		db:         db,
		rt:         rt,
		logger:     logger.With("system", "categorizations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Categorization], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Rationale")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count categorizations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCategorization)
	if err != nil {
		return nil, fmt.Errorf("query categorizations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Categorization, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCategorization)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindByDocument(ctx context.Context, documentID uuid.UUID) (*Categorization, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCategorization)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

// Categorize runs the analysis workflow for a document and persists the
// outcome. Every categorization error detected during the run lands in
// the audit trail before anything else is decided. Abort and escalate
// failures propagate to the caller with nothing stored; a result that
// needs human review is stored with requires_review set and the document
// parked in in_review.
func (r *repo) Categorize(ctx context.Context, documentID uuid.UUID) (*Categorization, error) {
	result, err := workflow.Execute(ctx, r.rt, documentID)

	if result != nil {
		r.recordErrors(ctx, documentID, result.Errors)
	}

	if err != nil {
		return nil, fmt.Errorf("categorize document %s: %w", documentID, err)
	}

	predicted := result.Analysis.Predicted()
	requiresReview := result.Failure != nil

	strongJSON, weakJSON, exclusionJSON, scoresJSON, err := marshalEvidence(result.Analysis)
	if err != nil {
		return nil, err
	}

	upsertQ := `
		INSERT INTO categorizations(
			document_id, category, confidence, rationale,
			strong_indicators, weak_indicators, exclusion_factors,
			category_scores, requires_review
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id) DO UPDATE SET
			category = EXCLUDED.category,
			confidence = EXCLUDED.confidence,
			rationale = EXCLUDED.rationale,
			strong_indicators = EXCLUDED.strong_indicators,
			weak_indicators = EXCLUDED.weak_indicators,
			exclusion_factors = EXCLUDED.exclusion_factors,
			category_scores = EXCLUDED.category_scores,
			requires_review = EXCLUDED.requires_review,
			categorized_at = NOW(),
			validated_by = NULL,
			validated_at = NULL
		RETURNING id, document_id, category, confidence, rationale,
				  strong_indicators, weak_indicators, exclusion_factors,
				  category_scores, requires_review, categorized_at,
				  validated_by, validated_at`

	upsertArgs := []any{
		documentID,
		int(result.Analysis.PredictedCategory),
		result.Confidence,
		result.Analysis.DecisionRationale,
		strongJSON,
		weakJSON,
		exclusionJSON,
		scoresJSON,
		requiresReview,
	}

	status := documents.StatusCategorized
	if requiresReview {
		status = documents.StatusInReview
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Categorization, error) {
		cat, err := repository.QueryOne(ctx, tx, upsertQ, upsertArgs, scanCategorization)
		if err != nil {
			return Categorization{}, fmt.Errorf("upsert categorization: %w", err)
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2",
			status, documentID,
		); err != nil {
			return Categorization{}, fmt.Errorf("update document status: %w", err)
		}

		return cat, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document categorized",
		"id", c.ID,
		"document_id", documentID,
		"category", c.Category,
		"confidence", c.Confidence,
		"requires_review", c.RequiresReview,
		"strong_indicators", predicted.StrongCount(),
	)
	return &c, nil
}

func (r *repo) Validate(ctx context.Context, id uuid.UUID, cmd ValidateCommand) (*Categorization, error) {
	if cmd.ValidatedBy == "" {
		return nil, ErrNoIdentity
	}

	validateQ := `
		UPDATE categorizations
		SET validated_by = $1, validated_at = NOW(), requires_review = FALSE
		WHERE id = $2
		RETURNING id, document_id, category, confidence, rationale,
				  strong_indicators, weak_indicators, exclusion_factors,
				  category_scores, requires_review, categorized_at,
				  validated_by, validated_at`

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Categorization, error) {
		cat, err := repository.QueryOne(ctx, tx, validateQ, []any{cmd.ValidatedBy, id}, scanCategorization)
		if err != nil {
			return Categorization{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE documents SET status = 'complete', updated_at = NOW() WHERE id = $1 AND status IN ('categorized', 'in_review')",
			cat.DocumentID,
		); err != nil {
			return Categorization{}, ErrInvalidStatus
		}

		return cat, nil
	})

	if err != nil {
		return nil, err
	}

	r.logger.Info("categorization validated",
		"id", c.ID,
		"validated_by", c.ValidatedBy,
	)
	return &c, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Categorization, error) {
	if _, err := gamp.ParseCategory(cmd.Category); err != nil {
		return nil, ErrInvalidCategory
	}
	if cmd.UpdatedBy == "" {
		return nil, ErrNoIdentity
	}

	updateQ := `
		UPDATE categorizations
		SET category = $1, rationale = $2, requires_review = FALSE,
			validated_by = $3, validated_at = NOW()
		WHERE id = $4
		RETURNING id, document_id, category, confidence, rationale,
				  strong_indicators, weak_indicators, exclusion_factors,
				  category_scores, requires_review, categorized_at,
				  validated_by, validated_at`

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Categorization, error) {
		cat, err := repository.QueryOne(ctx, tx, updateQ,
			[]any{cmd.Category, cmd.Rationale, cmd.UpdatedBy, id},
			scanCategorization,
		)
		if err != nil {
			return Categorization{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE documents SET status = 'complete', updated_at = NOW() WHERE id = $1 AND status IN ('categorized', 'in_review')",
			cat.DocumentID,
		); err != nil {
			return Categorization{}, ErrInvalidStatus
		}

		return cat, nil
	})

	if err != nil {
		return nil, err
	}

	r.logger.Info("categorization corrected",
		"id", c.ID,
		"category", c.Category,
		"updated_by", cmd.UpdatedBy,
	)
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM categorizations WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("categorization deleted", "id", id)
	return nil
}

func (r *repo) ListErrors(
	ctx context.Context,
	page pagination.PageRequest,
	filters ErrorFilters,
) (*pagination.PageResult[ErrorRecord], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(errorProjection, errorSort).
		WhereSearch(page.Search, "Message")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count categorization errors: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanErrorRecord)
	if err != nil {
		return nil, fmt.Errorf("query categorization errors: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

// recordErrors persists audit records outside the categorization
// transaction: the trail must survive even when nothing else is stored.
func (r *repo) recordErrors(ctx context.Context, documentID uuid.UUID, errs []*compliance.CategorizationError) {
	for _, cerr := range errs {
		detailsJSON, err := json.Marshal(cerr.Details)
		if err != nil {
			r.logger.Warn("marshal error details failed", "error_id", cerr.ID, "error", err)
			detailsJSON = []byte("{}")
		}

		_, err = r.db.ExecContext(
			ctx,
			`INSERT INTO categorization_errors(id, document_id, error_type, severity, message, strategy, details, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			cerr.ID,
			documentID,
			string(cerr.Type),
			string(cerr.Severity),
			cerr.Message,
			string(cerr.Strategy),
			detailsJSON,
			cerr.OccurredAt,
		)
		if err != nil {
			r.logger.Error("persist categorization error failed", "error_id", cerr.ID, "error", err)
		}
	}
}

func marshalEvidence(analysis gamp.AnalysisResult) (strong, weak, exclusion, scores []byte, err error) {
	predicted := analysis.Predicted()

	if strong, err = json.Marshal(emptyIfNil(predicted.StrongIndicatorsFound)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal strong indicators: %w", err)
	}
	if weak, err = json.Marshal(emptyIfNil(predicted.WeakIndicatorsFound)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal weak indicators: %w", err)
	}
	if exclusion, err = json.Marshal(emptyIfNil(predicted.ExclusionFactorsFound)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal exclusion factors: %w", err)
	}

	scoreMap := make(map[string]int, len(analysis.CategoryScores))
	for c, s := range analysis.CategoryScores {
		scoreMap[c.String()] = s
	}
	if scores, err = json.Marshal(scoreMap); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal category scores: %w", err)
	}

	return strong, weak, exclusion, scores, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
