package testsuites

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/mwhitford/attest/internal/categorizations"
	"github.com/mwhitford/attest/internal/documents"
	"github.com/mwhitford/attest/internal/prompts"
	"github.com/mwhitford/attest/internal/workflow"
	"github.com/mwhitford/attest/pkg/gamp"
	"github.com/mwhitford/attest/pkg/pagination"
	"github.com/mwhitford/attest/pkg/query"
	"github.com/mwhitford/attest/pkg/repository"
)

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	cats       categorizations.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a test suite repository implementing the System interface.
// It internally constructs the generation workflow runtime from the
// provided dependencies.
func New(
	db *sql.DB,
	agent gaconfig.AgentConfig,
	logger *slog.Logger,
	pagination pagination.Config,
	docs documents.System,
	cats categorizations.System,
	prompts prompts.System,
) System {
	rt := &workflow.Runtime{
		Agent:     agent,
		Documents: docs,
		Prompts:   prompts,
		Logger:    logger.With("workflow", "generate"),
	}
	return &repo{
		db:         db,
		rt:         rt,
		cats:       cats,
		logger:     logger.With("system", "testsuites"),
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
) (*pagination.PageResult[TestSuite], error) {
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
		return nil, fmt.Errorf("count test suites: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	suites, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTestSuite)
	if err != nil {
		return nil, fmt.Errorf("query test suites: %w", err)
	}

	result := pagination.NewPageResult(suites, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*TestSuite, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanTestSuite)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) FindByDocument(ctx context.Context, documentID uuid.UUID) (*TestSuite, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanTestSuite)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

// Generate runs the OQ generation workflow for a document and persists
// the resulting suite. Generation requires an approved categorization:
// either the analyzer was confident on its own or a human validated the
// result. Regeneration replaces the existing suite and clears any prior
// approval.
func (r *repo) Generate(ctx context.Context, documentID uuid.UUID) (*TestSuite, error) {
	cat, err := r.cats.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("find categorization for %s: %w", documentID, err)
	}

	if !cat.Approved() {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNotApproved)
	}

	input := workflow.GenerationInput{
		DocumentID:       documentID,
		Category:         gamp.Category(cat.Category),
		Confidence:       cat.Confidence,
		Rationale:        cat.Rationale,
		StrongIndicators: cat.StrongIndicators,
		WeakIndicators:   cat.WeakIndicators,
		MinCases:         minCaseCount(gamp.Category(cat.Category)),
	}

	result, err := workflow.GenerateSuite(ctx, r.rt, input)
	if err != nil {
		return nil, fmt.Errorf("generate suite for %s: %w", documentID, err)
	}

	casesJSON, err := json.Marshal(result.Cases)
	if err != nil {
		return nil, fmt.Errorf("marshal cases: %w", err)
	}

	upsertQ := `
		INSERT INTO test_suites(
			document_id, category, cases, rationale, model_name, provider_name
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id) DO UPDATE SET
			category = EXCLUDED.category,
			cases = EXCLUDED.cases,
			rationale = EXCLUDED.rationale,
			generated_at = NOW(),
			model_name = EXCLUDED.model_name,
			provider_name = EXCLUDED.provider_name,
			approved_by = NULL,
			approved_at = NULL
		RETURNING id, document_id, category, cases, rationale, model_name,
				  provider_name, generated_at, approved_by, approved_at`

	upsertArgs := []any{
		documentID,
		cat.Category,
		casesJSON,
		result.Rationale,
		r.rt.Agent.Model.Name,
		r.rt.Agent.Provider.Name,
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (TestSuite, error) {
		return repository.QueryOne(ctx, tx, upsertQ, upsertArgs, scanTestSuite)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("test suite generated",
		"id", s.ID,
		"document_id", documentID,
		"category", s.Category,
		"test_cases", len(s.Cases),
	)
	return &s, nil
}

// GenerateBatch runs Generate for each document concurrently with a
// bounded worker pool. Suites persist individually as workers finish;
// a failure cancels outstanding workers but already persisted suites
// remain.
func (r *repo) GenerateBatch(ctx context.Context, documentIDs []uuid.UUID) ([]*TestSuite, error) {
	if len(documentIDs) == 0 {
		return nil, ErrNoDocuments
	}

	var mu sync.Mutex
	suites := make([]*TestSuite, 0, len(documentIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(documentIDs)))

	for _, documentID := range documentIDs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			s, err := r.Generate(gctx, documentID)
			if err != nil {
				return err
			}

			mu.Lock()
			suites = append(suites, s)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate batch: %w", err)
	}

	r.logger.Info("test suite batch generated", "count", len(suites))
	return suites, nil
}

func (r *repo) Approve(ctx context.Context, id uuid.UUID, cmd ApproveCommand) (*TestSuite, error) {
	if cmd.ApprovedBy == "" {
		return nil, ErrNoIdentity
	}

	q := `
		UPDATE test_suites
		SET approved_by = $1, approved_at = NOW()
		WHERE id = $2
		RETURNING id, document_id, category, cases, rationale, model_name,
				  provider_name, generated_at, approved_by, approved_at`

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (TestSuite, error) {
		return repository.QueryOne(ctx, tx, q, []any{cmd.ApprovedBy, id}, scanTestSuite)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("test suite approved",
		"id", s.ID,
		"approved_by", cmd.ApprovedBy,
	)
	return &s, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM test_suites WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("test suite deleted", "id", id)
	return nil
}

// minCaseCount scales suite size to the category's validation rigor.
// Custom applications carry the most validation burden; infrastructure
// software the least.
func minCaseCount(c gamp.Category) int {
	switch c {
	case gamp.CategoryCustom:
		return 12
	case gamp.CategoryConfigured:
		return 8
	case gamp.CategoryNonConfigured:
		return 5
	default:
		return 3
	}
}

func workerCount(jobs int) int {
	return max(min(runtime.NumCPU(), jobs), 1)
}
