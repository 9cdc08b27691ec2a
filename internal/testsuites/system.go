package testsuites

import (
	"context"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/pkg/pagination"
)

// System defines the public contract for test suite domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[TestSuite], error)

	Find(ctx context.Context, id uuid.UUID) (*TestSuite, error)
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*TestSuite, error)
	Generate(ctx context.Context, documentID uuid.UUID) (*TestSuite, error)
	GenerateBatch(ctx context.Context, documentIDs []uuid.UUID) ([]*TestSuite, error)
	Approve(ctx context.Context, id uuid.UUID, cmd ApproveCommand) (*TestSuite, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
