package categorizations

import (
	"context"

	"github.com/google/uuid"

	"github.com/mwhitford/attest/pkg/pagination"
)

// System defines the public contract for categorization domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Categorization], error)

	Find(ctx context.Context, id uuid.UUID) (*Categorization, error)
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*Categorization, error)
	Categorize(ctx context.Context, documentID uuid.UUID) (*Categorization, error)
	Validate(ctx context.Context, id uuid.UUID, cmd ValidateCommand) (*Categorization, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Categorization, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListErrors(
		ctx context.Context,
		page pagination.PageRequest,
		filters ErrorFilters,
	) (*pagination.PageResult[ErrorRecord], error)
}
