package role

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Repository persists roles.
type Repository interface {
	Create(ctx context.Context, r *Role) error
	GetByID(ctx context.Context, id shared.ID) (*Role, error)
	// ListByOrganization returns the flat role collection ordered by
	// creation time; callers build the tree from it.
	ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*Role, error)
	Update(ctx context.Context, r *Role) error
	// DeleteTree removes the role and every descendant, children before
	// parents, inside a single transaction. Grants and assignments
	// referencing the deleted roles are removed with them.
	DeleteTree(ctx context.Context, id shared.ID) error
}
