package organization

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Repository persists organizations.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id shared.ID) (*Organization, error)
	GetByName(ctx context.Context, name string) (*Organization, error)
}
