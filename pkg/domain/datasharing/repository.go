package datasharing

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Repository persists data-sharing rules.
type Repository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id shared.ID) (*Rule, error)
	// ListByOrganization returns rules with source and target units
	// hydrated, newest first.
	ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*Detail, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id shared.ID) error
}
