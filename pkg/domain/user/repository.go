package user

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id shared.ID) (*User, error)
	GetByEmail(ctx context.Context, organizationID shared.ID, email string) (*User, error)
	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, organizationID shared.ID) ([]*User, error)
}
