package permission

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Repository persists the permission catalog.
type Repository interface {
	Create(ctx context.Context, p *Permission) error
	GetByID(ctx context.Context, id shared.ID) (*Permission, error)
	// ListByOrganization returns active permissions ordered by category
	// then name.
	ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*Permission, error)
}

// GrantRepository persists direct role-permission grants. Inherited
// grants are computed by the Resolver and never stored.
type GrantRepository interface {
	// ListByRole returns the role's direct grants with catalog details
	// hydrated.
	ListByRole(ctx context.Context, roleID shared.ID) ([]*Grant, error)
	// ListByRoles returns direct grants for several roles at once, keyed
	// by role, for resolving an ancestor chain in one round trip.
	ListByRoles(ctx context.Context, roleIDs []shared.ID) (map[shared.ID][]*Grant, error)
	// Upsert creates the grant or, if one exists for (RoleID,
	// PermissionID), overwrites its granted and delegation flags.
	Upsert(ctx context.Context, g *Grant) error
	Delete(ctx context.Context, roleID, permissionID shared.ID) error
}
