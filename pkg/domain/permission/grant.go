package permission

import (
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Grant is a role-permission grant. Direct grants are written by an
// administrator; inherited grants are derived by the Resolver at read
// time and are never persisted, so they always reflect the current
// ancestor delegation state.
type Grant struct {
	RoleID       shared.ID  `json:"role_id"`
	PermissionID shared.ID  `json:"permission_id"`
	Granted      bool       `json:"granted"`
	CanDelegate  bool       `json:"can_delegate"`
	// InheritedFrom names the ancestor role the grant was delegated
	// from. Nil on direct grants.
	InheritedFrom *shared.ID `json:"inherited_from,omitempty"`
	// Permission is populated when fetching with catalog details.
	Permission *Permission `json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewGrant creates a direct grant.
func NewGrant(roleID, permissionID shared.ID, canDelegate bool) *Grant {
	now := time.Now().UTC()
	return &Grant{
		RoleID:       roleID,
		PermissionID: permissionID,
		Granted:      true,
		CanDelegate:  canDelegate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsDirect reports whether the grant was written for the role itself
// rather than derived from an ancestor.
func (g *Grant) IsDirect() bool { return g.InheritedFrom == nil }
