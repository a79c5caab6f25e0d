package unit

import (
	"time"

	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/user"
)

// RoleAssignment links a unit to a role it may use. A unit holds a role
// at most once.
type RoleAssignment struct {
	ID     shared.ID
	UnitID shared.ID
	RoleID shared.ID
	// Role is populated when fetching with role details.
	Role      *role.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRoleAssignment creates a new unit-role link.
func NewRoleAssignment(unitID, roleID shared.ID) *RoleAssignment {
	now := time.Now().UTC()
	return &RoleAssignment{
		ID:        shared.NewID(),
		UnitID:    unitID,
		RoleID:    roleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserAssignment links a user to a unit with exactly one role. Unique on
// (UserID, UnitID); re-assigning with another role overwrites the
// existing record.
type UserAssignment struct {
	ID     shared.ID
	UserID shared.ID
	UnitID shared.ID
	RoleID shared.ID
	Notes  string
	// Populated when fetching with relation details.
	User      *user.User
	Unit      *Unit
	Role      *role.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserAssignment creates a new user-unit assignment.
func NewUserAssignment(userID, unitID, roleID shared.ID, notes string) *UserAssignment {
	now := time.Now().UTC()
	return &UserAssignment{
		ID:        shared.NewID(),
		UserID:    userID,
		UnitID:    unitID,
		RoleID:    roleID,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserRef pairs a user with the role they hold, used when creating or
// rewriting a unit's assignment set.
type UserRef struct {
	UserID shared.ID
	RoleID shared.ID
}
