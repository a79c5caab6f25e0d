package unit

import (
	"context"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Repository persists units and their assignments.
type Repository interface {
	Create(ctx context.Context, u *Unit) error
	// GetByID returns the bare unit without hydrated relations.
	GetByID(ctx context.Context, id shared.ID) (*Unit, error)
	// GetDetail returns the unit with role and user assignments hydrated.
	GetDetail(ctx context.Context, id shared.ID) (*Unit, error)
	// ListByOrganization returns the flat unit collection with
	// assignments hydrated, ordered by level then creation time; callers
	// build the tree from it.
	ListByOrganization(ctx context.Context, organizationID shared.ID) ([]*Unit, error)
	Update(ctx context.Context, u *Unit) error
	// DeleteTree removes the unit and every descendant, children before
	// parents, inside a single transaction. Assignments referencing the
	// deleted units are removed with them.
	DeleteTree(ctx context.Context, id shared.ID) error

	// ReplaceAssignments rewrites the unit's role and user assignment
	// sets atomically: existing rows are deleted and the given sets
	// recreated in one transaction. A nil slice leaves that set
	// untouched.
	ReplaceAssignments(ctx context.Context, unitID shared.ID, roleIDs []shared.ID, users []UserRef) error

	AssignRole(ctx context.Context, unitID, roleID shared.ID) (*RoleAssignment, error)
	RemoveRole(ctx context.Context, unitID, roleID shared.ID) error

	// UpsertUserAssignment creates the assignment or, if one exists for
	// (userID, unitID), overwrites its role and notes.
	UpsertUserAssignment(ctx context.Context, userID, unitID, roleID shared.ID, notes string) (*UserAssignment, error)
	RemoveUserAssignment(ctx context.Context, userID, unitID shared.ID) error
	// ListUserAssignments returns a user's assignments with unit and
	// role details hydrated.
	ListUserAssignments(ctx context.Context, userID shared.ID) ([]*UserAssignment, error)
}
