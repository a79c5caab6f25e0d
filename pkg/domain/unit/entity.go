// Package unit provides the organizational unit hierarchy and the
// role/user assignments attached to units.
package unit

import (
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Unit represents a node in the org chart. Its children list is a derived
// in-memory view populated by the hierarchy builder; the persisted form
// stores only the parent reference.
type Unit struct {
	id             shared.ID
	organizationID shared.ID
	name           string
	description    string
	parentID       *shared.ID
	level          int
	children       []*Unit
	createdAt      time.Time
	updatedAt      time.Time

	// Hydrated relations, populated by detail and list queries.
	roleAssignments []*RoleAssignment
	userAssignments []*UserAssignment
}

// New creates a new Unit. The level must already be computed from the
// parent (parent.Level()+1, or 0 for a root).
func New(organizationID shared.ID, name, description string, parentID *shared.ID, level int) (*Unit, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organizationID is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if level < 0 {
		return nil, fmt.Errorf("%w: level must not be negative", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &Unit{
		id:             shared.NewID(),
		organizationID: organizationID,
		name:           name,
		description:    description,
		parentID:       parentID,
		level:          level,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a Unit from persistence.
func Reconstitute(
	id shared.ID,
	organizationID shared.ID,
	name, description string,
	parentID *shared.ID,
	level int,
	createdAt, updatedAt time.Time,
) *Unit {
	return &Unit{
		id:             id,
		organizationID: organizationID,
		name:           name,
		description:    description,
		parentID:       parentID,
		level:          level,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the unit ID.
func (u *Unit) ID() shared.ID { return u.id }

// OrganizationID returns the owning organization ID.
func (u *Unit) OrganizationID() shared.ID { return u.organizationID }

// Name returns the unit name.
func (u *Unit) Name() string { return u.name }

// Description returns the unit description.
func (u *Unit) Description() string { return u.description }

// ParentID returns the parent unit ID, nil for a root unit.
func (u *Unit) ParentID() *shared.ID { return u.parentID }

// Level returns the depth from the org chart root (root = 0).
func (u *Unit) Level() int { return u.level }

// Children returns the child units attached by the hierarchy builder.
func (u *Unit) Children() []*Unit { return u.children }

// CreatedAt returns the creation timestamp.
func (u *Unit) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last update timestamp.
func (u *Unit) UpdatedAt() time.Time { return u.updatedAt }

// RoleAssignments returns the hydrated unit-role links.
func (u *Unit) RoleAssignments() []*RoleAssignment { return u.roleAssignments }

// UserAssignments returns the hydrated user-unit assignments.
func (u *Unit) UserAssignments() []*UserAssignment { return u.userAssignments }

// SetRoleAssignments attaches hydrated unit-role links.
func (u *Unit) SetRoleAssignments(assignments []*RoleAssignment) {
	u.roleAssignments = assignments
}

// SetUserAssignments attaches hydrated user-unit assignments.
func (u *Unit) SetUserAssignments(assignments []*UserAssignment) {
	u.userAssignments = assignments
}

// Update updates the unit's editable fields. Parent and level are fixed
// at creation; reparenting is not supported.
func (u *Unit) Update(name, description string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	u.name = name
	u.description = description
	u.updatedAt = time.Now().UTC()
	return nil
}

// hierarchy.Node implementation

// NodeID returns the node identity for tree building.
func (u *Unit) NodeID() shared.ID { return u.id }

// NodeParentID returns the parent reference for tree building.
func (u *Unit) NodeParentID() *shared.ID { return u.parentID }

// NodeChildren returns the attached children.
func (u *Unit) NodeChildren() []*Unit { return u.children }

// SetChildren replaces the attached children.
func (u *Unit) SetChildren(children []*Unit) { u.children = children }
