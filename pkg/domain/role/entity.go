// Package role provides the hierarchical role taxonomy. Roles form a tree
// separate from the organization unit tree; a role's level is its depth
// from the root of that tree.
package role

import (
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Errors
var (
	ErrRoleNotFound = errors.New("role not found")
)

// Role represents a node in the role taxonomy.
type Role struct {
	id                 shared.ID
	organizationID     shared.ID
	name               string
	description        string
	parentID           *shared.ID
	level              int
	shareDataWithPeers bool
	children           []*Role
	createdAt          time.Time
	updatedAt          time.Time
}

// New creates a new Role. The level must already be computed from the
// parent (parent.Level()+1, or 0 for a root).
func New(organizationID shared.ID, name, description string, parentID *shared.ID, level int, shareDataWithPeers bool) (*Role, error) {
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
	return &Role{
		id:                 shared.NewID(),
		organizationID:     organizationID,
		name:               name,
		description:        description,
		parentID:           parentID,
		level:              level,
		shareDataWithPeers: shareDataWithPeers,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstitute recreates a Role from persistence.
func Reconstitute(
	id shared.ID,
	organizationID shared.ID,
	name, description string,
	parentID *shared.ID,
	level int,
	shareDataWithPeers bool,
	createdAt, updatedAt time.Time,
) *Role {
	return &Role{
		id:                 id,
		organizationID:     organizationID,
		name:               name,
		description:        description,
		parentID:           parentID,
		level:              level,
		shareDataWithPeers: shareDataWithPeers,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ID returns the role ID.
func (r *Role) ID() shared.ID { return r.id }

// OrganizationID returns the owning organization ID.
func (r *Role) OrganizationID() shared.ID { return r.organizationID }

// Name returns the role name.
func (r *Role) Name() string { return r.name }

// Description returns the role description.
func (r *Role) Description() string { return r.description }

// ParentID returns the parent role ID, nil for a root role.
func (r *Role) ParentID() *shared.ID { return r.parentID }

// Level returns the depth from the taxonomy root (root = 0).
func (r *Role) Level() int { return r.level }

// ShareDataWithPeers returns whether this role shares data with peer roles.
func (r *Role) ShareDataWithPeers() bool { return r.shareDataWithPeers }

// Children returns the child roles attached by the hierarchy builder.
func (r *Role) Children() []*Role { return r.children }

// CreatedAt returns the creation timestamp.
func (r *Role) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r *Role) UpdatedAt() time.Time { return r.updatedAt }

// Update updates the role's editable fields. Parent and level are fixed
// at creation; reparenting is not supported.
func (r *Role) Update(name, description string, shareDataWithPeers bool) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	r.name = name
	r.description = description
	r.shareDataWithPeers = shareDataWithPeers
	r.updatedAt = time.Now().UTC()
	return nil
}

// hierarchy.Node implementation

// NodeID returns the node identity for tree building.
func (r *Role) NodeID() shared.ID { return r.id }

// NodeParentID returns the parent reference for tree building.
func (r *Role) NodeParentID() *shared.ID { return r.parentID }

// NodeChildren returns the attached children.
func (r *Role) NodeChildren() []*Role { return r.children }

// SetChildren replaces the attached children.
func (r *Role) SetChildren(children []*Role) { r.children = children }
