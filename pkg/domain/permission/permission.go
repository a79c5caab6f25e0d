// Package permission provides the permission catalog, role-permission
// grants, and the inheritance resolver that computes a role's effective
// permissions from its ancestor chain.
package permission

import (
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Errors
var (
	ErrPermissionNotFound = errors.New("permission not found")
	ErrGrantNotFound      = errors.New("permission grant not found")
)

// Category classifies a permission.
type Category string

// Permission categories.
const (
	CategoryRead    Category = "read"
	CategoryWrite   Category = "write"
	CategoryDelete  Category = "delete"
	CategoryAdmin   Category = "admin"
	CategorySpecial Category = "special"
)

// IsValid checks if the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRead, CategoryWrite, CategoryDelete, CategoryAdmin, CategorySpecial:
		return true
	}
	return false
}

// String returns the string form of the category.
func (c Category) String() string { return string(c) }

// Permission is a flat catalog entry; it carries no hierarchy.
type Permission struct {
	id             shared.ID
	organizationID shared.ID
	name           string
	description    string
	category       Category
	resource       string
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a new Permission.
func New(organizationID shared.ID, name, description string, category Category, resource string) (*Permission, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organizationID is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: invalid category %q", shared.ErrValidation, category)
	}
	if resource == "" {
		return nil, fmt.Errorf("%w: resource is required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &Permission{
		id:             shared.NewID(),
		organizationID: organizationID,
		name:           name,
		description:    description,
		category:       category,
		resource:       resource,
		isActive:       true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a Permission from persistence.
func Reconstitute(
	id shared.ID,
	organizationID shared.ID,
	name, description string,
	category Category,
	resource string,
	isActive bool,
	createdAt, updatedAt time.Time,
) *Permission {
	return &Permission{
		id:             id,
		organizationID: organizationID,
		name:           name,
		description:    description,
		category:       category,
		resource:       resource,
		isActive:       isActive,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the permission ID.
func (p *Permission) ID() shared.ID { return p.id }

// OrganizationID returns the owning organization ID.
func (p *Permission) OrganizationID() shared.ID { return p.organizationID }

// Name returns the permission name.
func (p *Permission) Name() string { return p.name }

// Description returns the permission description.
func (p *Permission) Description() string { return p.description }

// Category returns the permission category.
func (p *Permission) Category() Category { return p.category }

// Resource returns the resource the permission applies to.
func (p *Permission) Resource() string { return p.resource }

// IsActive returns whether the permission is active.
func (p *Permission) IsActive() bool { return p.isActive }

// CreatedAt returns the creation timestamp.
func (p *Permission) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last update timestamp.
func (p *Permission) UpdatedAt() time.Time { return p.updatedAt }
