// Package organization provides the top-level tenant entity every unit,
// role, and permission belongs to.
package organization

import (
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// ErrOrganizationNotFound is returned when an organization id or name
// does not exist.
var ErrOrganizationNotFound = errors.New("organization not found")

// Organization is the root of one org chart and role taxonomy.
type Organization struct {
	id        shared.ID
	name      string
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Organization.
func New(name string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &Organization{
		id:        shared.NewID(),
		name:      name,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute recreates an Organization from persistence.
func Reconstitute(id shared.ID, name string, createdAt, updatedAt time.Time) *Organization {
	return &Organization{
		id:        id,
		name:      name,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the organization ID.
func (o *Organization) ID() shared.ID { return o.id }

// Name returns the organization name.
func (o *Organization) Name() string { return o.name }

// CreatedAt returns the creation timestamp.
func (o *Organization) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last update timestamp.
func (o *Organization) UpdatedAt() time.Time { return o.updatedAt }
