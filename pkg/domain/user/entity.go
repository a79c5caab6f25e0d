// Package user provides the user directory entity. Users are assigned to
// organization units through the unit package.
package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
)

// Errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("user with this email already exists")
)

// User is a directory entry. Authentication is out of scope; the record
// only models who can appear in unit assignments.
type User struct {
	id             shared.ID
	organizationID shared.ID
	email          string
	firstName      string
	lastName       string
	avatar         string
	department     string
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a new User.
func New(organizationID shared.ID, email, firstName, lastName, department string) (*User, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organizationID is required", shared.ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &User{
		id:             shared.NewID(),
		organizationID: organizationID,
		email:          email,
		firstName:      firstName,
		lastName:       lastName,
		department:     department,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a User from persistence.
func Reconstitute(
	id shared.ID,
	organizationID shared.ID,
	email, firstName, lastName, avatar, department string,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:             id,
		organizationID: organizationID,
		email:          email,
		firstName:      firstName,
		lastName:       lastName,
		avatar:         avatar,
		department:     department,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the user ID.
func (u *User) ID() shared.ID { return u.id }

// OrganizationID returns the owning organization ID.
func (u *User) OrganizationID() shared.ID { return u.organizationID }

// Email returns the user email.
func (u *User) Email() string { return u.email }

// FirstName returns the user's first name.
func (u *User) FirstName() string { return u.firstName }

// LastName returns the user's last name.
func (u *User) LastName() string { return u.lastName }

// Avatar returns the avatar URL.
func (u *User) Avatar() string { return u.avatar }

// Department returns the free-text department label.
func (u *User) Department() string { return u.department }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last update timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// FullName returns "First Last", or the email when both names are empty.
func (u *User) FullName() string {
	name := u.firstName
	if u.lastName != "" {
		if name != "" {
			name += " "
		}
		name += u.lastName
	}
	if name == "" {
		return u.email
	}
	return name
}
