// Package datasharing provides flat data-sharing rules between
// organization units. Rules carry no hierarchy and are never inherited.
package datasharing

import (
	"errors"
	"fmt"
	"time"

	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
)

// Errors
var (
	ErrRuleNotFound = errors.New("data sharing rule not found")
)

// AccessLevel describes how much access a rule grants on the shared data.
type AccessLevel string

// Access levels.
const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessFull  AccessLevel = "full"
)

// IsValid checks if the access level is a known value.
func (a AccessLevel) IsValid() bool {
	switch a {
	case AccessRead, AccessWrite, AccessFull:
		return true
	}
	return false
}

// String returns the string form of the access level.
func (a AccessLevel) String() string { return string(a) }

// Rule describes a permitted data flow from a source unit to a target
// unit.
type Rule struct {
	id             shared.ID
	organizationID shared.ID
	name           string
	description    string
	sourceUnitID   shared.ID
	targetUnitID   shared.ID
	dataTypes      []string
	accessLevel    AccessLevel
	conditions     []string
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a new Rule. Source and target must differ; a unit sharing
// data with itself is meaningless.
func New(
	organizationID shared.ID,
	name, description string,
	sourceUnitID, targetUnitID shared.ID,
	dataTypes []string,
	accessLevel AccessLevel,
	conditions []string,
	isActive bool,
) (*Rule, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organizationID is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if sourceUnitID.IsZero() || targetUnitID.IsZero() {
		return nil, fmt.Errorf("%w: source and target units are required", shared.ErrValidation)
	}
	if sourceUnitID.Equals(targetUnitID) {
		return nil, fmt.Errorf("%w: source and target units must differ", shared.ErrValidation)
	}
	if !accessLevel.IsValid() {
		return nil, fmt.Errorf("%w: invalid access level %q", shared.ErrValidation, accessLevel)
	}
	now := time.Now().UTC()
	return &Rule{
		id:             shared.NewID(),
		organizationID: organizationID,
		name:           name,
		description:    description,
		sourceUnitID:   sourceUnitID,
		targetUnitID:   targetUnitID,
		dataTypes:      dataTypes,
		accessLevel:    accessLevel,
		conditions:     conditions,
		isActive:       isActive,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a Rule from persistence.
func Reconstitute(
	id shared.ID,
	organizationID shared.ID,
	name, description string,
	sourceUnitID, targetUnitID shared.ID,
	dataTypes []string,
	accessLevel AccessLevel,
	conditions []string,
	isActive bool,
	createdAt, updatedAt time.Time,
) *Rule {
	return &Rule{
		id:             id,
		organizationID: organizationID,
		name:           name,
		description:    description,
		sourceUnitID:   sourceUnitID,
		targetUnitID:   targetUnitID,
		dataTypes:      dataTypes,
		accessLevel:    accessLevel,
		conditions:     conditions,
		isActive:       isActive,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the rule ID.
func (r *Rule) ID() shared.ID { return r.id }

// OrganizationID returns the owning organization ID.
func (r *Rule) OrganizationID() shared.ID { return r.organizationID }

// Name returns the rule name.
func (r *Rule) Name() string { return r.name }

// Description returns the rule description.
func (r *Rule) Description() string { return r.description }

// SourceUnitID returns the unit the data flows from.
func (r *Rule) SourceUnitID() shared.ID { return r.sourceUnitID }

// TargetUnitID returns the unit the data flows to.
func (r *Rule) TargetUnitID() shared.ID { return r.targetUnitID }

// DataTypes returns the data-type tags covered by the rule.
func (r *Rule) DataTypes() []string { return r.dataTypes }

// AccessLevel returns the granted access level.
func (r *Rule) AccessLevel() AccessLevel { return r.accessLevel }

// Conditions returns the condition tags attached to the rule.
func (r *Rule) Conditions() []string { return r.conditions }

// IsActive returns whether the rule is in force.
func (r *Rule) IsActive() bool { return r.isActive }

// CreatedAt returns the creation timestamp.
func (r *Rule) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r *Rule) UpdatedAt() time.Time { return r.updatedAt }

// Update overwrites the rule's editable fields. Source and target units
// are fixed at creation.
func (r *Rule) Update(name, description string, dataTypes []string, accessLevel AccessLevel, conditions []string, isActive bool) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if !accessLevel.IsValid() {
		return fmt.Errorf("%w: invalid access level %q", shared.ErrValidation, accessLevel)
	}
	r.name = name
	r.description = description
	r.dataTypes = dataTypes
	r.accessLevel = accessLevel
	r.conditions = conditions
	r.isActive = isActive
	r.updatedAt = time.Now().UTC()
	return nil
}

// Detail pairs a rule with its hydrated source and target units.
type Detail struct {
	Rule       *Rule
	SourceUnit *unit.Unit
	TargetUnit *unit.Unit
}
