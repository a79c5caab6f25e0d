package app

import (
	"context"
	"fmt"

	"github.com/orgstackio/api/pkg/domain/datasharing"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/logger"
)

// DataSharingService handles data-sharing rules between units.
type DataSharingService struct {
	repo     datasharing.Repository
	unitRepo unit.Repository
	logger   *logger.Logger
}

// NewDataSharingService creates a new DataSharingService.
func NewDataSharingService(repo datasharing.Repository, unitRepo unit.Repository, log *logger.Logger) *DataSharingService {
	return &DataSharingService{
		repo:     repo,
		unitRepo: unitRepo,
		logger:   log.With("service", "datasharing"),
	}
}

// CreateRuleInput represents the input for creating a data-sharing rule.
type CreateRuleInput struct {
	OrganizationID string   `json:"-"`
	Name           string   `json:"name" validate:"required,min=1,max=200"`
	Description    string   `json:"description" validate:"max=1000"`
	SourceUnitID   string   `json:"source_unit_id" validate:"required,uuid"`
	TargetUnitID   string   `json:"target_unit_id" validate:"required,uuid"`
	DataTypes      []string `json:"data_types" validate:"omitempty,dive,min=1,max=100"`
	AccessLevel    string   `json:"access_level" validate:"required,access_level"`
	Conditions     []string `json:"conditions" validate:"omitempty,dive,min=1,max=200"`
	IsActive       bool     `json:"is_active"`
}

// CreateRule creates a data-sharing rule. Both units must exist in the
// organization; a unit cannot share with itself.
func (s *DataSharingService) CreateRule(ctx context.Context, input CreateRuleInput) (*datasharing.Rule, error) {
	orgID, err := shared.ParseID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}
	sourceID, err := shared.ParseID(input.SourceUnitID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid source unit id format", shared.ErrValidation)
	}
	targetID, err := shared.ParseID(input.TargetUnitID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid target unit id format", shared.ErrValidation)
	}

	for _, unitID := range []shared.ID{sourceID, targetID} {
		u, err := s.unitRepo.GetByID(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if !u.OrganizationID().Equals(orgID) {
			return nil, fmt.Errorf("%w: unit belongs to another organization", shared.ErrValidation)
		}
	}

	rule, err := datasharing.New(
		orgID,
		input.Name,
		input.Description,
		sourceID,
		targetID,
		input.DataTypes,
		datasharing.AccessLevel(input.AccessLevel),
		input.Conditions,
		input.IsActive,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("data sharing rule created", "id", rule.ID().String(), "name", rule.Name())
	return rule, nil
}

// GetRule retrieves a rule by ID.
func (s *DataSharingService) GetRule(ctx context.Context, id string) (*datasharing.Rule, error) {
	ruleID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid rule id format", shared.ErrValidation)
	}
	return s.repo.GetByID(ctx, ruleID)
}

// ListRules retrieves the organization's rules with source and target
// units hydrated, newest first.
func (s *DataSharingService) ListRules(ctx context.Context, organizationID string) ([]*datasharing.Detail, error) {
	orgID, err := shared.ParseID(organizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// UpdateRuleInput represents the input for updating a rule. Source and
// target units are fixed at creation.
type UpdateRuleInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=1000"`
	DataTypes   []string `json:"data_types" validate:"omitempty,dive,min=1,max=100"`
	AccessLevel string   `json:"access_level" validate:"required,access_level"`
	Conditions  []string `json:"conditions" validate:"omitempty,dive,min=1,max=200"`
	IsActive    bool     `json:"is_active"`
}

// UpdateRule updates a rule's editable fields.
func (s *DataSharingService) UpdateRule(ctx context.Context, id string, input UpdateRuleInput) (*datasharing.Rule, error) {
	ruleID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid rule id format", shared.ErrValidation)
	}

	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if err := rule.Update(input.Name, input.Description, input.DataTypes, datasharing.AccessLevel(input.AccessLevel), input.Conditions, input.IsActive); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("data sharing rule updated", "id", id)
	return rule, nil
}

// DeleteRule removes a rule.
func (s *DataSharingService) DeleteRule(ctx context.Context, id string) error {
	ruleID, err := shared.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: invalid rule id format", shared.ErrValidation)
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return err
	}

	s.logger.Info("data sharing rule deleted", "id", id)
	return nil
}
