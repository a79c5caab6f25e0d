// Package app contains the application services that coordinate domain
// logic and persistence.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgstackio/api/pkg/domain/organization"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
)

// OrganizationService handles organization-related business operations.
type OrganizationService struct {
	repo   organization.Repository
	logger *logger.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(repo organization.Repository, log *logger.Logger) *OrganizationService {
	return &OrganizationService{
		repo:   repo,
		logger: log.With("service", "organization"),
	}
}

// GetOrganization retrieves an organization by ID.
func (s *OrganizationService) GetOrganization(ctx context.Context, id string) (*organization.Organization, error) {
	orgID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}
	return s.repo.GetByID(ctx, orgID)
}

// EnsureOrganization returns the organization with the given name,
// creating it when it does not exist yet. A concurrent create of the same
// name is resolved by re-fetching after a conflict.
func (s *OrganizationService) EnsureOrganization(ctx context.Context, name string) (*organization.Organization, error) {
	org, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, organization.ErrOrganizationNotFound) {
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}

	org, err = organization.New(name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, org); err != nil {
		if shared.IsConflict(err) {
			return s.repo.GetByName(ctx, name)
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.Info("organization created", "id", org.ID().String(), "name", org.Name())
	return org, nil
}
