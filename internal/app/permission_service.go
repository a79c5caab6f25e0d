package app

import (
	"context"
	"fmt"

	"github.com/orgstackio/api/pkg/domain/permission"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
)

// PermissionService handles the permission catalog.
type PermissionService struct {
	repo   permission.Repository
	logger *logger.Logger
}

// NewPermissionService creates a new PermissionService.
func NewPermissionService(repo permission.Repository, log *logger.Logger) *PermissionService {
	return &PermissionService{
		repo:   repo,
		logger: log.With("service", "permission"),
	}
}

// CreatePermissionInput represents the input for creating a permission.
type CreatePermissionInput struct {
	OrganizationID string `json:"-"`
	Name           string `json:"name" validate:"required,min=1,max=200"`
	Description    string `json:"description" validate:"max=1000"`
	Category       string `json:"category" validate:"required,permission_category"`
	Resource       string `json:"resource" validate:"required,min=1,max=200"`
}

// CreatePermission adds a permission to the catalog.
func (s *PermissionService) CreatePermission(ctx context.Context, input CreatePermissionInput) (*permission.Permission, error) {
	orgID, err := shared.ParseID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}

	p, err := permission.New(orgID, input.Name, input.Description, permission.Category(input.Category), input.Resource)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("permission created", "id", p.ID().String(), "name", p.Name(), "category", p.Category().String())
	return p, nil
}

// GetPermission retrieves a permission by ID.
func (s *PermissionService) GetPermission(ctx context.Context, id string) (*permission.Permission, error) {
	permID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid permission id format", shared.ErrValidation)
	}
	return s.repo.GetByID(ctx, permID)
}

// ListPermissions retrieves the organization's active permission catalog.
func (s *PermissionService) ListPermissions(ctx context.Context, organizationID string) ([]*permission.Permission, error) {
	orgID, err := shared.ParseID(organizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}
	return s.repo.ListByOrganization(ctx, orgID)
}
