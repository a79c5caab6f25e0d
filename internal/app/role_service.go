package app

import (
	"context"
	"fmt"

	"github.com/orgstackio/api/internal/metrics"
	"github.com/orgstackio/api/pkg/domain/hierarchy"
	"github.com/orgstackio/api/pkg/domain/permission"
	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
)

// RoleService handles role taxonomy and permission grant operations.
type RoleService struct {
	repo      role.Repository
	permRepo  permission.Repository
	grantRepo permission.GrantRepository
	resolver  *permission.Resolver
	logger    *logger.Logger
}

// NewRoleService creates a new RoleService.
func NewRoleService(
	repo role.Repository,
	permRepo permission.Repository,
	grantRepo permission.GrantRepository,
	log *logger.Logger,
) *RoleService {
	return &RoleService{
		repo:      repo,
		permRepo:  permRepo,
		grantRepo: grantRepo,
		resolver:  permission.NewResolver(),
		logger:    log.With("service", "role"),
	}
}

// CreateRoleInput represents the input for creating a role.
type CreateRoleInput struct {
	OrganizationID     string `json:"-"`
	Name               string `json:"name" validate:"required,min=1,max=200"`
	Description        string `json:"description" validate:"max=1000"`
	ParentID           string `json:"parent_id" validate:"omitempty,uuid"`
	ShareDataWithPeers bool   `json:"share_data_with_peers"`
}

// CreateRole creates a role. The role's level is derived from its parent.
func (s *RoleService) CreateRole(ctx context.Context, input CreateRoleInput) (*role.Role, error) {
	orgID, err := shared.ParseID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}

	var parentID *shared.ID
	level := 0
	if input.ParentID != "" {
		pid, err := shared.ParseID(input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid parent id format", shared.ErrValidation)
		}
		parent, err := s.repo.GetByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent role: %w", err)
		}
		if !parent.OrganizationID().Equals(orgID) {
			return nil, fmt.Errorf("%w: parent role belongs to another organization", shared.ErrValidation)
		}
		parentID = &pid
		level = parent.Level() + 1
	}

	ro, err := role.New(orgID, input.Name, input.Description, parentID, level, input.ShareDataWithPeers)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, ro); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.logger.Info("role created", "id", ro.ID().String(), "name", ro.Name(), "level", ro.Level())
	return ro, nil
}

// GetRoleTree returns the organization's role forest.
func (s *RoleService) GetRoleTree(ctx context.Context, organizationID string) ([]*role.Role, error) {
	roles, err := s.listRoles(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	forest := hierarchy.Build(roles)
	metrics.TreeBuildsTotal.WithLabelValues("role").Inc()
	metrics.TreeNodes.WithLabelValues("role").Observe(float64(len(roles)))
	return forest, nil
}

// GetRole retrieves a role by ID.
func (s *RoleService) GetRole(ctx context.Context, id string) (*role.Role, error) {
	roleID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}
	return s.repo.GetByID(ctx, roleID)
}

// UpdateRoleInput represents the input for updating a role.
type UpdateRoleInput struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	Description        string `json:"description" validate:"max=1000"`
	ShareDataWithPeers bool   `json:"share_data_with_peers"`
}

// UpdateRole updates a role's editable fields.
func (s *RoleService) UpdateRole(ctx context.Context, id string, input UpdateRoleInput) (*role.Role, error) {
	roleID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}

	ro, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if err := ro.Update(input.Name, input.Description, input.ShareDataWithPeers); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, ro); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("role updated", "id", roleID.String())
	return ro, nil
}

// DeleteRole removes the role and its entire subtree, including the
// grants and assignments attached to the deleted roles.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := shared.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}

	if err := s.repo.DeleteTree(ctx, roleID); err != nil {
		return err
	}

	metrics.CascadeDeletesTotal.WithLabelValues("role").Inc()
	s.logger.Info("role subtree deleted", "id", roleID.String())
	return nil
}

// RoleStats extends the tree statistics with the count of roles marked as
// sharing data with peers.
type RoleStats struct {
	hierarchy.Stats
	SharedRoles int `json:"shared_roles"`
}

// RoleTreeStats computes display statistics over the organization's role
// forest.
func (s *RoleService) RoleTreeStats(ctx context.Context, organizationID string, expandedCount int) (RoleStats, error) {
	roles, err := s.listRoles(ctx, organizationID)
	if err != nil {
		return RoleStats{}, err
	}

	sharedRoles := 0
	for _, ro := range roles {
		if ro.ShareDataWithPeers() {
			sharedRoles++
		}
	}

	forest := hierarchy.Build(roles)
	return RoleStats{
		Stats:       hierarchy.Summarize(forest, expandedCount),
		SharedRoles: sharedRoles,
	}, nil
}

// RolePermissions is a role's permission view: its own direct grants, the
// grants delegated down from ancestors, and the effective union.
type RolePermissions struct {
	Direct    []*permission.Grant `json:"direct"`
	Inherited []*permission.Grant `json:"inherited"`
	Effective []*permission.Grant `json:"effective"`
}

// GetRolePermissions resolves a role's permission view. Inherited grants
// are computed from the current ancestor chain on every call, never
// stored, so a revoked delegation upstream disappears immediately.
func (s *RoleService) GetRolePermissions(ctx context.Context, id string) (*RolePermissions, error) {
	roleID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}

	ro, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	ancestry, err := s.buildAncestry(ctx, ro.OrganizationID())
	if err != nil {
		return nil, err
	}

	chain := ancestorChain(roleID, ancestry)
	grants, err := s.grantRepo.ListByRoles(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	direct := make([]*permission.Grant, 0)
	for _, g := range grants[roleID] {
		if g.Granted {
			direct = append(direct, g)
		}
	}
	inherited := s.resolver.Inherited(roleID, ancestry, grants)
	effective := s.resolver.Effective(roleID, ancestry, grants)

	metrics.PermissionResolutionsTotal.Inc()
	metrics.InheritedGrants.Observe(float64(len(inherited)))

	return &RolePermissions{
		Direct:    direct,
		Inherited: inherited,
		Effective: effective,
	}, nil
}

// SetPermissionInput represents the input for granting a permission to a
// role.
type SetPermissionInput struct {
	PermissionID string `json:"permission_id" validate:"required,uuid"`
	CanDelegate  bool   `json:"can_delegate"`
}

// SetRolePermission grants a permission to a role, or updates the
// delegation flag of an existing grant.
func (s *RoleService) SetRolePermission(ctx context.Context, roleID string, input SetPermissionInput) (*permission.Grant, error) {
	rid, err := shared.ParseID(roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}
	pid, err := shared.ParseID(input.PermissionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid permission id format", shared.ErrValidation)
	}

	if _, err := s.repo.GetByID(ctx, rid); err != nil {
		return nil, err
	}
	p, err := s.permRepo.GetByID(ctx, pid)
	if err != nil {
		return nil, err
	}

	g := permission.NewGrant(rid, pid, input.CanDelegate)
	if err := s.grantRepo.Upsert(ctx, g); err != nil {
		return nil, err
	}
	g.Permission = p

	s.logger.Info("permission granted", "role_id", roleID, "permission_id", input.PermissionID, "can_delegate", input.CanDelegate)
	return g, nil
}

// RemoveRolePermission revokes a role's direct grant. Descendants that
// only held the permission through delegation lose it on their next
// resolution.
func (s *RoleService) RemoveRolePermission(ctx context.Context, roleID, permissionID string) error {
	rid, err := shared.ParseID(roleID)
	if err != nil {
		return fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}
	pid, err := shared.ParseID(permissionID)
	if err != nil {
		return fmt.Errorf("%w: invalid permission id format", shared.ErrValidation)
	}
	return s.grantRepo.Delete(ctx, rid, pid)
}

func (s *RoleService) listRoles(ctx context.Context, organizationID string) ([]*role.Role, error) {
	orgID, err := shared.ParseID(organizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}

	roles, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// buildAncestry loads the organization's roles and indexes each role's
// parent for the resolver.
func (s *RoleService) buildAncestry(ctx context.Context, organizationID shared.ID) (permission.Ancestry, error) {
	roles, err := s.repo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	ancestry := make(permission.Ancestry, len(roles))
	for _, ro := range roles {
		ancestry[ro.ID()] = ro.ParentID()
	}
	return ancestry, nil
}

// ancestorChain returns the role and its ancestors, nearest first. A
// visited set guards against corrupt parent chains.
func ancestorChain(roleID shared.ID, ancestry permission.Ancestry) []shared.ID {
	chain := []shared.ID{roleID}
	visited := map[shared.ID]bool{roleID: true}

	parent := ancestry[roleID]
	for parent != nil && !visited[*parent] {
		chain = append(chain, *parent)
		visited[*parent] = true
		parent = ancestry[*parent]
	}
	return chain
}
