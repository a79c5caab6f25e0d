package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/orgstackio/api/internal/metrics"
	"github.com/orgstackio/api/pkg/domain/hierarchy"
	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/domain/user"
	"github.com/orgstackio/api/pkg/logger"
)

// UnitService handles organization unit business operations.
type UnitService struct {
	repo     unit.Repository
	roleRepo role.Repository
	userRepo user.Repository
	logger   *logger.Logger
}

// NewUnitService creates a new UnitService.
func NewUnitService(
	repo unit.Repository,
	roleRepo role.Repository,
	userRepo user.Repository,
	log *logger.Logger,
) *UnitService {
	return &UnitService{
		repo:     repo,
		roleRepo: roleRepo,
		userRepo: userRepo,
		logger:   log.With("service", "unit"),
	}
}

// UserRefInput pairs a user with the role they hold in the unit.
type UserRefInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	RoleID string `json:"role_id" validate:"required,uuid"`
}

// CreateUnitInput represents the input for creating a unit.
type CreateUnitInput struct {
	OrganizationID string         `json:"-"`
	Name           string         `json:"name" validate:"required,min=1,max=200"`
	Description    string         `json:"description" validate:"max=1000"`
	ParentID       string         `json:"parent_id" validate:"omitempty,uuid"`
	RoleIDs        []string       `json:"role_ids" validate:"omitempty,dive,uuid"`
	Users          []UserRefInput `json:"users" validate:"omitempty,dive"`
}

// CreateUnit creates a unit and attaches its initial role and user
// assignments. The unit's level is derived from its parent. The
// assignment writes run concurrently and independently of the unit
// insert; a failed assignment leaves the unit in place.
func (s *UnitService) CreateUnit(ctx context.Context, input CreateUnitInput) (*unit.Unit, error) {
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
			return nil, fmt.Errorf("failed to load parent unit: %w", err)
		}
		if !parent.OrganizationID().Equals(orgID) {
			return nil, fmt.Errorf("%w: parent unit belongs to another organization", shared.ErrValidation)
		}
		parentID = &pid
		level = parent.Level() + 1
	}

	u, err := unit.New(orgID, input.Name, input.Description, parentID, level)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	if len(input.RoleIDs) > 0 || len(input.Users) > 0 {
		g, gctx := errgroup.WithContext(ctx)

		for _, roleIDStr := range input.RoleIDs {
			roleIDStr := roleIDStr
			g.Go(func() error {
				roleID, err := shared.ParseID(roleIDStr)
				if err != nil {
					return fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
				}
				if _, err := s.repo.AssignRole(gctx, u.ID(), roleID); err != nil {
					return err
				}
				return nil
			})
		}

		for _, ref := range input.Users {
			ref := ref
			g.Go(func() error {
				userID, err := shared.ParseID(ref.UserID)
				if err != nil {
					return fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
				}
				roleID, err := shared.ParseID(ref.RoleID)
				if err != nil {
					return fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
				}
				if _, err := s.repo.UpsertUserAssignment(gctx, userID, u.ID(), roleID, ""); err != nil {
					return err
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to attach unit assignments: %w", err)
		}
	}

	s.logger.Info("unit created", "id", u.ID().String(), "name", u.Name(), "level", u.Level())
	return s.repo.GetDetail(ctx, u.ID())
}

// GetUnitTree returns the organization's unit forest with assignments
// hydrated.
func (s *UnitService) GetUnitTree(ctx context.Context, organizationID string) ([]*unit.Unit, error) {
	orgID, err := shared.ParseID(organizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}

	units, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	forest := hierarchy.Build(units)
	metrics.TreeBuildsTotal.WithLabelValues("unit").Inc()
	metrics.TreeNodes.WithLabelValues("unit").Observe(float64(len(units)))
	return forest, nil
}

// GetUnit retrieves a unit with assignments hydrated.
func (s *UnitService) GetUnit(ctx context.Context, id string) (*unit.Unit, error) {
	unitID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}
	return s.repo.GetDetail(ctx, unitID)
}

// UpdateUnitInput represents the input for updating a unit. Nil RoleIDs
// or Users leave that assignment set untouched; an empty slice clears it.
type UpdateUnitInput struct {
	Name        string         `json:"name" validate:"required,min=1,max=200"`
	Description string         `json:"description" validate:"max=1000"`
	RoleIDs     []string       `json:"role_ids" validate:"omitempty,dive,uuid"`
	Users       []UserRefInput `json:"users" validate:"omitempty,dive"`
}

// UpdateUnit updates a unit's fields and, when assignment sets are given,
// rewrites them atomically.
func (s *UnitService) UpdateUnit(ctx context.Context, id string, input UpdateUnitInput) (*unit.Unit, error) {
	unitID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}

	u, err := s.repo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	if err := u.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}

	var roleIDs []shared.ID
	if input.RoleIDs != nil {
		roleIDs = make([]shared.ID, 0, len(input.RoleIDs))
		for _, idStr := range input.RoleIDs {
			roleID, err := shared.ParseID(idStr)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
			}
			roleIDs = append(roleIDs, roleID)
		}
	}

	var users []unit.UserRef
	if input.Users != nil {
		users = make([]unit.UserRef, 0, len(input.Users))
		for _, ref := range input.Users {
			userID, err := shared.ParseID(ref.UserID)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
			}
			roleID, err := shared.ParseID(ref.RoleID)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
			}
			users = append(users, unit.UserRef{UserID: userID, RoleID: roleID})
		}
	}

	if roleIDs != nil || users != nil {
		if err := s.repo.ReplaceAssignments(ctx, unitID, roleIDs, users); err != nil {
			return nil, fmt.Errorf("failed to replace unit assignments: %w", err)
		}
	}

	s.logger.Info("unit updated", "id", unitID.String())
	return s.repo.GetDetail(ctx, unitID)
}

// DeleteUnit removes the unit and its entire subtree.
func (s *UnitService) DeleteUnit(ctx context.Context, id string) error {
	unitID, err := shared.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}

	if err := s.repo.DeleteTree(ctx, unitID); err != nil {
		return err
	}

	metrics.CascadeDeletesTotal.WithLabelValues("unit").Inc()
	s.logger.Info("unit subtree deleted", "id", unitID.String())
	return nil
}

// UnitTreeStats computes display statistics over the organization's unit
// forest. expandedCount is the number of nodes the caller's view has
// expanded.
func (s *UnitService) UnitTreeStats(ctx context.Context, organizationID string, expandedCount int) (hierarchy.Stats, error) {
	forest, err := s.GetUnitTree(ctx, organizationID)
	if err != nil {
		return hierarchy.Stats{}, err
	}
	return hierarchy.Summarize(forest, expandedCount), nil
}

// AssignRole links a role to a unit. Assigning a role the unit already
// holds is a conflict.
func (s *UnitService) AssignRole(ctx context.Context, unitID, roleID string) (*unit.RoleAssignment, error) {
	uid, err := shared.ParseID(unitID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}
	rid, err := shared.ParseID(roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}

	if _, err := s.repo.GetByID(ctx, uid); err != nil {
		return nil, err
	}
	if _, err := s.roleRepo.GetByID(ctx, rid); err != nil {
		return nil, err
	}

	a, err := s.repo.AssignRole(ctx, uid, rid)
	if err != nil {
		return nil, err
	}

	s.logger.Info("role assigned to unit", "unit_id", unitID, "role_id", roleID)
	return a, nil
}

// RemoveRole unlinks a role from a unit.
func (s *UnitService) RemoveRole(ctx context.Context, unitID, roleID string) error {
	uid, err := shared.ParseID(unitID)
	if err != nil {
		return fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}
	rid, err := shared.ParseID(roleID)
	if err != nil {
		return fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}
	return s.repo.RemoveRole(ctx, uid, rid)
}

// AssignUserInput represents the input for assigning a user to a unit.
type AssignUserInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	UnitID string `json:"unit_id" validate:"required,uuid"`
	RoleID string `json:"role_id" validate:"required,uuid"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// AssignUser assigns a user to a unit with a role. A user holds one role
// per unit; assigning again overwrites the existing record's role and
// notes.
func (s *UnitService) AssignUser(ctx context.Context, input AssignUserInput) (*unit.UserAssignment, error) {
	userID, err := shared.ParseID(input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
	}
	unitID, err := shared.ParseID(input.UnitID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}
	roleID, err := shared.ParseID(input.RoleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role id format", shared.ErrValidation)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, unitID); err != nil {
		return nil, err
	}
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}

	a, err := s.repo.UpsertUserAssignment(ctx, userID, unitID, roleID, input.Notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user assigned to unit", "user_id", input.UserID, "unit_id", input.UnitID, "role_id", input.RoleID)
	return a, nil
}

// RemoveUser removes a user's assignment to a unit.
func (s *UnitService) RemoveUser(ctx context.Context, userID, unitID string) error {
	uid, err := shared.ParseID(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
	}
	unid, err := shared.ParseID(unitID)
	if err != nil {
		return fmt.Errorf("%w: invalid unit id format", shared.ErrValidation)
	}
	return s.repo.RemoveUserAssignment(ctx, uid, unid)
}

// ListUserAssignments returns a user's unit assignments with unit and
// role details hydrated.
func (s *UnitService) ListUserAssignments(ctx context.Context, userID string) ([]*unit.UserAssignment, error) {
	uid, err := shared.ParseID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, uid); err != nil {
		return nil, err
	}
	return s.repo.ListUserAssignments(ctx, uid)
}
