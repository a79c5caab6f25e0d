package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/user"
	"github.com/orgstackio/api/pkg/logger"
)

// UserService handles the user directory.
type UserService struct {
	repo   user.Repository
	logger *logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo user.Repository, log *logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: log.With("service", "user"),
	}
}

// CreateUserInput represents the input for creating a user.
type CreateUserInput struct {
	OrganizationID string `json:"-"`
	Email          string `json:"email" validate:"required,email,max=320"`
	FirstName      string `json:"first_name" validate:"max=100"`
	LastName       string `json:"last_name" validate:"max=100"`
	Department     string `json:"department" validate:"max=200"`
}

// CreateUser adds a user to the directory. Email is unique per
// organization.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*user.User, error) {
	orgID, err := shared.ParseID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}

	existing, err := s.repo.GetByEmail(ctx, orgID, input.Email)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existing != nil {
		return nil, user.ErrEmailExists
	}

	u, err := user.New(orgID, input.Email, input.FirstName, input.LastName, input.Department)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "id", u.ID().String(), "email", u.Email())
	return u, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*user.User, error) {
	userID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id format", shared.ErrValidation)
	}
	return s.repo.GetByID(ctx, userID)
}

// ListUsers retrieves the organization's users, newest first.
func (s *UserService) ListUsers(ctx context.Context, organizationID string) ([]*user.User, error) {
	orgID, err := shared.ParseID(organizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid organization id format", shared.ErrValidation)
	}
	return s.repo.List(ctx, orgID)
}
