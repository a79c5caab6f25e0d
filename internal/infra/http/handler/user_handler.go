package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/pkg/apierror"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/user"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// UserHandler handles user directory HTTP requests.
type UserHandler struct {
	service   *app.UserService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *app.UserService, v *validator.Validator, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	FullName       string    `json:"full_name"`
	Avatar         string    `json:"avatar,omitempty"`
	Department     string    `json:"department,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserListResponse represents the organization's user directory.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// CreateUserRequest represents the request to create a user.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email,max=320"`
	FirstName  string `json:"first_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Department string `json:"department" validate:"max=200"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:             u.ID().String(),
		OrganizationID: u.OrganizationID().String(),
		Email:          u.Email(),
		FirstName:      u.FirstName(),
		LastName:       u.LastName(),
		FullName:       u.FullName(),
		Avatar:         u.Avatar(),
		Department:     u.Department(),
		CreatedAt:      u.CreatedAt(),
		UpdatedAt:      u.UpdatedAt(),
	}
}

// CreateUser handles POST /api/v1/organizations/{orgID}/users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	u, err := h.service.CreateUser(r.Context(), app.CreateUserInput{
		OrganizationID: chi.URLParam(r, "orgID"),
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Department:     req.Department,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(u))
}

// ListUsers handles GET /api/v1/organizations/{orgID}/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := UserListResponse{
		Users: make([]UserResponse, 0, len(users)),
		Total: len(users),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /api/v1/users/{userID}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		apierror.NotFound("User").WriteJSON(w)
	case errors.Is(err, user.ErrEmailExists):
		apierror.Conflict("User with this email already exists").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(validationMessage(err)).WriteJSON(w)
	default:
		h.logger.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
