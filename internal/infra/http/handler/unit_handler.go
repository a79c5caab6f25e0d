package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/pkg/apierror"
	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/domain/user"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// UnitHandler handles organization unit HTTP requests.
type UnitHandler struct {
	service   *app.UnitService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewUnitHandler creates a new unit handler.
func NewUnitHandler(svc *app.UnitService, v *validator.Validator, log *logger.Logger) *UnitHandler {
	return &UnitHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// =============================================================================
// Response Types
// =============================================================================

// UnitResponse represents a unit in API responses. Children are included
// recursively when the unit comes from a tree query.
type UnitResponse struct {
	ID              string                   `json:"id"`
	OrganizationID  string                   `json:"organization_id"`
	Name            string                   `json:"name"`
	Description     string                   `json:"description,omitempty"`
	ParentID        *string                  `json:"parent_id,omitempty"`
	Level           int                      `json:"level"`
	Children        []UnitResponse           `json:"children"`
	RoleAssignments []RoleAssignmentResponse `json:"role_assignments,omitempty"`
	UserAssignments []UserAssignmentResponse `json:"user_assignments,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// RoleAssignmentResponse represents a unit-role link.
type RoleAssignmentResponse struct {
	ID        string        `json:"id"`
	UnitID    string        `json:"unit_id"`
	RoleID    string        `json:"role_id"`
	Role      *RoleResponse `json:"role,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// UserAssignmentResponse represents a user's assignment to a unit.
type UserAssignmentResponse struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	UnitID    string        `json:"unit_id"`
	RoleID    string        `json:"role_id"`
	Notes     string        `json:"notes,omitempty"`
	User      *UserResponse `json:"user,omitempty"`
	Unit      *UnitResponse `json:"unit,omitempty"`
	Role      *RoleResponse `json:"role,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// UnitTreeResponse represents the organization's unit forest.
type UnitTreeResponse struct {
	Units []UnitResponse `json:"units"`
	Total int            `json:"total"`
}

// =============================================================================
// Request Types
// =============================================================================

// UserRefRequest pairs a user with a role for unit assignment sets.
type UserRefRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	RoleID string `json:"role_id" validate:"required,uuid"`
}

// CreateUnitRequest represents the request to create a unit.
type CreateUnitRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"max=1000"`
	ParentID    string           `json:"parent_id" validate:"omitempty,uuid"`
	RoleIDs     []string         `json:"role_ids" validate:"omitempty,dive,uuid"`
	Users       []UserRefRequest `json:"users" validate:"omitempty,dive"`
}

// UpdateUnitRequest represents the request to update a unit. Omitted
// role_ids or users leave that assignment set untouched; an empty array
// clears it.
type UpdateUnitRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"max=1000"`
	RoleIDs     []string         `json:"role_ids" validate:"omitempty,dive,uuid"`
	Users       []UserRefRequest `json:"users" validate:"omitempty,dive"`
}

// AssignRoleRequest represents the request to link a role to a unit.
type AssignRoleRequest struct {
	RoleID string `json:"role_id" validate:"required,uuid"`
}

// AssignUserRequest represents the request to assign a user to a unit.
type AssignUserRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	UnitID string `json:"unit_id" validate:"required,uuid"`
	RoleID string `json:"role_id" validate:"required,uuid"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// =============================================================================
// Response Converters
// =============================================================================

func toUnitResponse(u *unit.Unit) UnitResponse {
	resp := UnitResponse{
		ID:             u.ID().String(),
		OrganizationID: u.OrganizationID().String(),
		Name:           u.Name(),
		Description:    u.Description(),
		Level:          u.Level(),
		Children:       make([]UnitResponse, 0, len(u.Children())),
		CreatedAt:      u.CreatedAt(),
		UpdatedAt:      u.UpdatedAt(),
	}
	if pid := u.ParentID(); pid != nil {
		s := pid.String()
		resp.ParentID = &s
	}
	for _, child := range u.Children() {
		resp.Children = append(resp.Children, toUnitResponse(child))
	}
	for _, a := range u.RoleAssignments() {
		resp.RoleAssignments = append(resp.RoleAssignments, toRoleAssignmentResponse(a))
	}
	for _, a := range u.UserAssignments() {
		resp.UserAssignments = append(resp.UserAssignments, toUserAssignmentResponse(a))
	}
	return resp
}

func toRoleAssignmentResponse(a *unit.RoleAssignment) RoleAssignmentResponse {
	resp := RoleAssignmentResponse{
		ID:        a.ID.String(),
		UnitID:    a.UnitID.String(),
		RoleID:    a.RoleID.String(),
		CreatedAt: a.CreatedAt,
	}
	if a.Role != nil {
		ro := toRoleResponse(a.Role)
		resp.Role = &ro
	}
	return resp
}

func toUserAssignmentResponse(a *unit.UserAssignment) UserAssignmentResponse {
	resp := UserAssignmentResponse{
		ID:        a.ID.String(),
		UserID:    a.UserID.String(),
		UnitID:    a.UnitID.String(),
		RoleID:    a.RoleID.String(),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.User != nil {
		u := toUserResponse(a.User)
		resp.User = &u
	}
	if a.Unit != nil {
		un := toUnitResponse(a.Unit)
		resp.Unit = &un
	}
	if a.Role != nil {
		ro := toRoleResponse(a.Role)
		resp.Role = &ro
	}
	return resp
}

func toUserRefInputs(refs []UserRefRequest) []app.UserRefInput {
	if refs == nil {
		return nil
	}
	inputs := make([]app.UserRefInput, 0, len(refs))
	for _, ref := range refs {
		inputs = append(inputs, app.UserRefInput{UserID: ref.UserID, RoleID: ref.RoleID})
	}
	return inputs
}

// =============================================================================
// Unit CRUD Handlers
// =============================================================================

// CreateUnit handles POST /api/v1/organizations/{orgID}/units.
func (h *UnitHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	u, err := h.service.CreateUnit(r.Context(), app.CreateUnitInput{
		OrganizationID: chi.URLParam(r, "orgID"),
		Name:           req.Name,
		Description:    req.Description,
		ParentID:       req.ParentID,
		RoleIDs:        req.RoleIDs,
		Users:          toUserRefInputs(req.Users),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUnitResponse(u))
}

// GetUnitTree handles GET /api/v1/organizations/{orgID}/units.
func (h *UnitHandler) GetUnitTree(w http.ResponseWriter, r *http.Request) {
	forest, err := h.service.GetUnitTree(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := UnitTreeResponse{Units: make([]UnitResponse, 0, len(forest))}
	for _, root := range forest {
		resp.Units = append(resp.Units, toUnitResponse(root))
	}
	for _, root := range resp.Units {
		resp.Total += countUnits(root)
	}

	respondJSON(w, http.StatusOK, resp)
}

func countUnits(u UnitResponse) int {
	total := 1
	for _, child := range u.Children {
		total += countUnits(child)
	}
	return total
}

// GetUnitStats handles GET /api/v1/organizations/{orgID}/units/stats.
// The expanded query parameter carries the caller's expanded node count.
func (h *UnitHandler) GetUnitStats(w http.ResponseWriter, r *http.Request) {
	expanded := parseQueryInt(r.URL.Query().Get("expanded"), 0)

	stats, err := h.service.UnitTreeStats(r.Context(), chi.URLParam(r, "orgID"), expanded)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetUnit handles GET /api/v1/units/{unitID}.
func (h *UnitHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUnit(r.Context(), chi.URLParam(r, "unitID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUnitResponse(u))
}

// UpdateUnit handles PUT /api/v1/units/{unitID}.
func (h *UnitHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req UpdateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	u, err := h.service.UpdateUnit(r.Context(), chi.URLParam(r, "unitID"), app.UpdateUnitInput{
		Name:        req.Name,
		Description: req.Description,
		RoleIDs:     req.RoleIDs,
		Users:       toUserRefInputs(req.Users),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUnitResponse(u))
}

// DeleteUnit handles DELETE /api/v1/units/{unitID}. The unit's entire
// subtree is removed.
func (h *UnitHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUnit(r.Context(), chi.URLParam(r, "unitID")); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Assignment Handlers
// =============================================================================

// AssignRole handles POST /api/v1/units/{unitID}/roles.
func (h *UnitHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	a, err := h.service.AssignRole(r.Context(), chi.URLParam(r, "unitID"), req.RoleID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toRoleAssignmentResponse(a))
}

// RemoveRole handles DELETE /api/v1/units/{unitID}/roles/{roleID}.
func (h *UnitHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveRole(r.Context(), chi.URLParam(r, "unitID"), chi.URLParam(r, "roleID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignUser handles POST /api/v1/assignments. Assigning a user already
// in the unit overwrites their role and notes.
func (h *UnitHandler) AssignUser(w http.ResponseWriter, r *http.Request) {
	var req AssignUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	a, err := h.service.AssignUser(r.Context(), app.AssignUserInput{
		UserID: req.UserID,
		UnitID: req.UnitID,
		RoleID: req.RoleID,
		Notes:  req.Notes,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserAssignmentResponse(a))
}

// RemoveUser handles DELETE /api/v1/users/{userID}/assignments/{unitID}.
func (h *UnitHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveUser(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "unitID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUserAssignments handles GET /api/v1/users/{userID}/assignments.
func (h *UnitHandler) ListUserAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.service.ListUserAssignments(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]UserAssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		resp = append(resp, toUserAssignmentResponse(a))
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *UnitHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, unit.ErrUnitNotFound):
		apierror.NotFound("Unit").WriteJSON(w)
	case errors.Is(err, role.ErrRoleNotFound):
		apierror.NotFound("Role").WriteJSON(w)
	case errors.Is(err, user.ErrUserNotFound):
		apierror.NotFound("User").WriteJSON(w)
	case errors.Is(err, unit.ErrRoleAssignmentNotFound):
		apierror.NotFound("Role assignment").WriteJSON(w)
	case errors.Is(err, unit.ErrUserAssignmentNotFound):
		apierror.NotFound("User assignment").WriteJSON(w)
	case errors.Is(err, unit.ErrRoleAssignmentExists):
		apierror.Conflict("Unit already has this role").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(validationMessage(err)).WriteJSON(w)
	default:
		h.logger.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
