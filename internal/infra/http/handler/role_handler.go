package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/pkg/apierror"
	"github.com/orgstackio/api/pkg/domain/permission"
	"github.com/orgstackio/api/pkg/domain/role"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// RoleHandler handles role taxonomy HTTP requests.
type RoleHandler struct {
	service   *app.RoleService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(svc *app.RoleService, v *validator.Validator, log *logger.Logger) *RoleHandler {
	return &RoleHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// =============================================================================
// Response Types
// =============================================================================

// RoleResponse represents a role in API responses. Children are included
// recursively when the role comes from a tree query.
type RoleResponse struct {
	ID                 string         `json:"id"`
	OrganizationID     string         `json:"organization_id"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	ParentID           *string        `json:"parent_id,omitempty"`
	Level              int            `json:"level"`
	ShareDataWithPeers bool           `json:"share_data_with_peers"`
	Children           []RoleResponse `json:"children"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// RoleTreeResponse represents the organization's role forest.
type RoleTreeResponse struct {
	Roles []RoleResponse `json:"roles"`
	Total int            `json:"total"`
}

// GrantResponse represents a permission grant in API responses.
type GrantResponse struct {
	RoleID        string              `json:"role_id"`
	PermissionID  string              `json:"permission_id"`
	Granted       bool                `json:"granted"`
	CanDelegate   bool                `json:"can_delegate"`
	InheritedFrom *string             `json:"inherited_from,omitempty"`
	Permission    *PermissionResponse `json:"permission,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// RolePermissionsResponse is a role's resolved permission view.
type RolePermissionsResponse struct {
	Direct    []GrantResponse `json:"direct"`
	Inherited []GrantResponse `json:"inherited"`
	Effective []GrantResponse `json:"effective"`
}

// =============================================================================
// Request Types
// =============================================================================

// CreateRoleRequest represents the request to create a role.
type CreateRoleRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	Description        string `json:"description" validate:"max=1000"`
	ParentID           string `json:"parent_id" validate:"omitempty,uuid"`
	ShareDataWithPeers bool   `json:"share_data_with_peers"`
}

// UpdateRoleRequest represents the request to update a role.
type UpdateRoleRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	Description        string `json:"description" validate:"max=1000"`
	ShareDataWithPeers bool   `json:"share_data_with_peers"`
}

// SetPermissionRequest represents the request to grant a permission to a
// role.
type SetPermissionRequest struct {
	PermissionID string `json:"permission_id" validate:"required,uuid"`
	CanDelegate  bool   `json:"can_delegate"`
}

// =============================================================================
// Response Converters
// =============================================================================

func toRoleResponse(ro *role.Role) RoleResponse {
	resp := RoleResponse{
		ID:                 ro.ID().String(),
		OrganizationID:     ro.OrganizationID().String(),
		Name:               ro.Name(),
		Description:        ro.Description(),
		Level:              ro.Level(),
		ShareDataWithPeers: ro.ShareDataWithPeers(),
		Children:           make([]RoleResponse, 0, len(ro.Children())),
		CreatedAt:          ro.CreatedAt(),
		UpdatedAt:          ro.UpdatedAt(),
	}
	if pid := ro.ParentID(); pid != nil {
		s := pid.String()
		resp.ParentID = &s
	}
	for _, child := range ro.Children() {
		resp.Children = append(resp.Children, toRoleResponse(child))
	}
	return resp
}

func toGrantResponse(g *permission.Grant) GrantResponse {
	resp := GrantResponse{
		RoleID:       g.RoleID.String(),
		PermissionID: g.PermissionID.String(),
		Granted:      g.Granted,
		CanDelegate:  g.CanDelegate,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.InheritedFrom != nil {
		s := g.InheritedFrom.String()
		resp.InheritedFrom = &s
	}
	if g.Permission != nil {
		p := toPermissionResponse(g.Permission)
		resp.Permission = &p
	}
	return resp
}

func toGrantResponses(grants []*permission.Grant) []GrantResponse {
	resp := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		resp = append(resp, toGrantResponse(g))
	}
	return resp
}

// =============================================================================
// Role CRUD Handlers
// =============================================================================

// CreateRole handles POST /api/v1/organizations/{orgID}/roles.
func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	ro, err := h.service.CreateRole(r.Context(), app.CreateRoleInput{
		OrganizationID:     chi.URLParam(r, "orgID"),
		Name:               req.Name,
		Description:        req.Description,
		ParentID:           req.ParentID,
		ShareDataWithPeers: req.ShareDataWithPeers,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toRoleResponse(ro))
}

// GetRoleTree handles GET /api/v1/organizations/{orgID}/roles.
func (h *RoleHandler) GetRoleTree(w http.ResponseWriter, r *http.Request) {
	forest, err := h.service.GetRoleTree(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := RoleTreeResponse{Roles: make([]RoleResponse, 0, len(forest))}
	for _, root := range forest {
		resp.Roles = append(resp.Roles, toRoleResponse(root))
	}
	for _, root := range resp.Roles {
		resp.Total += countRoles(root)
	}

	respondJSON(w, http.StatusOK, resp)
}

func countRoles(ro RoleResponse) int {
	total := 1
	for _, child := range ro.Children {
		total += countRoles(child)
	}
	return total
}

// GetRoleStats handles GET /api/v1/organizations/{orgID}/roles/stats.
func (h *RoleHandler) GetRoleStats(w http.ResponseWriter, r *http.Request) {
	expanded := parseQueryInt(r.URL.Query().Get("expanded"), 0)

	stats, err := h.service.RoleTreeStats(r.Context(), chi.URLParam(r, "orgID"), expanded)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetRole handles GET /api/v1/roles/{roleID}.
func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	ro, err := h.service.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toRoleResponse(ro))
}

// UpdateRole handles PUT /api/v1/roles/{roleID}.
func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	ro, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "roleID"), app.UpdateRoleInput{
		Name:               req.Name,
		Description:        req.Description,
		ShareDataWithPeers: req.ShareDataWithPeers,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toRoleResponse(ro))
}

// DeleteRole handles DELETE /api/v1/roles/{roleID}. The role's entire
// subtree is removed.
func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Permission Grant Handlers
// =============================================================================

// GetRolePermissions handles GET /api/v1/roles/{roleID}/permissions.
func (h *RoleHandler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.GetRolePermissions(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RolePermissionsResponse{
		Direct:    toGrantResponses(perms.Direct),
		Inherited: toGrantResponses(perms.Inherited),
		Effective: toGrantResponses(perms.Effective),
	})
}

// SetRolePermission handles POST /api/v1/roles/{roleID}/permissions.
// Granting a permission the role already holds updates its delegation
// flag.
func (h *RoleHandler) SetRolePermission(w http.ResponseWriter, r *http.Request) {
	var req SetPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	g, err := h.service.SetRolePermission(r.Context(), chi.URLParam(r, "roleID"), app.SetPermissionInput{
		PermissionID: req.PermissionID,
		CanDelegate:  req.CanDelegate,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toGrantResponse(g))
}

// RemoveRolePermission handles DELETE /api/v1/roles/{roleID}/permissions/{permissionID}.
func (h *RoleHandler) RemoveRolePermission(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveRolePermission(r.Context(), chi.URLParam(r, "roleID"), chi.URLParam(r, "permissionID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RoleHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, role.ErrRoleNotFound):
		apierror.NotFound("Role").WriteJSON(w)
	case errors.Is(err, permission.ErrPermissionNotFound):
		apierror.NotFound("Permission").WriteJSON(w)
	case errors.Is(err, permission.ErrGrantNotFound):
		apierror.NotFound("Permission grant").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(validationMessage(err)).WriteJSON(w)
	default:
		h.logger.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
