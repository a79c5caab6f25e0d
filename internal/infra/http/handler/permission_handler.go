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
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// PermissionHandler handles permission catalog HTTP requests.
type PermissionHandler struct {
	service   *app.PermissionService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewPermissionHandler creates a new permission handler.
func NewPermissionHandler(svc *app.PermissionService, v *validator.Validator, log *logger.Logger) *PermissionHandler {
	return &PermissionHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// PermissionResponse represents a permission in API responses.
type PermissionResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category"`
	Resource       string    `json:"resource"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PermissionListResponse represents the permission catalog.
type PermissionListResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
	Total       int                  `json:"total"`
}

// CreatePermissionRequest represents the request to create a permission.
type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"required,permission_category"`
	Resource    string `json:"resource" validate:"required,min=1,max=200"`
}

func toPermissionResponse(p *permission.Permission) PermissionResponse {
	return PermissionResponse{
		ID:             p.ID().String(),
		OrganizationID: p.OrganizationID().String(),
		Name:           p.Name(),
		Description:    p.Description(),
		Category:       p.Category().String(),
		Resource:       p.Resource(),
		IsActive:       p.IsActive(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

// CreatePermission handles POST /api/v1/organizations/{orgID}/permissions.
func (h *PermissionHandler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	p, err := h.service.CreatePermission(r.Context(), app.CreatePermissionInput{
		OrganizationID: chi.URLParam(r, "orgID"),
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Resource:       req.Resource,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toPermissionResponse(p))
}

// ListPermissions handles GET /api/v1/organizations/{orgID}/permissions.
func (h *PermissionHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.service.ListPermissions(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := PermissionListResponse{
		Permissions: make([]PermissionResponse, 0, len(permissions)),
		Total:       len(permissions),
	}
	for _, p := range permissions {
		resp.Permissions = append(resp.Permissions, toPermissionResponse(p))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetPermission handles GET /api/v1/permissions/{permissionID}.
func (h *PermissionHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPermission(r.Context(), chi.URLParam(r, "permissionID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toPermissionResponse(p))
}

func (h *PermissionHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, permission.ErrPermissionNotFound):
		apierror.NotFound("Permission").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(validationMessage(err)).WriteJSON(w)
	case shared.IsConflict(err):
		apierror.Conflict(validationMessage(err)).WriteJSON(w)
	default:
		h.logger.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
