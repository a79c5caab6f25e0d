package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/pkg/apierror"
	"github.com/orgstackio/api/pkg/domain/organization"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// OrganizationHandler handles organization-related HTTP requests.
type OrganizationHandler struct {
	service   *app.OrganizationService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewOrganizationHandler creates a new organization handler.
func NewOrganizationHandler(svc *app.OrganizationService, v *validator.Validator, log *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// OrganizationResponse represents an organization in API responses.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnsureOrganizationRequest represents the request to ensure an
// organization exists.
type EnsureOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

func toOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID().String(),
		Name:      o.Name(),
		CreatedAt: o.CreatedAt(),
		UpdatedAt: o.UpdatedAt(),
	}
}

// EnsureOrganization handles POST /api/v1/organizations/ensure. It
// returns the named organization, creating it first if needed.
func (h *OrganizationHandler) EnsureOrganization(w http.ResponseWriter, r *http.Request) {
	var req EnsureOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	org, err := h.service.EnsureOrganization(r.Context(), req.Name)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrganizationResponse(org))
}

// GetOrganization handles GET /api/v1/organizations/{orgID}.
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetOrganization(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (h *OrganizationHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, organization.ErrOrganizationNotFound):
		apierror.NotFound("Organization").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(validationMessage(err)).WriteJSON(w)
	case shared.IsConflict(err):
		apierror.Conflict(validationMessage(err)).WriteJSON(w)
	default:
		h.logger.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
