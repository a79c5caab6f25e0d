package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgstackio/api/internal/app"
	"github.com/orgstackio/api/pkg/apierror"
	"github.com/orgstackio/api/pkg/domain/datasharing"
	"github.com/orgstackio/api/pkg/domain/shared"
	"github.com/orgstackio/api/pkg/domain/unit"
	"github.com/orgstackio/api/pkg/logger"
	"github.com/orgstackio/api/pkg/validator"
)

// DataSharingHandler handles data-sharing rule HTTP requests.
type DataSharingHandler struct {
	service   *app.DataSharingService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewDataSharingHandler creates a new data-sharing handler.
func NewDataSharingHandler(svc *app.DataSharingService, v *validator.Validator, log *logger.Logger) *DataSharingHandler {
	return &DataSharingHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// RuleResponse represents a data-sharing rule in API responses. Source
// and target units are included when the rule comes from a list query.
type RuleResponse struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	SourceUnitID   string        `json:"source_unit_id"`
	TargetUnitID   string        `json:"target_unit_id"`
	SourceUnit     *UnitResponse `json:"source_unit,omitempty"`
	TargetUnit     *UnitResponse `json:"target_unit,omitempty"`
	DataTypes      []string      `json:"data_types"`
	AccessLevel    string        `json:"access_level"`
	Conditions     []string      `json:"conditions"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// RuleListResponse represents the organization's data-sharing rules.
type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
	Total int            `json:"total"`
}

// CreateRuleRequest represents the request to create a data-sharing
// rule.
type CreateRuleRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	Description  string   `json:"description" validate:"max=1000"`
	SourceUnitID string   `json:"source_unit_id" validate:"required,uuid"`
	TargetUnitID string   `json:"target_unit_id" validate:"required,uuid"`
	DataTypes    []string `json:"data_types" validate:"omitempty,dive,min=1,max=100"`
	AccessLevel  string   `json:"access_level" validate:"required,access_level"`
	Conditions   []string `json:"conditions" validate:"omitempty,dive,min=1,max=200"`
	IsActive     bool     `json:"is_active"`
}

// UpdateRuleRequest represents the request to update a rule. Source and
// target units cannot change.
type UpdateRuleRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=1000"`
	DataTypes   []string `json:"data_types" validate:"omitempty,dive,min=1,max=100"`
	AccessLevel string   `json:"access_level" validate:"required,access_level"`
	Conditions  []string `json:"conditions" validate:"omitempty,dive,min=1,max=200"`
	IsActive    bool     `json:"is_active"`
}

func toRuleResponse(rule *datasharing.Rule, source, target *unit.Unit) RuleResponse {
	resp := RuleResponse{
		ID:             rule.ID().String(),
		OrganizationID: rule.OrganizationID().String(),
		Name:           rule.Name(),
		Description:    rule.Description(),
		SourceUnitID:   rule.SourceUnitID().String(),
		TargetUnitID:   rule.TargetUnitID().String(),
		DataTypes:      emptySliceIfNil(rule.DataTypes()),
		AccessLevel:    rule.AccessLevel().String(),
		Conditions:     emptySliceIfNil(rule.Conditions()),
		IsActive:       rule.IsActive(),
		CreatedAt:      rule.CreatedAt(),
		UpdatedAt:      rule.UpdatedAt(),
	}
	if source != nil {
		u := toUnitResponse(source)
		resp.SourceUnit = &u
	}
	if target != nil {
		u := toUnitResponse(target)
		resp.TargetUnit = &u
	}
	return resp
}

func emptySliceIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CreateRule handles POST /api/v1/organizations/{orgID}/data-sharing.
func (h *DataSharingHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	rule, err := h.service.CreateRule(r.Context(), app.CreateRuleInput{
		OrganizationID: chi.URLParam(r, "orgID"),
		Name:           req.Name,
		Description:    req.Description,
		SourceUnitID:   req.SourceUnitID,
		TargetUnitID:   req.TargetUnitID,
		DataTypes:      req.DataTypes,
		AccessLevel:    req.AccessLevel,
		Conditions:     req.Conditions,
		IsActive:       req.IsActive,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toRuleResponse(rule, nil, nil))
}

// ListRules handles GET /api/v1/organizations/{orgID}/data-sharing.
func (h *DataSharingHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListRules(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := RuleListResponse{
		Rules: make([]RuleResponse, 0, len(details)),
		Total: len(details),
	}
	for _, d := range details {
		resp.Rules = append(resp.Rules, toRuleResponse(d.Rule, d.SourceUnit, d.TargetUnit))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetRule handles GET /api/v1/data-sharing/{ruleID}.
func (h *DataSharingHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.GetRule(r.Context(), chi.URLParam(r, "ruleID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toRuleResponse(rule, nil, nil))
}

// UpdateRule handles PUT /api/v1/data-sharing/{ruleID}.
func (h *DataSharingHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	rule, err := h.service.UpdateRule(r.Context(), chi.URLParam(r, "ruleID"), app.UpdateRuleInput{
		Name:        req.Name,
		Description: req.Description,
		DataTypes:   req.DataTypes,
		AccessLevel: req.AccessLevel,
		Conditions:  req.Conditions,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toRuleResponse(rule, nil, nil))
}

// DeleteRule handles DELETE /api/v1/data-sharing/{ruleID}.
func (h *DataSharingHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRule(r.Context(), chi.URLParam(r, "ruleID")); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DataSharingHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, datasharing.ErrRuleNotFound):
		apierror.NotFound("Data sharing rule").WriteJSON(w)
	case errors.Is(err, unit.ErrUnitNotFound):
		apierror.NotFound("Unit").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(validationMessage(err)).WriteJSON(w)
	default:
		h.logger.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
