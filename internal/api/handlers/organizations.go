package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/langhub/internal/api/dto"
	"github.com/hugh/langhub/internal/api/middleware"
	"github.com/hugh/langhub/internal/billing"
	"github.com/hugh/langhub/internal/projects"
)

type OrganizationHandler struct {
	projects *projects.Service
	billing  *billing.Service
	logger   *slog.Logger
}

func NewOrganizationHandler(projects *projects.Service, billing *billing.Service, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{projects: projects, billing: billing, logger: logger}
}

// Create handles POST /api/v1/organizations
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrganizationRequest
	if !decodeBody(w, r, &req) || !validate(w, req.Validate()) {
		return
	}

	org, err := h.projects.CreateOrganization(r.Context(), middleware.GetUserID(r.Context()), req.Name)
	if err != nil {
		if errors.Is(err, projects.ErrNameRequired) {
			writeError(w, http.StatusBadRequest, "Name is required")
			return
		}
		writeAccessError(w, h.logger, err, "Failed to create organization")
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewOrganizationDTO(*org))
}

// List handles GET /api/v1/organizations
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.projects.ListOrganizations(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to list organizations")
		return
	}

	out := make([]dto.OrganizationDTO, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, dto.NewOrganizationDTO(org))
	}
	writeJSON(w, http.StatusOK, dto.NewList(out))
}

// Get handles GET /api/v1/organizations/{orgID}
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "orgID", "organization")
	if !ok {
		return
	}

	org, err := h.projects.GetOrganization(r.Context(), middleware.GetUserID(r.Context()), orgID)
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to load organization")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewOrganizationDTO(*org))
}

// Subscription handles GET /api/v1/organizations/{orgID}/subscription
func (h *OrganizationHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "orgID", "organization")
	if !ok {
		return
	}

	if _, err := h.projects.GetOrganization(r.Context(), middleware.GetUserID(r.Context()), orgID); err != nil {
		writeAccessError(w, h.logger, err, "Failed to load organization")
		return
	}

	sub, err := h.billing.GetSubscription(r.Context(), orgID)
	if err != nil {
		h.logger.Error("loading subscription", "organization_id", orgID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load subscription")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSubscriptionDTO(sub))
}
