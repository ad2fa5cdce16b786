package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/langhub/internal/api/dto"
	"github.com/hugh/langhub/internal/api/middleware"
	"github.com/hugh/langhub/internal/projects"
)

type ProjectHandler struct {
	projects *projects.Service
	logger   *slog.Logger
}

func NewProjectHandler(projects *projects.Service, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if !decodeBody(w, r, &req) || !validate(w, req.Validate()) {
		return
	}

	project, err := h.projects.CreateProject(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Description, req.Organization())
	if err != nil {
		if errors.Is(err, projects.ErrNameRequired) {
			writeError(w, http.StatusBadRequest, "Name is required")
			return
		}
		writeAccessError(w, h.logger, err, "Failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewProjectDTO(*project))
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.ListProjects(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to list projects")
		return
	}

	out := make([]dto.ProjectDTO, 0, len(list))
	for _, p := range list {
		out = append(out, dto.NewProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, dto.NewList(out))
}

// Get handles GET /api/v1/projects/{projectID}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID", "project")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(r.Context(), middleware.GetUserID(r.Context()), projectID)
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProjectDTO(*project))
}

// Features handles GET /api/v1/projects/{projectID}/features
func (h *ProjectHandler) Features(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "projectID", "project")
	if !ok {
		return
	}

	features, err := h.projects.Features(r.Context(), middleware.GetUserID(r.Context()), projectID)
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to load features")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewFeaturesResponse(features))
}
