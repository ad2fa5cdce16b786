package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api/validation"
	"github.com/hugh/langhub/internal/projects"
)

type CreateProjectRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	OrganizationID string `json:"organization_id,omitempty"`
}

func (r *CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	r.Name = validation.TruncateString(validation.SanitizeString(strings.TrimSpace(r.Name)), maxNameLength)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	r.Description = validation.TruncateString(validation.SanitizeString(r.Description), 2000)
	if r.OrganizationID != "" && !validation.IsValidUUID(r.OrganizationID) {
		errors["organization_id"] = "Invalid organization ID"
	}

	return errors
}

// Organization returns the parsed organization id, nil for private projects.
func (r CreateProjectRequest) Organization() *uuid.UUID {
	if r.OrganizationID == "" {
		return nil
	}
	id, err := uuid.Parse(r.OrganizationID)
	if err != nil {
		return nil
	}
	return &id
}

type ProjectDTO struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	OrganizationID        *string   `json:"organization_id"`
	CurrentUserRole       string    `json:"current_user_role"`
	CurrentUserRoleSource string    `json:"current_user_role_source"`
	CreatedAt             time.Time `json:"created_at"`
}

func NewProjectDTO(v projects.ProjectView) ProjectDTO {
	out := ProjectDTO{
		ID:                    v.Project.ID.String(),
		Name:                  v.Project.Name,
		Description:           v.Project.Description,
		CurrentUserRole:       v.Role.String(),
		CurrentUserRoleSource: string(v.RoleSource),
		CreatedAt:             v.Project.CreatedAt,
	}
	if v.Project.OrganizationID != nil {
		id := v.Project.OrganizationID.String()
		out.OrganizationID = &id
	}
	return out
}

// FeaturesResponse lists every known feature with its availability.
type FeaturesResponse struct {
	Features map[string]bool `json:"features"`
}

func NewFeaturesResponse(features map[access.Feature]bool) FeaturesResponse {
	out := make(map[string]bool, len(features))
	for f, enabled := range features {
		out[string(f)] = enabled
	}
	return FeaturesResponse{Features: out}
}
