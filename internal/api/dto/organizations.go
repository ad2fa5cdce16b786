package dto

import (
	"strings"
	"time"

	"github.com/hugh/langhub/internal/api/validation"
	"github.com/hugh/langhub/internal/database/models"
	"github.com/hugh/langhub/internal/projects"
)

const maxNameLength = 100

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

func (r *CreateOrganizationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	r.Name = validation.TruncateString(validation.SanitizeString(strings.TrimSpace(r.Name)), maxNameLength)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

type OrganizationDTO struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	CurrentUserRole string     `json:"current_user_role"`
	TrialEndsAt     *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func NewOrganizationDTO(v projects.OrganizationView) OrganizationDTO {
	return OrganizationDTO{
		ID:              v.Organization.ID.String(),
		Name:            v.Organization.Name,
		Slug:            v.Organization.Slug,
		CurrentUserRole: v.Role.String(),
		TrialEndsAt:     v.Organization.TrialEndsAt,
		CreatedAt:       v.Organization.CreatedAt,
	}
}

// SubscriptionDTO is an organization's billing state. Organizations that
// never subscribed report the free plan with Active false.
type SubscriptionDTO struct {
	ID                   string `json:"id,omitempty"`
	Plan                 string `json:"plan"`
	UsersCount           int    `json:"users_count"`
	InvoiceUpcomingTotal int64  `json:"invoice_upcoming_total"`
	Canceled             bool   `json:"canceled"`
	Active               bool   `json:"active"`
	RenewsOrCancelsOn    string `json:"renews_or_cancels_on,omitempty"`
}

func NewSubscriptionDTO(s *models.Subscription) SubscriptionDTO {
	if s == nil {
		return SubscriptionDTO{Plan: "free"}
	}
	return SubscriptionDTO{
		ID:                   s.ID.String(),
		Plan:                 s.Plan,
		UsersCount:           s.UsersCount,
		InvoiceUpcomingTotal: s.InvoiceUpcomingTotal,
		Canceled:             s.CanceledAt != nil,
		Active:               s.Active(),
		RenewsOrCancelsOn:    s.RenewsOrCancelsOn(),
	}
}
