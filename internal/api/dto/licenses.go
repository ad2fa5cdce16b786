package dto

import (
	"strings"
	"time"

	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/database/models"
)

type ImportLicenseRequest struct {
	License string `json:"license"`
}

func (r ImportLicenseRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.License) == "" {
		errors["license"] = "License is required"
	}

	return errors
}

type LicenseDTO struct {
	ID        string    `json:"id"`
	Licensee  string    `json:"licensee"`
	Plan      string    `json:"plan"`
	StartsAt  time.Time `json:"starts_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewLicenseDTO(l *models.License) LicenseDTO {
	return LicenseDTO{
		ID:        l.ID.String(),
		Licensee:  l.Licensee,
		Plan:      l.Plan,
		StartsAt:  l.StartsAt,
		ExpiresAt: l.ExpiresAt,
	}
}

// CurrentLicenseResponse has License nil when no license is in force.
type CurrentLicenseResponse struct {
	License   *LicenseDTO `json:"license"`
	Recipient string      `json:"recipient"`
}

func NewCurrentLicenseResponse(l *access.License, recipient string) CurrentLicenseResponse {
	resp := CurrentLicenseResponse{Recipient: recipient}
	if l != nil {
		resp.License = &LicenseDTO{
			ID:        l.ID.String(),
			Licensee:  l.Licensee,
			Plan:      string(l.Restrictions.Plan),
			StartsAt:  l.StartsAt,
			ExpiresAt: l.ExpiresAt,
		}
	}
	return resp
}
