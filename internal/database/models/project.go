package models

import "github.com/google/uuid"

type Project struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	// Nil for private projects.
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
