package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ScopeTypeProject      = "project"
	ScopeTypeOrganization = "organization"
)

// RoleAssignment grants a user a role in one project or organization.
// Rows are hard deleted so a removed member can be invited again.
type RoleAssignment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_role_assignments_user_scope" json:"user_id"`
	ScopeType string    `gorm:"not null;uniqueIndex:idx_role_assignments_user_scope;index:idx_role_assignments_scope" json:"scope_type"`
	ScopeID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_role_assignments_user_scope;index:idx_role_assignments_scope" json:"scope_id"`
	Role      string    `gorm:"not null" json:"role"` // translator, developer, manager, owner
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}

func (a *RoleAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
