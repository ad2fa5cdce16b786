package models

import "time"

type Organization struct {
	Base
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
	// Organizations on trial get the business plan until TrialEndsAt.
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`

	// Relationships
	Projects     []Project     `gorm:"foreignKey:OrganizationID" json:"-"`
	Subscription *Subscription `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
