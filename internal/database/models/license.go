package models

import "time"

// License stores an instance license as issued. Data is the age-encrypted
// payload; the plain columns are copies used for lookup.
type License struct {
	Base
	Licensee  string    `gorm:"not null" json:"licensee"`
	Plan      string    `gorm:"not null" json:"plan"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	StartsAt  time.Time `gorm:"not null;index" json:"starts_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (License) TableName() string {
	return "licenses"
}
