package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is the billing state of an organization as last synced
// from the payment provider.
type Subscription struct {
	Base
	OrganizationID       uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"organization_id"`
	Plan                 string     `gorm:"not null;default:'free'" json:"plan"` // free, basic, team, business
	Status               string     `gorm:"not null;index" json:"status"`
	UsersCount           int        `json:"users_count"`
	InvoiceUpcomingTotal int64      `json:"invoice_upcoming_total"` // cents
	CurrentPeriodEnd     time.Time  `json:"current_period_end"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) Active() bool {
	return s.Status == SubscriptionStatusActive
}

// RenewsOrCancelsOn is the first day after the current billing period.
func (s *Subscription) RenewsOrCancelsOn() string {
	return s.CurrentPeriodEnd.UTC().AddDate(0, 0, 1).Format("2006-01-02")
}
