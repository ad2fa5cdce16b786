package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOrganizationNotFound = errors.New("organization not found")

var _ access.BillingChecker = (*Service)(nil)

// Service reads the billing state of organizations.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// ActivePlan returns the plan an organization is entitled to right now.
// Trialing organizations get the business plan; otherwise an active
// subscription decides, and anything else is the free plan.
func (s *Service) ActivePlan(ctx context.Context, organizationID uuid.UUID) (access.Plan, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrOrganizationNotFound
		}
		return "", err
	}

	if org.TrialEndsAt != nil && s.now().Before(*org.TrialEndsAt) {
		return access.PlanBusiness, nil
	}

	sub, err := s.GetSubscription(ctx, organizationID)
	if err != nil {
		return "", err
	}
	if sub == nil || !sub.Active() {
		return access.PlanFree, nil
	}

	plan, ok := access.ParsePlan(sub.Plan)
	if !ok {
		return access.PlanFree, nil
	}
	return plan, nil
}

func (s *Service) OrganizationFeatureEnabled(ctx context.Context, organizationID uuid.UUID, feature access.Feature) (bool, error) {
	plan, err := s.ActivePlan(ctx, organizationID)
	if err != nil {
		return false, err
	}
	return access.FeatureAllowed(feature, plan), nil
}

// GetSubscription returns nil when the organization never subscribed.
func (s *Service) GetSubscription(ctx context.Context, organizationID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// SaveSubscription records the state reported by the payment provider.
func (s *Service) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if _, ok := access.ParsePlan(sub.Plan); !ok {
		return fmt.Errorf("unknown plan %q", sub.Plan)
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan", "status", "users_count", "invoice_upcoming_total",
				"current_period_end", "canceled_at", "updated_at",
			}),
		}).
		Create(sub).Error
}

// ExpireSubscriptions moves canceled subscriptions whose paid period is over
// out of the active state. It returns the number of subscriptions changed.
func (s *Service) ExpireSubscriptions(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND canceled_at IS NOT NULL AND current_period_end < ?",
			models.SubscriptionStatusActive, s.now()).
		Update("status", models.SubscriptionStatusCanceled)
	return result.RowsAffected, result.Error
}
