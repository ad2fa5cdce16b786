package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/langhub/internal/billing"
	"github.com/hugh/langhub/internal/license"
)

type Handler struct {
	billing    *billing.Service
	licenses   *license.Service
	logger     *slog.Logger
	warnWithin time.Duration
	now        func() time.Time
}

func NewHandler(billing *billing.Service, licenses *license.Service, warnWithin time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		billing:    billing,
		licenses:   licenses,
		logger:     logger,
		warnWithin: warnWithin,
		now:        time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSyncSubscriptions, h.HandleSyncSubscriptions)
	mux.HandleFunc(TypeLicenseCheck, h.HandleLicenseCheck)
}

func (h *Handler) HandleSyncSubscriptions(ctx context.Context, t *asynq.Task) error {
	expired, err := h.billing.ExpireSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("expire subscriptions: %w", err)
	}

	if expired > 0 {
		h.logger.Info("subscriptions expired", "count", expired)
	} else {
		h.logger.Debug("no subscriptions to expire")
	}
	return nil
}

// HandleLicenseCheck logs the instance license state. A license that cannot
// be read fails the task so asynq retries it.
func (h *Handler) HandleLicenseCheck(ctx context.Context, t *asynq.Task) error {
	payload := LicenseCheckPayload{Trigger: TriggerScheduled}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}

	lic, err := h.licenses.CurrentActiveLicense(ctx)
	if err != nil {
		return fmt.Errorf("load current license: %w", err)
	}

	if lic == nil {
		h.logger.Warn("no active license, private projects are limited to free features",
			"trigger", payload.Trigger,
		)
		return nil
	}

	remaining := lic.ExpiresAt.Sub(h.now())
	if remaining <= h.warnWithin {
		h.logger.Warn("license expires soon",
			"trigger", payload.Trigger,
			"license_id", lic.ID,
			"licensee", lic.Licensee,
			"expires_at", lic.ExpiresAt,
			"days_left", int(remaining.Hours()/24),
		)
		return nil
	}

	h.logger.Info("license active",
		"trigger", payload.Trigger,
		"license_id", lic.ID,
		"licensee", lic.Licensee,
		"plan", lic.Restrictions.Plan,
		"expires_at", lic.ExpiresAt,
	)
	return nil
}
