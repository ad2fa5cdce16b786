package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeSyncSubscriptions = "billing:sync_subscriptions"
	TypeLicenseCheck      = "license:check"
)

// NewSyncSubscriptionsTask expires canceled subscriptions whose period has ended.
func NewSyncSubscriptionsTask() *asynq.Task {
	return asynq.NewTask(TypeSyncSubscriptions, nil)
}

// LicenseCheckPayload says why the check was requested. Scheduled checks
// carry no payload.
type LicenseCheckPayload struct {
	Trigger string `json:"trigger"`
}

const (
	TriggerScheduled = "scheduled"
	TriggerImport    = "import"
)

func NewLicenseCheckTask(payload LicenseCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLicenseCheck, data), nil
}
