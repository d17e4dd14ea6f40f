package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan verifies the one-current-version ledger rule.
	TaskLedgerIntegrityScan = "ledger:integrity_scan"
	// TaskStandardCostWarmup pre-populates the current-version cache.
	TaskStandardCostWarmup = "standardcost:warmup"
)

// StandardCostWarmupPayload names the ledger pair to warm.
type StandardCostWarmupPayload struct {
	ConfigurationID uuid.UUID `json:"configuration_id"`
	SalesChannel    string    `json:"sales_channel"`
}

// NewStandardCostWarmupTask constructs a warmup task.
func NewStandardCostWarmupTask(payload StandardCostWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStandardCostWarmup, data), nil
}

// NewLedgerIntegrityScanTask constructs an integrity scan task. The scan
// takes no parameters; it always covers the whole ledger.
func NewLedgerIntegrityScanTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrityScan, nil)
}
