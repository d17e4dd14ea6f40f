package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/shared"
	"github.com/OG0914/cost-management-sub000/internal/standardcost"
)

// StandardCostWarmupJob re-populates the current-version cache for one pair
// after a ledger write, so the first reader does not pay the database trip.
type StandardCostWarmupJob struct {
	Ledger *standardcost.Service
	Logger *slog.Logger
}

// NewStandardCostWarmupJob wires dependencies for the warmup handler.
func NewStandardCostWarmupJob(ledger *standardcost.Service, logger *slog.Logger) *StandardCostWarmupJob {
	return &StandardCostWarmupJob{Ledger: ledger, Logger: logger}
}

// Handle processes TaskStandardCostWarmup tasks.
func (j *StandardCostWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("standard cost warmup: handler not configured")
	}
	var payload StandardCostWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	channel := pricing.Channel(payload.SalesChannel)
	if !channel.Valid() {
		return asynq.SkipRetry
	}

	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := j.Ledger.WarmCurrent(warmCtx, payload.ConfigurationID, channel); err != nil {
		j.logger().Warn("standard cost warmup failed",
			slog.String("configuration_id", payload.ConfigurationID.String()),
			slog.String("channel", payload.SalesChannel),
			slog.Any("error", err))
		if errors.Is(err, shared.ErrNotFound) {
			// The pair was deleted between enqueue and execution.
			return asynq.SkipRetry
		}
		return err
	}
	return nil
}

func (j *StandardCostWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStandardCostWarmup))
	}
	return slog.Default().With(slog.String("job", TaskStandardCostWarmup))
}
