package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/OG0914/cost-management-sub000/internal/observability"
	"github.com/OG0914/cost-management-sub000/internal/standardcost"
)

// LedgerIntegrityJob scans the standard-cost ledger for pairs violating the
// exactly-one-current rule and publishes the count as a gauge. Violations can
// only appear through out-of-band writes; the job exists to surface them, not
// to repair them.
type LedgerIntegrityJob struct {
	Ledger  *standardcost.Service
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// NewLedgerIntegrityJob wires dependencies for the scan handler.
func NewLedgerIntegrityJob(ledger *standardcost.Service, metrics *observability.Metrics, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Ledger: ledger, Metrics: metrics, Logger: logger}
}

// Handle processes TaskLedgerIntegrityScan tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	violations, err := j.Ledger.IntegrityViolations(ctx)
	if err != nil {
		j.logger().Error("ledger integrity scan failed", slog.Any("error", err))
		return err
	}
	j.Metrics.SetLedgerViolations(violations)
	if violations > 0 {
		j.logger().Error("ledger integrity violations found", slog.Int("pairs", violations))
	} else {
		j.logger().Info("ledger integrity scan clean")
	}
	return nil
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrityScan))
}
