package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewAction enumerates review trail actions.
type ReviewAction string

const (
	// ReviewSubmitted marks the first submission of a draft.
	ReviewSubmitted ReviewAction = "SUBMITTED"
	// ReviewApproved marks an approval.
	ReviewApproved ReviewAction = "APPROVED"
	// ReviewRejected marks a rejection.
	ReviewRejected ReviewAction = "REJECTED"
	// ReviewResubmitted marks a submission after rejection.
	ReviewResubmitted ReviewAction = "RESUBMITTED"
)

// ReviewEvent is one append-only audit record for a quotation.
type ReviewEvent struct {
	ID          int64
	QuotationID uuid.UUID
	Action      ReviewAction
	OperatorID  int64
	Comment     string
	At          time.Time
}

// ReviewRecorder persists the review audit trail. Writes are best-effort:
// callers log failures and keep the parent state change.
type ReviewRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewReviewRecorder constructs ReviewRecorder.
func NewReviewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ReviewRecorder {
	return &ReviewRecorder{pool: pool, logger: logger}
}

// Record writes one review event.
func (r *ReviewRecorder) Record(ctx context.Context, event ReviewEvent) error {
	if r == nil || r.pool == nil {
		return errors.New("review recorder not initialised")
	}
	if event.QuotationID == uuid.Nil {
		return errors.New("review event quotation id required")
	}
	if event.Action == "" {
		return errors.New("review event action required")
	}
	if event.OperatorID == 0 {
		return errors.New("review event operator required")
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO review_events (quotation_id, action, operator_id, comment, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		event.QuotationID, string(event.Action), event.OperatorID, event.Comment, event.At)
	if err != nil {
		r.logger.Error("record review event", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns the review trail for a quotation, oldest first.
func (r *ReviewRecorder) List(ctx context.Context, quotationID uuid.UUID) ([]ReviewEvent, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("review recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, quotation_id, action, operator_id, comment, created_at
FROM review_events WHERE quotation_id=$1 ORDER BY created_at ASC, id ASC`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []ReviewEvent
	for rows.Next() {
		var e ReviewEvent
		var action string
		if err := rows.Scan(&e.ID, &e.QuotationID, &action, &e.OperatorID, &e.Comment, &e.At); err != nil {
			return nil, err
		}
		e.Action = ReviewAction(action)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
