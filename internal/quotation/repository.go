package quotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OG0914/cost-management-sub000/internal/platform/db"
	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/shared"
	"github.com/OG0914/cost-management-sub000/internal/workflow"
)

// Repository persists quotations with their items and fees.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	Insert(ctx context.Context, q *Quotation) error
	UpdateHeader(ctx context.Context, q *Quotation) error
	ReplaceItems(ctx context.Context, id uuid.UUID, items []Item, fees []Fee) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.Status, actorID int64, reason *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quotationColumns = `id, configuration_id, customer_name, regulation, quantity, freight_total,
sales_channel, include_freight_in_base, vat_rate, custom_profit_tiers, status,
base_cost, overhead_price, final_price, currency, created_by, reviewed_by,
rejection_reason, submitted_at, reviewed_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id=$1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}

	if q.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	if q.CustomFees, err = r.fees(ctx, id); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) items(ctx context.Context, id uuid.UUID) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, quotation_id, category, item_name, usage_amount, unit_price, subtotal, after_overhead, coefficient_applied
FROM quotation_items WHERE quotation_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var item Item
		var category string
		if err := rows.Scan(&item.ID, &item.QuotationID, &category, &item.ItemName, &item.UsageAmount, &item.UnitPrice, &item.Subtotal, &item.AfterOverhead, &item.CoefficientApplied); err != nil {
			return nil, err
		}
		item.Category = Category(category)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) fees(ctx context.Context, id uuid.UUID) ([]Fee, error) {
	rows, err := r.db.Query(ctx, `SELECT id, quotation_id, fee_name, fee_rate, sort_order
FROM quotation_custom_fees WHERE quotation_id=$1 ORDER BY sort_order ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var fees []Fee
	for rows.Next() {
		var fee Fee
		if err := rows.Scan(&fee.ID, &fee.QuotationID, &fee.FeeName, &fee.FeeRate, &fee.SortOrder); err != nil {
			return nil, err
		}
		fees = append(fees, fee)
	}
	return fees, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if req.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ConfigurationID != nil {
		where += fmt.Sprintf(" AND configuration_id = $%d", argPos)
		args = append(args, *req.ConfigurationID)
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotations "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM quotations %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		quotationColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, q *Quotation) error {
	tiers, err := marshalTiers(q.CustomProfitTiers)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO quotations
(id, configuration_id, customer_name, regulation, quantity, freight_total, sales_channel,
 include_freight_in_base, vat_rate, custom_profit_tiers, status, base_cost, overhead_price,
 final_price, currency, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())`,
		q.ID, q.ConfigurationID, q.CustomerName, q.Regulation, q.Quantity, q.FreightTotal,
		string(q.SalesChannel), q.IncludeFreightInBase, q.VATRate, tiers, string(q.Status),
		q.BaseCost, q.OverheadPrice, q.FinalPrice, q.Currency, q.CreatedBy)
	return err
}

func (r *repository) UpdateHeader(ctx context.Context, q *Quotation) error {
	tiers, err := marshalTiers(q.CustomProfitTiers)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE quotations SET
customer_name=$2, regulation=$3, quantity=$4, freight_total=$5, sales_channel=$6,
include_freight_in_base=$7, vat_rate=$8, custom_profit_tiers=$9, base_cost=$10,
overhead_price=$11, final_price=$12, currency=$13, updated_at=NOW()
WHERE id=$1`,
		q.ID, q.CustomerName, q.Regulation, q.Quantity, q.FreightTotal, string(q.SalesChannel),
		q.IncludeFreightInBase, q.VATRate, tiers, q.BaseCost, q.OverheadPrice, q.FinalPrice, q.Currency)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", q.ID, shared.ErrNotFound)
	}
	return nil
}

// ReplaceItems swaps the full item and fee set. Callers must run it inside
// WithTx so a partially written set is never visible.
func (r *repository) ReplaceItems(ctx context.Context, id uuid.UUID, items []Item, fees []Fee) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id=$1`, id); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_custom_fees WHERE quotation_id=$1`, id); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := r.db.Exec(ctx, `INSERT INTO quotation_items
(quotation_id, category, item_name, usage_amount, unit_price, subtotal, after_overhead, coefficient_applied)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			id, string(item.Category), item.ItemName, item.UsageAmount, item.UnitPrice, item.Subtotal, item.AfterOverhead, item.CoefficientApplied); err != nil {
			return err
		}
	}
	for _, fee := range fees {
		if _, err := r.db.Exec(ctx, `INSERT INTO quotation_custom_fees (quotation_id, fee_name, fee_rate, sort_order)
VALUES ($1,$2,$3,$4)`, id, fee.FeeName, fee.FeeRate, fee.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.Status, actorID int64, reason *string) error {
	var tag pgconn.CommandTag
	var err error
	switch status {
	case workflow.StatusSubmitted:
		tag, err = r.db.Exec(ctx, `UPDATE quotations SET status=$2, submitted_at=NOW(), reviewed_by=NULL, reviewed_at=NULL, rejection_reason=NULL, updated_at=NOW() WHERE id=$1`,
			id, string(status))
	case workflow.StatusApproved:
		tag, err = r.db.Exec(ctx, `UPDATE quotations SET status=$2, reviewed_by=$3, reviewed_at=NOW(), rejection_reason=NULL, updated_at=NOW() WHERE id=$1`,
			id, string(status), actorID)
	case workflow.StatusRejected:
		tag, err = r.db.Exec(ctx, `UPDATE quotations SET status=$2, reviewed_by=$3, reviewed_at=NOW(), rejection_reason=$4, updated_at=NOW() WHERE id=$1`,
			id, string(status), actorID, reason)
	default:
		tag, err = r.db.Exec(ctx, `UPDATE quotations SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id=$1`, id); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_custom_fees WHERE quotation_id=$1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var channel, status string
	var tiers []byte
	if err := row.Scan(&q.ID, &q.ConfigurationID, &q.CustomerName, &q.Regulation, &q.Quantity,
		&q.FreightTotal, &channel, &q.IncludeFreightInBase, &q.VATRate, &tiers, &status,
		&q.BaseCost, &q.OverheadPrice, &q.FinalPrice, &q.Currency, &q.CreatedBy, &q.ReviewedBy,
		&q.RejectionReason, &q.SubmittedAt, &q.ReviewedAt, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.SalesChannel = pricing.Channel(channel)
	q.Status = workflow.Status(status)
	if len(tiers) > 0 {
		if err := json.Unmarshal(tiers, &q.CustomProfitTiers); err != nil {
			return nil, fmt.Errorf("decode custom profit tiers: %w", err)
		}
	}
	return &q, nil
}

func marshalTiers(tiers []pricing.ProfitTier) ([]byte, error) {
	if len(tiers) == 0 {
		return nil, nil
	}
	return json.Marshal(tiers)
}
