package standardcost

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OG0914/cost-management-sub000/internal/platform/db"
	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/shared"
)

// PostgreSQL error codes raised when two writers race on the same ledger.
// The unique violation comes from the (configuration_id, sales_channel,
// version) index; under repeatable read the loser of the demote update sees
// a serialization failure instead. All three mean the same thing here: the
// version was taken, re-read and retry.
const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

func isWriteConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case uniqueViolation, serializationFailure, deadlockDetected:
		return true
	}
	return false
}

// Repository persists the standard-cost ledger.
type Repository interface {
	// Append allocates the next version inside one transaction: it demotes
	// the current version (no-op when none exists) and inserts v as current.
	// A concurrent writer winning the same version surfaces as ErrConflict.
	Append(ctx context.Context, v *Version) error
	Current(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) (*Version, error)
	GetVersion(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel, version int) (*Version, error)
	History(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) ([]Version, error)
	// DeleteAll hard-removes every version for a configuration. Fails with
	// ErrConflict while any quotation still references the configuration.
	DeleteAll(ctx context.Context, configurationID uuid.UUID) error
	// CountCurrentViolations reports (configuration, channel) pairs whose
	// current-version count is not exactly one. Used by the integrity scan.
	CountCurrentViolations(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const versionColumns = `id, configuration_id, sales_channel, version, is_current, base_cost,
overhead_price, domestic_price, export_price, quantity, source_quotation_id, set_by, created_at`

func (r *repository) Append(ctx context.Context, v *Version) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var maxVersion int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM standard_costs
WHERE configuration_id=$1 AND sales_channel=$2`, v.ConfigurationID, string(v.SalesChannel)).Scan(&maxVersion); err != nil {
			return err
		}
		v.Version = maxVersion + 1

		if _, err := tx.Exec(ctx, `UPDATE standard_costs SET is_current=false
WHERE configuration_id=$1 AND sales_channel=$2 AND is_current`, v.ConfigurationID, string(v.SalesChannel)); err != nil {
			return err
		}

		v.IsCurrent = true
		return tx.QueryRow(ctx, `INSERT INTO standard_costs
(configuration_id, sales_channel, version, is_current, base_cost, overhead_price,
 domestic_price, export_price, quantity, source_quotation_id, set_by, created_at)
VALUES ($1,$2,$3,true,$4,$5,$6,$7,$8,$9,$10,NOW())
RETURNING id, created_at`,
			v.ConfigurationID, string(v.SalesChannel), v.Version, v.BaseCost, v.OverheadPrice,
			v.DomesticPrice, v.ExportPrice, v.Quantity, v.SourceQuotationID, v.SetBy).
			Scan(&v.ID, &v.CreatedAt)
	})
	if err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("standard cost %s/%s version %d: %w",
				v.ConfigurationID, v.SalesChannel, v.Version, shared.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *repository) Current(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) (*Version, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+versionColumns+` FROM standard_costs
WHERE configuration_id=$1 AND sales_channel=$2 AND is_current`, configurationID, string(channel))
	return scanVersion(row, configurationID, channel, 0)
}

func (r *repository) GetVersion(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel, version int) (*Version, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+versionColumns+` FROM standard_costs
WHERE configuration_id=$1 AND sales_channel=$2 AND version=$3`, configurationID, string(channel), version)
	return scanVersion(row, configurationID, channel, version)
}

func (r *repository) History(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) ([]Version, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+versionColumns+` FROM standard_costs
WHERE configuration_id=$1 AND sales_channel=$2 ORDER BY version DESC`, configurationID, string(channel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var versions []Version
	for rows.Next() {
		var v Version
		var channelText string
		if err := rows.Scan(&v.ID, &v.ConfigurationID, &channelText, &v.Version, &v.IsCurrent,
			&v.BaseCost, &v.OverheadPrice, &v.DomesticPrice, &v.ExportPrice, &v.Quantity,
			&v.SourceQuotationID, &v.SetBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.SalesChannel = pricing.Channel(channelText)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *repository) DeleteAll(ctx context.Context, configurationID uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var referenced bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotations WHERE configuration_id=$1)`,
			configurationID).Scan(&referenced); err != nil {
			return err
		}
		if referenced {
			return fmt.Errorf("configuration %s still referenced by quotations: %w",
				configurationID, shared.ErrConflict)
		}
		_, err := tx.Exec(ctx, `DELETE FROM standard_costs WHERE configuration_id=$1`, configurationID)
		return err
	})
}

func (r *repository) CountCurrentViolations(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM (
SELECT configuration_id, sales_channel FROM standard_costs
GROUP BY configuration_id, sales_channel
HAVING COUNT(*) FILTER (WHERE is_current) <> 1) violations`).Scan(&count)
	return count, err
}

func scanVersion(row pgx.Row, configurationID uuid.UUID, channel pricing.Channel, version int) (*Version, error) {
	var v Version
	var channelText string
	if err := row.Scan(&v.ID, &v.ConfigurationID, &channelText, &v.Version, &v.IsCurrent,
		&v.BaseCost, &v.OverheadPrice, &v.DomesticPrice, &v.ExportPrice, &v.Quantity,
		&v.SourceQuotationID, &v.SetBy, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if version > 0 {
				return nil, fmt.Errorf("standard cost %s/%s version %d: %w", configurationID, channel, version, shared.ErrNotFound)
			}
			return nil, fmt.Errorf("standard cost %s/%s: %w", configurationID, channel, shared.ErrNotFound)
		}
		return nil, err
	}
	v.SalesChannel = pricing.Channel(channelText)
	return &v, nil
}
