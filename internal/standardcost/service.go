package standardcost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/quotation"
	"github.com/OG0914/cost-management-sub000/internal/shared"
	"github.com/OG0914/cost-management-sub000/internal/workflow"
)

// QuotationSource provides the approved quotations promotion reads from.
type QuotationSource interface {
	Get(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error)
}

// Warmer schedules background cache population after ledger writes.
// Enqueue failures are logged and swallowed; the ledger write already
// succeeded.
type Warmer interface {
	EnqueueWarmup(configurationID uuid.UUID, channel pricing.Channel) error
}

// Service implements ledger operations on top of Repository. Reads go
// through the Redis cache collapsed by singleflight; every write bumps the
// cache version so stale current-version entries die immediately.
type Service struct {
	repo       Repository
	quotations QuotationSource
	cache      *Cache
	warmer     Warmer
	logger     *slog.Logger
	group      singleflight.Group
}

// NewService wires the ledger service. cache and warmer may be nil.
func NewService(repo Repository, quotations QuotationSource, cache *Cache, warmer Warmer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		quotations: quotations,
		cache:      cache,
		warmer:     warmer,
		logger:     logger,
	}
}

// Promote appends a new current version built from an approved quotation.
// Reviewer or admin only. A version-allocation race is retried once; the
// retry re-reads max(version) inside its own transaction, so the second
// attempt lands on the next free slot.
func (s *Service) Promote(ctx context.Context, quotationID uuid.UUID, actor shared.Actor) (*Version, error) {
	if !actor.CanReview() {
		return nil, fmt.Errorf("promote standard cost: %w", shared.ErrForbidden)
	}
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if err := workflow.EnsurePromotable(q.Status); err != nil {
		return nil, err
	}
	if q.ConfigurationID == uuid.Nil {
		return nil, &shared.ValidationError{Field: "configuration_id", Reason: "quotation has no configuration to promote into"}
	}

	v := &Version{
		ConfigurationID:   q.ConfigurationID,
		SalesChannel:      q.SalesChannel,
		BaseCost:          q.BaseCost,
		OverheadPrice:     q.OverheadPrice,
		Quantity:          q.Quantity,
		SourceQuotationID: q.ID,
		SetBy:             actor.ID,
	}
	final := q.FinalPrice
	switch q.SalesChannel {
	case pricing.ChannelExport:
		v.ExportPrice = &final
	default:
		v.DomesticPrice = &final
	}
	return s.append(ctx, v)
}

// Restore appends a copy of a historical version as the new current one.
// The original row is untouched; the copy records the restoring actor as
// set_by while keeping the source quotation reference.
func (s *Service) Restore(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel, version int, actor shared.Actor) (*Version, error) {
	if !actor.CanReview() {
		return nil, fmt.Errorf("restore standard cost: %w", shared.ErrForbidden)
	}
	src, err := s.repo.GetVersion(ctx, configurationID, channel, version)
	if err != nil {
		return nil, err
	}

	v := &Version{
		ConfigurationID:   src.ConfigurationID,
		SalesChannel:      src.SalesChannel,
		BaseCost:          src.BaseCost,
		OverheadPrice:     src.OverheadPrice,
		DomesticPrice:     src.DomesticPrice,
		ExportPrice:       src.ExportPrice,
		Quantity:          src.Quantity,
		SourceQuotationID: src.SourceQuotationID,
		SetBy:             actor.ID,
	}
	return s.append(ctx, v)
}

func (s *Service) append(ctx context.Context, v *Version) (*Version, error) {
	err := s.repo.Append(ctx, v)
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Warn("standard cost version race, retrying",
			slog.String("configuration_id", v.ConfigurationID.String()),
			slog.String("channel", string(v.SalesChannel)))
		err = s.repo.Append(ctx, v)
	}
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, v.ConfigurationID, v.SalesChannel)
	return v, nil
}

func (s *Service) afterWrite(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("standard cost cache bump failed", slog.Any("error", err))
	}
	if s.warmer == nil {
		return
	}
	if err := s.warmer.EnqueueWarmup(configurationID, channel); err != nil {
		s.logger.Warn("standard cost warmup enqueue failed", slog.Any("error", err))
	}
}

// CurrentFor returns the current version for a (configuration, channel)
// pair. Concurrent cache misses for the same pair collapse into one
// database read.
func (s *Service) CurrentFor(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) (*Version, error) {
	key := configurationID.String() + ":" + string(channel)
	res, err, _ := s.group.Do(key, func() (any, error) {
		return s.cache.FetchCurrent(ctx, configurationID, channel, func(ctx context.Context) (*Version, error) {
			return s.repo.Current(ctx, configurationID, channel)
		})
	})
	if err != nil {
		return nil, err
	}
	return res.(*Version), nil
}

// WarmCurrent populates the cache for one pair, used by the warmup job.
func (s *Service) WarmCurrent(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) error {
	return s.cache.Warm(ctx, configurationID, channel, func(ctx context.Context) (*Version, error) {
		return s.repo.Current(ctx, configurationID, channel)
	})
}

// History lists all versions for a pair, newest first.
func (s *Service) History(ctx context.Context, configurationID uuid.UUID, channel pricing.Channel) ([]Version, error) {
	return s.repo.History(ctx, configurationID, channel)
}

// DeleteAll removes every ledger row for a configuration. Admin only, and
// refused while quotations still reference the configuration.
func (s *Service) DeleteAll(ctx context.Context, configurationID uuid.UUID, actor shared.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("delete standard costs: %w", shared.ErrForbidden)
	}
	if err := s.repo.DeleteAll(ctx, configurationID); err != nil {
		return err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("standard cost cache bump failed", slog.Any("error", err))
	}
	return nil
}

// IntegrityViolations reports pairs breaking the exactly-one-current rule.
func (s *Service) IntegrityViolations(ctx context.Context) (int, error) {
	return s.repo.CountCurrentViolations(ctx)
}
