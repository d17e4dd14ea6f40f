package quotation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/shared"
	"github.com/OG0914/cost-management-sub000/internal/workflow"
)

// EventRecorder appends and reads the review audit trail. Append failures are
// logged and swallowed; they never roll back a state change.
type EventRecorder interface {
	Record(ctx context.Context, event shared.ReviewEvent) error
	List(ctx context.Context, quotationID uuid.UUID) ([]shared.ReviewEvent, error)
}

// Service orchestrates quotation persistence, pricing and workflow.
type Service struct {
	repo   Repository
	engine *pricing.Engine
	coeffs CoefficientSource
	events EventRecorder
	logger *slog.Logger
}

// NewService wires the quotation service.
func NewService(repo Repository, engine *pricing.Engine, coeffs CoefficientSource, events EventRecorder, logger *slog.Logger) *Service {
	if coeffs == nil {
		coeffs = StaticCoefficients{}
	}
	return &Service{repo: repo, engine: engine, coeffs: coeffs, events: events, logger: logger}
}

// Calculate prices an item set without persisting anything. Used for live
// preview by the caller's UI layer.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (pricing.Result, error) {
	items := toItems(req.Items)
	fees := toFees(req.CustomFees)

	coefficient := 1.0
	if req.ConfigurationID != nil {
		c, err := s.coeffs.MaterialCoefficient(ctx, *req.ConfigurationID)
		if err != nil {
			return pricing.Result{}, fmt.Errorf("lookup material coefficient: %w", err)
		}
		coefficient = c
	}

	return s.price(items, fees, settings{
		quantity:             req.Quantity,
		freightTotal:         req.FreightTotal,
		channel:              pricing.Channel(req.SalesChannel),
		includeFreightInBase: req.IncludeFreightInBase,
		vatRate:              req.VATRate,
		customTiers:          toCustomTiers(req.CustomProfitTiers),
	}, coefficient)
}

type settings struct {
	quantity             float64
	freightTotal         float64
	channel              pricing.Channel
	includeFreightInBase bool
	vatRate              *float64
	customTiers          []pricing.ProfitTier
}

func (s *Service) price(items []Item, fees []Fee, set settings, coefficient float64) (pricing.Result, error) {
	totals, err := ComputeTotals(items, coefficient)
	if err != nil {
		return pricing.Result{}, err
	}
	return s.engine.Calculate(pricing.Input{
		MaterialTotal:              totals.Material,
		AfterOverheadMaterialTotal: totals.AfterOverheadMaterial,
		ProcessTotal:               totals.Process,
		PackagingTotal:             totals.Packaging,
		FreightTotal:               set.freightTotal,
		Quantity:                   set.quantity,
		Channel:                    set.channel,
		IncludeFreightInBase:       set.includeFreightInBase,
		VATRate:                    set.vatRate,
		CustomFees:                 toEngineFees(fees),
		CustomTiers:                set.customTiers,
	})
}

// Create persists a new draft quotation together with its items and fees in
// one transaction. The stored prices are the engine output for exactly the
// persisted item set.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, actor shared.Actor) (*Quotation, error) {
	if actor.ID == 0 {
		return nil, shared.ErrForbidden
	}
	items := toItems(req.Items)
	fees := toFees(req.CustomFees)

	coefficient, err := s.coeffs.MaterialCoefficient(ctx, req.ConfigurationID)
	if err != nil {
		return nil, fmt.Errorf("lookup material coefficient: %w", err)
	}
	result, err := s.price(items, fees, settings{
		quantity:             req.Quantity,
		freightTotal:         req.FreightTotal,
		channel:              pricing.Channel(req.SalesChannel),
		includeFreightInBase: req.IncludeFreightInBase,
		vatRate:              req.VATRate,
		customTiers:          toCustomTiers(req.CustomProfitTiers),
	}, coefficient)
	if err != nil {
		return nil, err
	}

	q := &Quotation{
		ID:                   uuid.New(),
		ConfigurationID:      req.ConfigurationID,
		CustomerName:         req.CustomerName,
		Regulation:           req.Regulation,
		Quantity:             req.Quantity,
		FreightTotal:         req.FreightTotal,
		SalesChannel:         pricing.Channel(req.SalesChannel),
		IncludeFreightInBase: req.IncludeFreightInBase,
		VATRate:              req.VATRate,
		CustomProfitTiers:    toCustomTiers(req.CustomProfitTiers),
		Status:               workflow.StatusDraft,
		BaseCost:             result.BaseCost,
		OverheadPrice:        result.OverheadPrice,
		FinalPrice:           result.FinalPrice,
		Currency:             result.Currency,
		CreatedBy:            actor.ID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Insert(ctx, q); err != nil {
			return fmt.Errorf("insert quotation: %w", err)
		}
		if err := repo.ReplaceItems(ctx, q.ID, items, fees); err != nil {
			return fmt.Errorf("insert quotation items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, q.ID)
}

// Update performs a full replace of settings, items and fees. Only permitted
// in draft or rejected state, by the owner or an administrator.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateQuotationRequest, actor shared.Actor) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(existing.CreatedBy) && !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if err := workflow.EnsureEditable(existing.Status); err != nil {
		return nil, err
	}

	items := toItems(req.Items)
	fees := toFees(req.CustomFees)

	coefficient, err := s.coeffs.MaterialCoefficient(ctx, existing.ConfigurationID)
	if err != nil {
		return nil, fmt.Errorf("lookup material coefficient: %w", err)
	}
	result, err := s.price(items, fees, settings{
		quantity:             req.Quantity,
		freightTotal:         req.FreightTotal,
		channel:              pricing.Channel(req.SalesChannel),
		includeFreightInBase: req.IncludeFreightInBase,
		vatRate:              req.VATRate,
		customTiers:          toCustomTiers(req.CustomProfitTiers),
	}, coefficient)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.CustomerName = req.CustomerName
	updated.Regulation = req.Regulation
	updated.Quantity = req.Quantity
	updated.FreightTotal = req.FreightTotal
	updated.SalesChannel = pricing.Channel(req.SalesChannel)
	updated.IncludeFreightInBase = req.IncludeFreightInBase
	updated.VATRate = req.VATRate
	updated.CustomProfitTiers = toCustomTiers(req.CustomProfitTiers)
	updated.BaseCost = result.BaseCost
	updated.OverheadPrice = result.OverheadPrice
	updated.FinalPrice = result.FinalPrice
	updated.Currency = result.Currency

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, &updated); err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}
		if err := repo.ReplaceItems(ctx, id, items, fees); err != nil {
			return fmt.Errorf("replace quotation items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Submit moves a draft into review.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, actor shared.Actor) (*Quotation, error) {
	return s.transition(ctx, id, workflow.ActionSubmit, actor, "")
}

// Approve accepts a submitted quotation.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor shared.Actor) (*Quotation, error) {
	return s.transition(ctx, id, workflow.ActionApprove, actor, "")
}

// Reject returns a submitted quotation to its owner with a reason.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor shared.Actor, reason string) (*Quotation, error) {
	return s.transition(ctx, id, workflow.ActionReject, actor, reason)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, action workflow.Action, actor shared.Actor, reason string) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.Guard(action, actor, existing.CreatedBy, reason); err != nil {
		return nil, err
	}
	next, err := workflow.Next(existing.Status, action)
	if err != nil {
		return nil, err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	if err := s.repo.UpdateStatus(ctx, id, next, actor.ID, reasonPtr); err != nil {
		return nil, fmt.Errorf("%s quotation: %w", action, err)
	}

	// Audit append is fire-and-forget: the state change stands regardless.
	if s.events != nil {
		event := shared.ReviewEvent{
			QuotationID: id,
			Action:      workflow.EventAction(existing.Status, action),
			OperatorID:  actor.ID,
			Comment:     reason,
		}
		if err := s.events.Record(ctx, event); err != nil {
			s.logger.Warn("review event append failed",
				slog.String("quotation_id", id.String()),
				slog.String("action", string(action)),
				slog.Any("error", err))
		}
	}

	return s.repo.Get(ctx, id)
}

// Delete removes a quotation with its items and fees. Owners may delete their
// own drafts; administrators may delete unconditionally.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor shared.Actor) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		if !actor.Owns(existing.CreatedBy) {
			return shared.ErrForbidden
		}
		if existing.Status != workflow.StatusDraft {
			return &shared.InvalidStateError{Current: string(existing.Status), Action: "delete"}
		}
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
}

// Get loads one quotation with items and fees.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

// List returns quotation headers matching the filter plus the total count.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	return s.repo.List(ctx, req)
}

// Events returns the review trail for a quotation, oldest first.
func (s *Service) Events(ctx context.Context, id uuid.UUID) ([]shared.ReviewEvent, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.events == nil {
		return nil, nil
	}
	return s.events.List(ctx, id)
}
