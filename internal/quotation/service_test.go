package quotation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/shared"
	"github.com/OG0914/cost-management-sub000/internal/workflow"
)

type memoryRepo struct {
	quotations map[uuid.UUID]*Quotation
	items      map[uuid.UUID][]Item
	fees       map[uuid.UUID][]Fee
	nextItemID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		quotations: make(map[uuid.UUID]*Quotation),
		items:      make(map[uuid.UUID][]Item),
		fees:       make(map[uuid.UUID][]Fee),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Quotation, error) {
	stored, ok := r.quotations[id]
	if !ok {
		return nil, fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	q := *stored
	q.Items = append([]Item(nil), r.items[id]...)
	q.CustomFees = append([]Fee(nil), r.fees[id]...)
	return &q, nil
}

func (r *memoryRepo) List(_ context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range r.quotations {
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		if req.ConfigurationID != nil && q.ConfigurationID != *req.ConfigurationID {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Insert(_ context.Context, q *Quotation) error {
	stored := *q
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.quotations[q.ID] = &stored
	return nil
}

func (r *memoryRepo) UpdateHeader(_ context.Context, q *Quotation) error {
	stored, ok := r.quotations[q.ID]
	if !ok {
		return fmt.Errorf("quotation %s: %w", q.ID, shared.ErrNotFound)
	}
	updated := *q
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	r.quotations[q.ID] = &updated
	return nil
}

func (r *memoryRepo) ReplaceItems(_ context.Context, id uuid.UUID, items []Item, fees []Fee) error {
	r.items[id] = nil
	r.fees[id] = nil
	for _, item := range items {
		r.nextItemID++
		item.ID = r.nextItemID
		item.QuotationID = id
		r.items[id] = append(r.items[id], item)
	}
	for _, fee := range fees {
		r.nextItemID++
		fee.ID = r.nextItemID
		fee.QuotationID = id
		r.fees[id] = append(r.fees[id], fee)
	}
	return nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status workflow.Status, actorID int64, reason *string) error {
	q, ok := r.quotations[id]
	if !ok {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	now := time.Now()
	q.Status = status
	switch status {
	case workflow.StatusSubmitted:
		q.SubmittedAt = &now
		q.ReviewedBy = nil
		q.ReviewedAt = nil
		q.RejectionReason = nil
	case workflow.StatusApproved, workflow.StatusRejected:
		q.ReviewedBy = &actorID
		q.ReviewedAt = &now
		q.RejectionReason = reason
	}
	q.UpdatedAt = now
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.quotations[id]; !ok {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	delete(r.quotations, id)
	delete(r.items, id)
	delete(r.fees, id)
	return nil
}

type memoryEvents struct {
	records []shared.ReviewEvent
}

func (m *memoryEvents) Record(_ context.Context, event shared.ReviewEvent) error {
	event.ID = int64(len(m.records) + 1)
	m.records = append(m.records, event)
	return nil
}

func (m *memoryEvents) List(_ context.Context, quotationID uuid.UUID) ([]shared.ReviewEvent, error) {
	var out []shared.ReviewEvent
	for _, e := range m.records {
		if e.QuotationID == quotationID {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	owner    = shared.Actor{ID: 7, Role: shared.RoleUser}
	reviewer = shared.Actor{ID: 9, Role: shared.RoleReviewer}
	admin    = shared.Actor{ID: 1, Role: shared.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *memoryRepo, *memoryEvents) {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.Config{
		OverheadRate:       0.20,
		VATRate:            0.13,
		InsuranceRate:      0.03,
		ExchangeRate:       7.2,
		ProcessCoefficient: 1.0,
		ProfitTiers:        []float64{0.05, 0.10},
	})
	require.NoError(t, err)

	repo := newMemoryRepo()
	events := &memoryEvents{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, engine, StaticCoefficients{Coefficient: 1.1}, events, logger)
	return svc, repo, events
}

func sampleCreateRequest() CreateQuotationRequest {
	return CreateQuotationRequest{
		ConfigurationID: uuid.New(),
		CustomerName:    "Northwind",
		Quantity:        100,
		SalesChannel:    "DOMESTIC",
		Items: []ItemRequest{
			{Category: "MATERIAL", ItemName: "steel", UsageAmount: 10, UnitPrice: 5},
			{Category: "PROCESS", ItemName: "stamping", UsageAmount: 4, UnitPrice: 5},
			{Category: "PACKAGING", ItemName: "carton", UsageAmount: 1, UnitPrice: 5},
		},
	}
}

func TestCreatePersistsEnginePrices(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)

	// materials 50 * 1.1 coefficient + process 20 + packaging 5 = 80
	require.InDelta(t, 80.0, q.BaseCost, 1e-9)
	require.InDelta(t, 100.0, q.OverheadPrice, 1e-9)
	require.InDelta(t, 113.0, q.FinalPrice, 1e-9)
	require.Equal(t, "CNY", q.Currency)
	require.Equal(t, workflow.StatusDraft, q.Status)
	require.Equal(t, owner.ID, q.CreatedBy)
	require.Len(t, q.Items, 3)
}

func TestCreateRequiresIdentifiedActor(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), sampleCreateRequest(), shared.Actor{})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateRecomputesPrices(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, q.ID, UpdateQuotationRequest{
		CustomerName: "Northwind",
		Quantity:     100,
		SalesChannel: "DOMESTIC",
		Items: []ItemRequest{
			{Category: "MATERIAL", ItemName: "steel", UsageAmount: 20, UnitPrice: 5},
			{Category: "PROCESS", ItemName: "stamping", UsageAmount: 4, UnitPrice: 5},
			{Category: "PACKAGING", ItemName: "carton", UsageAmount: 1, UnitPrice: 5},
		},
	}, owner)
	require.NoError(t, err)

	// materials 100 * 1.1 + 20 + 5 = 135 base
	require.InDelta(t, 135.0, updated.BaseCost, 1e-9)
	require.InDelta(t, 168.75, updated.OverheadPrice, 1e-9)
	require.Len(t, updated.Items, 3)
}

func TestUpdateForbiddenForStrangers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)

	stranger := shared.Actor{ID: 42, Role: shared.RoleUser}
	_, err = svc.Update(ctx, q.ID, UpdateQuotationRequest{
		CustomerName: "x", Quantity: 1, SalesChannel: "DOMESTIC",
		Items: []ItemRequest{{Category: "MATERIAL", ItemName: "steel", UsageAmount: 1, UnitPrice: 1}},
	}, stranger)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateBlockedOutsideEditableStates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)

	_, err = svc.Update(ctx, q.ID, UpdateQuotationRequest{
		CustomerName: "x", Quantity: 1, SalesChannel: "DOMESTIC",
		Items: []ItemRequest{{Category: "MATERIAL", ItemName: "steel", UsageAmount: 1, UnitPrice: 1}},
	}, owner)
	var serr *shared.InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestSubmitApproveRecordsTrail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)

	q, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusSubmitted, q.Status)
	require.NotNil(t, q.SubmittedAt)

	q, err = svc.Approve(ctx, q.ID, reviewer)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusApproved, q.Status)
	require.Equal(t, reviewer.ID, *q.ReviewedBy)

	trail, err := svc.Events(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	require.Equal(t, shared.ReviewSubmitted, trail[0].Action)
	require.Equal(t, shared.ReviewApproved, trail[1].Action)
}

func TestApproveRequiresReviewer(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, q.ID, owner)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, q.ID, reviewer, "")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "reason", verr.Field)
}

func TestRejectThenResubmit(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)

	q, err = svc.Reject(ctx, q.ID, reviewer, "unit price out of range")
	require.NoError(t, err)
	require.Equal(t, workflow.StatusRejected, q.Status)
	require.Equal(t, "unit price out of range", *q.RejectionReason)

	q, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusSubmitted, q.Status)
	// Resubmission clears the previous review verdict.
	require.Nil(t, q.ReviewedBy)
	require.Nil(t, q.RejectionReason)

	last := events.records[len(events.records)-1]
	require.Equal(t, shared.ReviewResubmitted, last.Action)
}

func TestApproveFromDraftFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, q.ID, reviewer)
	var serr *shared.InvalidStateError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, string(workflow.StatusDraft), serr.Current)
}

func TestDeleteRules(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, sampleCreateRequest(), owner)
	require.NoError(t, err)

	// Owners can only delete drafts.
	_, err = svc.Submit(ctx, q.ID, owner)
	require.NoError(t, err)
	err = svc.Delete(ctx, q.ID, owner)
	var serr *shared.InvalidStateError
	require.ErrorAs(t, err, &serr)

	// Administrators delete regardless of state.
	require.NoError(t, svc.Delete(ctx, q.ID, admin))
	_, err = svc.Get(ctx, q.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEventsUnknownQuotation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Events(context.Background(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCalculateWithoutConfiguration(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Calculate(context.Background(), CalculateRequest{
		Quantity:     100,
		SalesChannel: "DOMESTIC",
		Items: []ItemRequest{
			{Category: "MATERIAL", ItemName: "steel", UsageAmount: 11, UnitPrice: 5},
			{Category: "PROCESS", ItemName: "stamping", UsageAmount: 4, UnitPrice: 5},
			{Category: "PACKAGING", ItemName: "carton", UsageAmount: 1, UnitPrice: 5},
		},
	})
	require.NoError(t, err)
	// No configuration means coefficient 1: 55 + 20 + 5 = 80.
	require.InDelta(t, 80.0, result.BaseCost, 1e-9)
	require.InDelta(t, 113.0, result.FinalPrice, 1e-9)
}
