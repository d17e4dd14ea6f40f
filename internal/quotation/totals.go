package quotation

import (
	"context"

	"github.com/google/uuid"

	"github.com/OG0914/cost-management-sub000/internal/shared"
)

// CoefficientSource resolves the material coefficient for a product
// configuration. Master data lives outside this service; callers inject an
// implementation backed by whatever catalog they keep.
type CoefficientSource interface {
	MaterialCoefficient(ctx context.Context, configurationID uuid.UUID) (float64, error)
}

// StaticCoefficients serves a single coefficient for every configuration.
type StaticCoefficients struct {
	Coefficient float64
}

// MaterialCoefficient returns the fixed coefficient, defaulting to 1.
func (s StaticCoefficients) MaterialCoefficient(context.Context, uuid.UUID) (float64, error) {
	if s.Coefficient <= 0 {
		return 1, nil
	}
	return s.Coefficient, nil
}

// Totals are the four component sums the pricing engine consumes.
type Totals struct {
	Material              float64
	AfterOverheadMaterial float64
	Process               float64
	Packaging             float64
}

// ComputeTotals derives the engine inputs from a raw item list.
//
// Material lines with CoefficientApplied keep their stored subtotal;
// otherwise the subtotal is recomputed as usage * unit price * coefficient.
// Materials split by the AfterOverhead flag. Process and packaging lines are
// always usage * unit price, no coefficient.
func ComputeTotals(items []Item, materialCoefficient float64) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, &shared.ValidationError{Field: "items", Reason: "at least one item required"}
	}
	if materialCoefficient <= 0 {
		materialCoefficient = 1
	}
	var totals Totals
	for _, item := range items {
		if item.UsageAmount < 0 {
			return Totals{}, &shared.ValidationError{Field: "usage_amount", Reason: "must not be negative"}
		}
		if item.UnitPrice < 0 {
			return Totals{}, &shared.ValidationError{Field: "unit_price", Reason: "must not be negative"}
		}
		switch item.Category {
		case CategoryMaterial:
			subtotal := item.Subtotal
			if !item.CoefficientApplied {
				subtotal = item.UsageAmount * item.UnitPrice * materialCoefficient
			}
			if item.AfterOverhead {
				totals.AfterOverheadMaterial += subtotal
			} else {
				totals.Material += subtotal
			}
		case CategoryProcess:
			totals.Process += item.UsageAmount * item.UnitPrice
		case CategoryPackaging:
			totals.Packaging += item.UsageAmount * item.UnitPrice
		default:
			return Totals{}, &shared.ValidationError{Field: "category", Reason: "unknown category " + string(item.Category)}
		}
	}
	return totals, nil
}
