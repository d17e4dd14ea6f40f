package quotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OG0914/cost-management-sub000/internal/shared"
)

func TestComputeTotalsPartitionsCategories(t *testing.T) {
	items := []Item{
		{Category: CategoryMaterial, ItemName: "steel", UsageAmount: 2, UnitPrice: 10},
		{Category: CategoryMaterial, ItemName: "paint", UsageAmount: 1, UnitPrice: 4, AfterOverhead: true},
		{Category: CategoryProcess, ItemName: "stamping", UsageAmount: 3, UnitPrice: 5},
		{Category: CategoryPackaging, ItemName: "carton", UsageAmount: 1, UnitPrice: 2},
	}

	totals, err := ComputeTotals(items, 1.0)
	require.NoError(t, err)
	require.InDelta(t, 20.0, totals.Material, 1e-9)
	require.InDelta(t, 4.0, totals.AfterOverheadMaterial, 1e-9)
	require.InDelta(t, 15.0, totals.Process, 1e-9)
	require.InDelta(t, 2.0, totals.Packaging, 1e-9)
}

func TestComputeTotalsMaterialCoefficient(t *testing.T) {
	items := []Item{
		{Category: CategoryMaterial, ItemName: "steel", UsageAmount: 2, UnitPrice: 10},
		{Category: CategoryProcess, ItemName: "stamping", UsageAmount: 1, UnitPrice: 5},
	}

	totals, err := ComputeTotals(items, 1.1)
	require.NoError(t, err)
	// The coefficient scales materials only.
	require.InDelta(t, 22.0, totals.Material, 1e-9)
	require.InDelta(t, 5.0, totals.Process, 1e-9)
}

func TestComputeTotalsRespectsAppliedSubtotal(t *testing.T) {
	items := []Item{
		{Category: CategoryMaterial, ItemName: "steel", UsageAmount: 2, UnitPrice: 10, Subtotal: 23.5, CoefficientApplied: true},
	}

	totals, err := ComputeTotals(items, 1.1)
	require.NoError(t, err)
	// The stored subtotal already carries the coefficient and must not be
	// rescaled from usage and unit price.
	require.InDelta(t, 23.5, totals.Material, 1e-9)
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	_, err := ComputeTotals(nil, 1.0)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "items", verr.Field)
}

func TestComputeTotalsRejectsNegativeInputs(t *testing.T) {
	cases := []struct {
		name  string
		items []Item
	}{
		{"negative usage", []Item{{Category: CategoryMaterial, ItemName: "x", UsageAmount: -1, UnitPrice: 1}}},
		{"negative price", []Item{{Category: CategoryProcess, ItemName: "x", UsageAmount: 1, UnitPrice: -1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTotals(tc.items, 1.0)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestComputeTotalsUnknownCategory(t *testing.T) {
	_, err := ComputeTotals([]Item{{Category: "LABOR", ItemName: "x", UsageAmount: 1, UnitPrice: 1}}, 1.0)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "category", verr.Field)
}
