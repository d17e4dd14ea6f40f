package quotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/workflow"
)

// Category partitions line items for the cost calculation.
type Category string

const (
	CategoryMaterial  Category = "MATERIAL"
	CategoryProcess   Category = "PROCESS"
	CategoryPackaging Category = "PACKAGING"
)

// Valid reports whether the category is one of the three known kinds.
func (c Category) Valid() bool {
	return c == CategoryMaterial || c == CategoryProcess || c == CategoryPackaging
}

// Item is one priced line owned by exactly one quotation. Immutable outside
// draft/rejected except via a full item-set replace.
type Item struct {
	ID          int64     `json:"id"`
	QuotationID uuid.UUID `json:"quotation_id"`
	Category    Category  `json:"category"`
	ItemName    string    `json:"item_name"`
	UsageAmount float64   `json:"usage_amount"`
	UnitPrice   float64   `json:"unit_price"`
	Subtotal    float64   `json:"subtotal"`
	// AfterOverhead marks material cost applied after the overhead markup
	// rather than before it.
	AfterOverhead bool `json:"after_overhead"`
	// CoefficientApplied marks a material subtotal already scaled by the
	// category coefficient; its stored subtotal must not be rescaled.
	CoefficientApplied bool `json:"coefficient_applied"`
}

// Fee is a named percentage fee applied after overhead. Order matters for
// display only; fees are summed, so calculation is order-independent.
type Fee struct {
	ID          int64     `json:"id"`
	QuotationID uuid.UUID `json:"quotation_id"`
	FeeName     string    `json:"fee_name"`
	FeeRate     float64   `json:"fee_rate"`
	SortOrder   int       `json:"sort_order"`
}

// Quotation is the aggregate root. The persisted prices always equal the
// engine output for the persisted item set and settings.
type Quotation struct {
	ID                   uuid.UUID            `json:"id"`
	ConfigurationID      uuid.UUID            `json:"configuration_id"`
	CustomerName         string               `json:"customer_name"`
	Regulation           *string              `json:"regulation,omitempty"`
	Quantity             float64              `json:"quantity"`
	FreightTotal         float64              `json:"freight_total"`
	SalesChannel         pricing.Channel      `json:"sales_channel"`
	IncludeFreightInBase bool                 `json:"include_freight_in_base"`
	VATRate              *float64             `json:"vat_rate,omitempty"`
	CustomProfitTiers    []pricing.ProfitTier `json:"custom_profit_tiers,omitempty"`
	Status               workflow.Status      `json:"status"`
	BaseCost             float64              `json:"base_cost"`
	OverheadPrice        float64              `json:"overhead_price"`
	FinalPrice           float64              `json:"final_price"`
	Currency             string               `json:"currency"`
	CreatedBy            int64                `json:"created_by"`
	ReviewedBy           *int64               `json:"reviewed_by,omitempty"`
	RejectionReason      *string              `json:"rejection_reason,omitempty"`
	SubmittedAt          *time.Time           `json:"submitted_at,omitempty"`
	ReviewedAt           *time.Time           `json:"reviewed_at,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Items                []Item               `json:"items,omitempty"`
	CustomFees           []Fee                `json:"custom_fees,omitempty"`
}
