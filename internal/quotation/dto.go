package quotation

import (
	"github.com/google/uuid"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/workflow"
)

type ItemRequest struct {
	Category           string  `json:"category" validate:"required,oneof=MATERIAL PROCESS PACKAGING"`
	ItemName           string  `json:"item_name" validate:"required,max=120"`
	UsageAmount        float64 `json:"usage_amount" validate:"gte=0"`
	UnitPrice          float64 `json:"unit_price" validate:"gte=0"`
	Subtotal           float64 `json:"subtotal" validate:"gte=0"`
	AfterOverhead      bool    `json:"after_overhead"`
	CoefficientApplied bool    `json:"coefficient_applied"`
}

type FeeRequest struct {
	FeeName   string  `json:"fee_name" validate:"required,max=60"`
	FeeRate   float64 `json:"fee_rate" validate:"gte=0,lte=1"`
	SortOrder int     `json:"sort_order" validate:"gte=0"`
}

type CustomTierRequest struct {
	Name  string  `json:"name" validate:"required,max=60"`
	Rate  float64 `json:"rate" validate:"gte=0"`
	Price float64 `json:"price" validate:"gte=0"`
}

type CreateQuotationRequest struct {
	ConfigurationID      uuid.UUID           `json:"configuration_id" validate:"required"`
	CustomerName         string              `json:"customer_name" validate:"required,max=120"`
	Regulation           *string             `json:"regulation,omitempty"`
	Quantity             float64             `json:"quantity" validate:"required,gt=0"`
	FreightTotal         float64             `json:"freight_total" validate:"gte=0"`
	SalesChannel         string              `json:"sales_channel" validate:"required,oneof=DOMESTIC EXPORT"`
	IncludeFreightInBase bool                `json:"include_freight_in_base"`
	VATRate              *float64            `json:"vat_rate,omitempty" validate:"omitempty,gte=0,lt=1"`
	CustomProfitTiers    []CustomTierRequest `json:"custom_profit_tiers,omitempty" validate:"omitempty,dive"`
	Items                []ItemRequest       `json:"items" validate:"required,min=1,dive"`
	CustomFees           []FeeRequest        `json:"custom_fees,omitempty" validate:"omitempty,dive"`
}

// UpdateQuotationRequest performs a full replace of the mutable surface:
// settings, items and fees are written together or not at all.
type UpdateQuotationRequest struct {
	CustomerName         string              `json:"customer_name" validate:"required,max=120"`
	Regulation           *string             `json:"regulation,omitempty"`
	Quantity             float64             `json:"quantity" validate:"required,gt=0"`
	FreightTotal         float64             `json:"freight_total" validate:"gte=0"`
	SalesChannel         string              `json:"sales_channel" validate:"required,oneof=DOMESTIC EXPORT"`
	IncludeFreightInBase bool                `json:"include_freight_in_base"`
	VATRate              *float64            `json:"vat_rate,omitempty" validate:"omitempty,gte=0,lt=1"`
	CustomProfitTiers    []CustomTierRequest `json:"custom_profit_tiers,omitempty" validate:"omitempty,dive"`
	Items                []ItemRequest       `json:"items" validate:"required,min=1,dive"`
	CustomFees           []FeeRequest        `json:"custom_fees,omitempty" validate:"omitempty,dive"`
}

// CalculateRequest feeds the stateless preview: nothing is persisted.
type CalculateRequest struct {
	ConfigurationID      *uuid.UUID          `json:"configuration_id,omitempty"`
	Quantity             float64             `json:"quantity" validate:"required,gt=0"`
	FreightTotal         float64             `json:"freight_total" validate:"gte=0"`
	SalesChannel         string              `json:"sales_channel" validate:"required,oneof=DOMESTIC EXPORT"`
	IncludeFreightInBase bool                `json:"include_freight_in_base"`
	VATRate              *float64            `json:"vat_rate,omitempty" validate:"omitempty,gte=0,lt=1"`
	CustomProfitTiers    []CustomTierRequest `json:"custom_profit_tiers,omitempty" validate:"omitempty,dive"`
	Items                []ItemRequest       `json:"items" validate:"required,min=1,dive"`
	CustomFees           []FeeRequest        `json:"custom_fees,omitempty" validate:"omitempty,dive"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ListQuotationsRequest struct {
	Status          *workflow.Status `json:"status,omitempty"`
	ConfigurationID *uuid.UUID       `json:"configuration_id,omitempty"`
	Limit           int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset          int              `json:"offset" validate:"gte=0"`
}

func (r ItemRequest) toItem() Item {
	return Item{
		Category:           Category(r.Category),
		ItemName:           r.ItemName,
		UsageAmount:        r.UsageAmount,
		UnitPrice:          r.UnitPrice,
		Subtotal:           r.Subtotal,
		AfterOverhead:      r.AfterOverhead,
		CoefficientApplied: r.CoefficientApplied,
	}
}

func toItems(reqs []ItemRequest) []Item {
	items := make([]Item, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, r.toItem())
	}
	return items
}

func toFees(reqs []FeeRequest) []Fee {
	fees := make([]Fee, 0, len(reqs))
	for i, r := range reqs {
		fee := Fee{FeeName: r.FeeName, FeeRate: r.FeeRate, SortOrder: r.SortOrder}
		if fee.SortOrder == 0 {
			fee.SortOrder = i + 1
		}
		fees = append(fees, fee)
	}
	return fees
}

func toCustomTiers(reqs []CustomTierRequest) []pricing.ProfitTier {
	if len(reqs) == 0 {
		return nil
	}
	tiers := make([]pricing.ProfitTier, 0, len(reqs))
	for _, r := range reqs {
		tiers = append(tiers, pricing.ProfitTier{Name: r.Name, Rate: r.Rate, Price: r.Price})
	}
	return tiers
}

func toEngineFees(fees []Fee) []pricing.CustomFee {
	if len(fees) == 0 {
		return nil
	}
	out := make([]pricing.CustomFee, 0, len(fees))
	for _, f := range fees {
		out = append(out, pricing.CustomFee{Name: f.FeeName, Rate: f.FeeRate})
	}
	return out
}
