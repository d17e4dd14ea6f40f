// Package pricing turns raw cost component totals into domestic and export
// prices and profit-tier quotes. The engine is pure: identical inputs always
// yield identical outputs, so results can be re-derived at read time without
// re-reading raw items.
package pricing

import (
	"math"
	"sort"

	"github.com/OG0914/cost-management-sub000/internal/shared"
)

// Channel selects the pricing path. Domestic applies VAT, export converts
// through the exchange rate and adds insurance.
type Channel string

const (
	ChannelDomestic Channel = "DOMESTIC"
	ChannelExport   Channel = "EXPORT"
)

// Valid reports whether the channel is one of the two known paths.
func (c Channel) Valid() bool {
	return c == ChannelDomestic || c == ChannelExport
}

// CustomFee is a named percentage fee applied after overhead, e.g. duty or a
// service charge. Fees are summed over the pre-fee price, never compounded
// with each other.
type CustomFee struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// ProfitTier is one suggested selling price at a target margin. Custom tiers
// supplied by the caller are carried through unchanged.
type ProfitTier struct {
	Name   string  `json:"name,omitempty"`
	Rate   float64 `json:"rate"`
	Price  float64 `json:"price"`
	Custom bool    `json:"custom,omitempty"`
}

// Config holds the engine settings, fixed once at construction.
type Config struct {
	OverheadRate       float64
	VATRate            float64
	InsuranceRate      float64
	ExchangeRate       float64
	ProcessCoefficient float64
	ProfitTiers        []float64
	DomesticCurrency   string
	ExportCurrency     string
}

// Input carries the component totals for one calculation.
type Input struct {
	MaterialTotal              float64
	AfterOverheadMaterialTotal float64
	ProcessTotal               float64
	PackagingTotal             float64
	FreightTotal               float64
	Quantity                   float64
	Channel                    Channel
	IncludeFreightInBase       bool
	VATRate                    *float64
	CustomFees                 []CustomFee
	CustomTiers                []ProfitTier
}

// Result is the full calculation output. ExportPrice and InsurancePrice are
// zero on the domestic channel.
type Result struct {
	BaseCost       float64      `json:"base_cost"`
	OverheadPrice  float64      `json:"overhead_price"`
	ExportPrice    float64      `json:"export_price,omitempty"`
	InsurancePrice float64      `json:"insurance_price,omitempty"`
	FinalPrice     float64      `json:"final_price"`
	Currency       string       `json:"currency"`
	ProfitTiers    []ProfitTier `json:"profit_tiers"`
}

// Engine computes prices from cost components. Stateless and safe for
// concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.OverheadRate >= 1 {
		return nil, &shared.ConfigurationError{Setting: "overhead rate", Reason: "must be below 1"}
	}
	if cfg.OverheadRate < 0 {
		return nil, &shared.ConfigurationError{Setting: "overhead rate", Reason: "must not be negative"}
	}
	if cfg.ExchangeRate <= 0 {
		return nil, &shared.ConfigurationError{Setting: "exchange rate", Reason: "must be positive"}
	}
	if cfg.ProcessCoefficient <= 0 {
		return nil, &shared.ConfigurationError{Setting: "process coefficient", Reason: "must be positive"}
	}
	if cfg.DomesticCurrency == "" {
		cfg.DomesticCurrency = "CNY"
	}
	if cfg.ExportCurrency == "" {
		cfg.ExportCurrency = "USD"
	}
	return &Engine{cfg: cfg}, nil
}

// round4 rounds to 4 decimal places, half up. Every persisted
// price in the system goes through this exact rounding.
func round4(v float64) float64 {
	return math.Floor(v*1e4+0.5) / 1e4
}

// Calculate runs the full pricing algorithm.
//
// Export after-overhead materials intentionally mirror the domestic shape:
// they are added after the exchange-rate division, unconverted. Historical
// quotation totals depend on this, so it must not be "fixed".
func (e *Engine) Calculate(in Input) (Result, error) {
	if in.Quantity <= 0 {
		return Result{}, &shared.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !in.Channel.Valid() {
		return Result{}, &shared.ValidationError{Field: "sales_channel", Reason: "must be DOMESTIC or EXPORT"}
	}

	vatRate := e.cfg.VATRate
	if in.VATRate != nil {
		vatRate = *in.VATRate
	}

	freightPerUnit := in.FreightTotal / in.Quantity
	adjustedProcessTotal := in.ProcessTotal * e.cfg.ProcessCoefficient

	baseCost := in.MaterialTotal + adjustedProcessTotal + in.PackagingTotal
	if in.IncludeFreightInBase {
		baseCost += freightPerUnit
	}
	baseCost = round4(baseCost)
	if baseCost < 0 {
		return Result{}, &shared.CalculationError{Step: "base cost", Value: baseCost}
	}

	overheadPrice := round4(baseCost / (1 - e.cfg.OverheadRate))
	if overheadPrice < 0 {
		return Result{}, &shared.CalculationError{Step: "overhead price", Value: overheadPrice}
	}

	preChannel := overheadPrice
	if !in.IncludeFreightInBase {
		preChannel += freightPerUnit
	}

	result := Result{
		BaseCost:      baseCost,
		OverheadPrice: overheadPrice,
	}

	switch in.Channel {
	case ChannelDomestic:
		price := preChannel*(1+vatRate) + in.AfterOverheadMaterialTotal
		result.FinalPrice = round4(applyFees(price, in.CustomFees))
		result.Currency = e.cfg.DomesticCurrency
	case ChannelExport:
		exportPrice := round4(preChannel/e.cfg.ExchangeRate + in.AfterOverheadMaterialTotal)
		if exportPrice < 0 {
			return Result{}, &shared.CalculationError{Step: "export price", Value: exportPrice}
		}
		insurancePrice := round4(exportPrice * (1 + e.cfg.InsuranceRate))
		result.ExportPrice = exportPrice
		result.InsurancePrice = insurancePrice
		result.FinalPrice = round4(applyFees(insurancePrice, in.CustomFees))
		result.Currency = e.cfg.ExportCurrency
	}
	if result.FinalPrice < 0 {
		return Result{}, &shared.CalculationError{Step: "final price", Value: result.FinalPrice}
	}

	result.ProfitTiers = e.profitTiers(result.FinalPrice, in.CustomTiers)
	for _, tier := range result.ProfitTiers {
		if tier.Price < 0 {
			return Result{}, &shared.CalculationError{Step: "profit tier price", Value: tier.Price}
		}
	}
	return result, nil
}

// applyFees adds each fee as a percentage of the pre-fee price. Fees are not
// compounded with each other.
func applyFees(price float64, fees []CustomFee) float64 {
	total := price
	for _, fee := range fees {
		total += price * fee.Rate
	}
	return total
}

// profitTiers emits one system tier per configured rate and merges the
// caller's custom tiers unchanged, sorted by rate ascending.
func (e *Engine) profitTiers(finalPrice float64, custom []ProfitTier) []ProfitTier {
	tiers := make([]ProfitTier, 0, len(e.cfg.ProfitTiers)+len(custom))
	for _, rate := range e.cfg.ProfitTiers {
		tiers = append(tiers, ProfitTier{
			Rate:  rate,
			Price: round4(finalPrice * (1 + rate)),
		})
	}
	for _, tier := range custom {
		tier.Custom = true
		tiers = append(tiers, tier)
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Rate < tiers[j].Rate })
	return tiers
}
