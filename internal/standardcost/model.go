// Package standardcost maintains the versioned standard-cost baseline per
// product configuration and sales channel. History is append-only: versions
// are never mutated, and exactly one version per (configuration, channel)
// pair is current at any time.
package standardcost

import (
	"time"

	"github.com/google/uuid"

	"github.com/OG0914/cost-management-sub000/internal/pricing"
)

// Version is one immutable standard-cost snapshot.
type Version struct {
	ID                int64           `json:"id"`
	ConfigurationID   uuid.UUID       `json:"configuration_id"`
	SalesChannel      pricing.Channel `json:"sales_channel"`
	Version           int             `json:"version"`
	IsCurrent         bool            `json:"is_current"`
	BaseCost          float64         `json:"base_cost"`
	OverheadPrice     float64         `json:"overhead_price"`
	DomesticPrice     *float64        `json:"domestic_price,omitempty"`
	ExportPrice       *float64        `json:"export_price,omitempty"`
	Quantity          float64         `json:"quantity"`
	SourceQuotationID uuid.UUID       `json:"source_quotation_id"`
	SetBy             int64           `json:"set_by"`
	CreatedAt         time.Time       `json:"created_at"`
}
