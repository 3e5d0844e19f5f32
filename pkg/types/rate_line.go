package types

import "github.com/shopspring/decimal"

// RateMetadata is the per-rate reconciliation data carried back to the
// host checkout.
type RateMetadata struct {
	PriceID string `json:"priceID"`
}

// RateLine is the host-consumable representation of a quote, added to
// the checkout's available shipping choices.
type RateLine struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Cost           decimal.Decimal `json:"cost"`
	TaxCalculation string          `json:"tax_calculation"`
	Metadata       RateMetadata    `json:"meta_data"`
}
