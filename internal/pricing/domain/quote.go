package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Breakdown entry type discriminators, in the order the engine emits them.
const (
	EntryBaseService          = "base_service"
	EntryBundleDiscount       = "bundle_discount"
	EntrySeasonalModifier     = "seasonal_modifier"
	EntryTravelFee            = "travel_fee"
	EntryRushFee              = "rush_fee"
	EntryAdditionalService    = "additional_service"
	EntryCustomerTierDiscount = "customer_tier_discount"
	EntryTax                  = "tax"
	EntryMinimumAdjustment    = "minimum_adjustment"
)

// SurfaceMeasurement is one customer-supplied surface in a quote request.
type SurfaceMeasurement struct {
	Area       decimal.Decimal `json:"area"`
	Difficulty string          `json:"difficulty,omitempty"`
	Condition  string          `json:"condition,omitempty"`
}

// QuoteRequest is the pricing engine's input: what the customer asked for.
type QuoteRequest struct {
	ServiceTypes       []string                      `json:"service_types"`
	Surfaces           map[string]SurfaceMeasurement `json:"surfaces"`
	AdditionalServices []string                      `json:"additional_services,omitempty"`
	DistanceMiles      *decimal.Decimal              `json:"distance_miles,omitempty"`
	PreferredDate      *time.Time                    `json:"preferred_date,omitempty"`
	CustomerTier       string                        `json:"customer_tier,omitempty"`
	RushJob            bool                          `json:"rush_job"`
}

// BreakdownEntry is one append-only line item in the quote's audit breakdown.
// Amount is the rounded display value; Details carries entry-specific fields
// (rate, area, original/adjusted amounts, ...) as plain values so the entry
// serializes to the dictionary shape the API contract requires.
type BreakdownEntry struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	Details     map[string]any `json:"details,omitempty"`
}

// Quote is the fully itemized result of a pricing engine run. All monetary
// fields are fixed-point decimals; conversion to floats happens only at the
// serialization boundary.
type Quote struct {
	BaseTotal               decimal.Decimal
	BundleDiscount          decimal.Decimal // stored negative
	SeasonalModifier        decimal.Decimal
	TravelFee               decimal.Decimal
	RushFee                 decimal.Decimal
	AdditionalServicesTotal decimal.Decimal
	Subtotal                decimal.Decimal
	TaxRate                 decimal.Decimal
	TaxAmount               decimal.Decimal
	Total                   decimal.Decimal
	Currency                string
	Breakdown               []BreakdownEntry
	AppliedRules            []string
	Warnings                []string
	ValidUntil              time.Time
}

// AddWarning appends a non-fatal gap message to the audit trail.
func (q *Quote) AddWarning(msg string) {
	q.Warnings = append(q.Warnings, msg)
}

// AddEntry appends a breakdown line item.
func (q *Quote) AddEntry(e BreakdownEntry) {
	q.Breakdown = append(q.Breakdown, e)
}
