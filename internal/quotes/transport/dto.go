// Package transport defines HTTP request and response shapes for quotes.
// Monetary fields cross the boundary as floats converted from the stored
// fixed-point decimals; datetimes serialize as ISO-8601 strings or null.
package transport

import (
	"time"

	pricingdomain "washpricing_backend/internal/pricing/domain"
	"washpricing_backend/internal/quotes/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SurfaceInput is one customer-supplied surface measurement.
type SurfaceInput struct {
	Area       float64 `json:"area" validate:"gt=0"`
	Difficulty string  `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Condition  string  `json:"condition,omitempty" validate:"omitempty,oneof=good fair poor"`
}

// CreateQuoteRequest creates a draft quote priced by the engine.
type CreateQuoteRequest struct {
	CustomerEmail   string `json:"customer_email" validate:"required,email"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`

	ServiceTypes       []string                `json:"service_types" validate:"required,min=1,dive,min=1"`
	Surfaces           map[string]SurfaceInput `json:"surfaces" validate:"required,min=1,dive"`
	AdditionalServices []string                `json:"additional_services,omitempty"`
	DistanceMiles      *float64                `json:"distance_miles,omitempty" validate:"omitempty,gte=0"`
	PreferredDate      *time.Time              `json:"preferred_date,omitempty"`
	CustomerTier       string                  `json:"customer_tier,omitempty"`
	RushJob            bool                    `json:"rush_job"`

	LeadID        *uuid.UUID `json:"lead_id,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CustomerNotes string     `json:"customer_notes,omitempty"`
}

// EngineRequest converts the API shape into the pricing engine's input.
func (r CreateQuoteRequest) EngineRequest() pricingdomain.QuoteRequest {
	surfaces := make(map[string]pricingdomain.SurfaceMeasurement, len(r.Surfaces))
	for name, s := range r.Surfaces {
		surfaces[name] = pricingdomain.SurfaceMeasurement{
			Area:       decimal.NewFromFloat(s.Area),
			Difficulty: s.Difficulty,
			Condition:  s.Condition,
		}
	}

	req := pricingdomain.QuoteRequest{
		ServiceTypes:       r.ServiceTypes,
		Surfaces:           surfaces,
		AdditionalServices: r.AdditionalServices,
		PreferredDate:      r.PreferredDate,
		CustomerTier:       r.CustomerTier,
		RushJob:            r.RushJob,
	}
	if r.DistanceMiles != nil {
		d := decimal.NewFromFloat(*r.DistanceMiles)
		req.DistanceMiles = &d
	}
	return req
}

// UpdateQuoteRequest mutates a quote: a status transition, note edits, or a
// pricing recompute against the stored request snapshot.
type UpdateQuoteRequest struct {
	Status           *string `json:"status,omitempty" validate:"omitempty,oneof=draft sent accepted declined expired"`
	Notes            *string `json:"notes,omitempty"`
	CustomerNotes    *string `json:"customer_notes,omitempty"`
	RecomputePricing bool    `json:"recompute_pricing,omitempty"`
}

// ListQuotesRequest filters the quote list.
type ListQuotesRequest struct {
	Status   *string    `form:"status" validate:"omitempty,oneof=draft sent accepted declined expired"`
	LeadID   *uuid.UUID `form:"lead_id"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// QuoteResponse is the serialized quote.
type QuoteResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	QuoteNumber    string     `json:"quote_number"`
	LeadID         *uuid.UUID `json:"lead_id,omitempty"`
	PricingRuleID  *uuid.UUID `json:"pricing_rule_id,omitempty"`

	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`

	BaseTotal               float64 `json:"base_total"`
	BundleDiscount          float64 `json:"bundle_discount"`
	SeasonalModifier        float64 `json:"seasonal_modifier"`
	TravelFee               float64 `json:"travel_fee"`
	RushFee                 float64 `json:"rush_fee"`
	AdditionalServicesTotal float64 `json:"additional_services_total"`
	Subtotal                float64 `json:"subtotal"`
	TaxRate                 float64 `json:"tax_rate"`
	TaxAmount               float64 `json:"tax_amount"`
	Total                   float64 `json:"total"`
	Currency                string  `json:"currency"`

	LineItems []pricingdomain.BreakdownEntry `json:"line_items"`
	Warnings  []string                       `json:"warning_messages,omitempty"`

	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	CustomerNotes string `json:"customer_notes,omitempty"`

	ValidUntil time.Time  `json:"valid_until"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	DeclinedAt *time.Time `json:"declined_at,omitempty"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListQuotesResponse is a paginated quote listing.
type ListQuotesResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ExpireDueResponse reports a sweep's effect.
type ExpireDueResponse struct {
	Expired int64 `json:"expired"`
}

// FromQuote converts the domain aggregate to its API shape.
func FromQuote(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:             q.ID,
		OrganizationID: q.OrganizationID,
		QuoteNumber:    q.QuoteNumber,
		LeadID:         q.LeadID,
		PricingRuleID:  q.PricingRuleID,

		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		CustomerPhone:   q.CustomerPhone,
		CustomerAddress: q.CustomerAddress,

		BaseTotal:               q.BaseTotal.InexactFloat64(),
		BundleDiscount:          q.BundleDiscount.InexactFloat64(),
		SeasonalModifier:        q.SeasonalModifier.InexactFloat64(),
		TravelFee:               q.TravelFee.InexactFloat64(),
		RushFee:                 q.RushFee.InexactFloat64(),
		AdditionalServicesTotal: q.AdditionalServicesTotal.InexactFloat64(),
		Subtotal:                q.Subtotal.InexactFloat64(),
		TaxRate:                 q.TaxRate.InexactFloat64(),
		TaxAmount:               q.TaxAmount.InexactFloat64(),
		Total:                   q.Total.InexactFloat64(),
		Currency:                q.Currency,

		LineItems: q.LineItems,
		Warnings:  q.Warnings,

		Status:        q.Status,
		Notes:         q.Notes,
		CustomerNotes: q.CustomerNotes,

		ValidUntil: q.ValidUntil,
		SentAt:     q.SentAt,
		AcceptedAt: q.AcceptedAt,
		DeclinedAt: q.DeclinedAt,
		ExpiredAt:  q.ExpiredAt,

		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}
