// Package transport defines HTTP request and response shapes for pricing
// rules and the quote preview.
package transport

import (
	"time"

	"washpricing_backend/internal/pricing/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRuleRequest creates a pricing rule (version 1) or, through the
// version endpoint, a new version of an existing rule.
type CreateRuleRequest struct {
	Name               string                              `json:"name" validate:"required,min=1,max=120"`
	BaseRates          map[string]domain.ServiceRates      `json:"base_rates" validate:"required,min=1"`
	Bundles            []domain.Bundle                     `json:"bundles,omitempty"`
	SeasonalModifiers  map[string]decimal.Decimal          `json:"seasonal_modifiers,omitempty"`
	Travel             domain.TravelSettings               `json:"travel"`
	AdditionalServices map[string]domain.AdditionalService `json:"additional_services,omitempty"`
	Business           domain.BusinessRules                `json:"business_rules"`
	MinJobTotal        decimal.Decimal                     `json:"min_job_total"`
	Currency           string                              `json:"currency,omitempty" validate:"omitempty,len=3"`
	IsActive           *bool                               `json:"is_active,omitempty"`
	Priority           int                                 `json:"priority"`
	EffectiveFrom      *time.Time                          `json:"effective_from,omitempty"`
	EffectiveUntil     *time.Time                          `json:"effective_until,omitempty"`
}

// ToRule builds the domain rule from the request. ID, version and creation
// time are assigned by the service.
func (r CreateRuleRequest) ToRule(orgID uuid.UUID) *domain.PricingRule {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	return &domain.PricingRule{
		OrganizationID:     orgID,
		Name:               r.Name,
		BaseRates:          r.BaseRates,
		Bundles:            r.Bundles,
		SeasonalModifiers:  r.SeasonalModifiers,
		Travel:             r.Travel,
		AdditionalServices: r.AdditionalServices,
		Business:           r.Business,
		MinJobTotal:        r.MinJobTotal,
		Currency:           currency,
		IsActive:           active,
		Priority:           r.Priority,
		EffectiveFrom:      r.EffectiveFrom,
		EffectiveUntil:     r.EffectiveUntil,
	}
}

// RuleResponse is the serialized pricing rule.
type RuleResponse struct {
	ID                 uuid.UUID                           `json:"id"`
	OrganizationID     uuid.UUID                           `json:"organization_id"`
	Name               string                              `json:"name"`
	BaseRates          map[string]domain.ServiceRates      `json:"base_rates"`
	Bundles            []domain.Bundle                     `json:"bundles,omitempty"`
	SeasonalModifiers  map[string]decimal.Decimal          `json:"seasonal_modifiers,omitempty"`
	Travel             domain.TravelSettings               `json:"travel"`
	AdditionalServices map[string]domain.AdditionalService `json:"additional_services,omitempty"`
	Business           domain.BusinessRules                `json:"business_rules"`
	MinJobTotal        float64                             `json:"min_job_total"`
	Currency           string                              `json:"currency"`
	IsActive           bool                                `json:"is_active"`
	Priority           int                                 `json:"priority"`
	EffectiveFrom      *time.Time                          `json:"effective_from,omitempty"`
	EffectiveUntil     *time.Time                          `json:"effective_until,omitempty"`
	Version            int                                 `json:"version"`
	CreatedAt          time.Time                           `json:"created_at"`
}

// FromRule converts the domain rule to its API shape.
func FromRule(r *domain.PricingRule) RuleResponse {
	return RuleResponse{
		ID:                 r.ID,
		OrganizationID:     r.OrganizationID,
		Name:               r.Name,
		BaseRates:          r.BaseRates,
		Bundles:            r.Bundles,
		SeasonalModifiers:  r.SeasonalModifiers,
		Travel:             r.Travel,
		AdditionalServices: r.AdditionalServices,
		Business:           r.Business,
		MinJobTotal:        r.MinJobTotal.InexactFloat64(),
		Currency:           r.Currency,
		IsActive:           r.IsActive,
		Priority:           r.Priority,
		EffectiveFrom:      r.EffectiveFrom,
		EffectiveUntil:     r.EffectiveUntil,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
	}
}

// PreviewSurfaceInput is one surface measurement in a preview request.
type PreviewSurfaceInput struct {
	Area       float64 `json:"area" validate:"gt=0"`
	Difficulty string  `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Condition  string  `json:"condition,omitempty" validate:"omitempty,oneof=good fair poor"`
}

// PreviewRequest prices a job without persisting anything.
type PreviewRequest struct {
	ServiceTypes       []string                       `json:"service_types" validate:"required,min=1,dive,min=1"`
	Surfaces           map[string]PreviewSurfaceInput `json:"surfaces" validate:"required,min=1,dive"`
	AdditionalServices []string                       `json:"additional_services,omitempty"`
	DistanceMiles      *float64                       `json:"distance_miles,omitempty" validate:"omitempty,gte=0"`
	PreferredDate      *time.Time                     `json:"preferred_date,omitempty"`
	CustomerTier       string                         `json:"customer_tier,omitempty"`
	RushJob            bool                           `json:"rush_job"`
}

// EngineRequest converts the preview into the engine's input.
func (r PreviewRequest) EngineRequest() domain.QuoteRequest {
	surfaces := make(map[string]domain.SurfaceMeasurement, len(r.Surfaces))
	for name, s := range r.Surfaces {
		surfaces[name] = domain.SurfaceMeasurement{
			Area:       decimal.NewFromFloat(s.Area),
			Difficulty: s.Difficulty,
			Condition:  s.Condition,
		}
	}

	req := domain.QuoteRequest{
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

// PreviewResponse is the itemized result of a preview computation.
type PreviewResponse struct {
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

	LineItems    []domain.BreakdownEntry `json:"line_items"`
	AppliedRules []string                `json:"applied_rules,omitempty"`
	Warnings     []string                `json:"warning_messages,omitempty"`

	ValidUntil time.Time `json:"valid_until"`
}

// FromQuote converts the engine output to the preview's API shape.
func FromQuote(q *domain.Quote) PreviewResponse {
	return PreviewResponse{
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

		LineItems:    q.Breakdown,
		AppliedRules: q.AppliedRules,
		Warnings:     q.Warnings,

		ValidUntil: q.ValidUntil,
	}
}
