// Package domain defines the pricing bounded context's core types: the
// versioned PricingRule configuration and the computed quote breakdown.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountKind discriminates how a discount or fee value is interpreted.
type DiscountKind string

const (
	// DiscountPercentage interprets the value as a percentage of the base.
	DiscountPercentage DiscountKind = "percentage"
	// DiscountFlat interprets the value as a flat currency amount.
	DiscountFlat DiscountKind = "flat"
)

// ServiceRates holds per-surface unit rates for one service type. FlatRate,
// when set, is used only if none of the requested surfaces matched a
// per-surface rate.
type ServiceRates struct {
	PerSquareFoot map[string]decimal.Decimal `json:"per_square_foot"`
	FlatRate      *decimal.Decimal           `json:"flat_rate,omitempty"`
}

// Bundle is a named discount applied when its full service set is contained
// in the requested service types. Bundles are evaluated in order and at most
// one applies per quote.
type Bundle struct {
	Name          string          `json:"name"`
	Services      []string        `json:"services"`
	DiscountKind  DiscountKind    `json:"discount_kind"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// AppliesTo reports whether every service in the bundle is requested.
func (b Bundle) AppliesTo(requested []string) bool {
	if len(b.Services) == 0 {
		return false
	}
	set := make(map[string]bool, len(requested))
	for _, s := range requested {
		set[s] = true
	}
	for _, s := range b.Services {
		if !set[s] {
			return false
		}
	}
	return true
}

// TravelSettings configures the distance-based travel fee.
type TravelSettings struct {
	FreeRadiusMiles decimal.Decimal `json:"free_radius_miles"`
	RatePerMile     decimal.Decimal `json:"rate_per_mile"`
	MinimumFee      decimal.Decimal `json:"minimum_fee"`
	MaximumDistance decimal.Decimal `json:"maximum_distance"`
}

// AdditionalService is a flat-priced add-on (gutter cleaning, sealing, ...).
type AdditionalService struct {
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// RushFeeConfig describes the surcharge applied to rush jobs.
type RushFeeConfig struct {
	Enabled bool            `json:"enabled"`
	Kind    DiscountKind    `json:"kind"`
	Value   decimal.Decimal `json:"value"`
}

// TierConfig holds the discount for a customer tier.
type TierConfig struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// BusinessRules groups the rule's tax, validity, rush and tier settings.
type BusinessRules struct {
	TaxRate           decimal.Decimal       `json:"tax_rate"`
	QuoteValidityDays int                   `json:"quote_validity_days"`
	RushFee           RushFeeConfig         `json:"rush_fee"`
	CustomerTiers     map[string]TierConfig `json:"customer_tiers"`
}

// PricingRule is an organization's versioned pricing configuration. Rules are
// never mutated in place: updates insert a new version row so historical
// quotes stay auditable against the rule that priced them.
type PricingRule struct {
	ID                 uuid.UUID
	OrganizationID     uuid.UUID
	Name               string
	BaseRates          map[string]ServiceRates
	Bundles            []Bundle
	SeasonalModifiers  map[string]decimal.Decimal // keyed by month "1".."12" or season name
	Travel             TravelSettings
	AdditionalServices map[string]AdditionalService
	Business           BusinessRules
	MinJobTotal        decimal.Decimal
	Currency           string
	IsActive           bool
	Priority           int
	EffectiveFrom      *time.Time
	EffectiveUntil     *time.Time
	Version            int
	CreatedAt          time.Time
}

// Validate checks structural constraints that must hold before a rule is
// accepted at load/create time rather than discovered during computation.
func (r *PricingRule) Validate() error {
	for service, rates := range r.BaseRates {
		for surface, rate := range rates.PerSquareFoot {
			if rate.Sign() <= 0 {
				return &RuleError{Field: "base_rates", Message: "rate for " + service + "/" + surface + " must be positive"}
			}
		}
		if rates.FlatRate != nil && rates.FlatRate.Sign() <= 0 {
			return &RuleError{Field: "base_rates", Message: "flat rate for " + service + " must be positive"}
		}
	}
	for _, b := range r.Bundles {
		if b.DiscountKind != DiscountPercentage && b.DiscountKind != DiscountFlat {
			return &RuleError{Field: "bundles", Message: "bundle " + b.Name + " has unknown discount kind"}
		}
		if b.DiscountValue.Sign() < 0 {
			return &RuleError{Field: "bundles", Message: "bundle " + b.Name + " discount must not be negative"}
		}
	}
	if rf := r.Business.RushFee; rf.Enabled && rf.Kind != DiscountPercentage && rf.Kind != DiscountFlat {
		return &RuleError{Field: "business_rules.rush_fee", Message: "unknown rush fee kind"}
	}
	if r.MinJobTotal.Sign() < 0 {
		return &RuleError{Field: "min_job_total", Message: "must not be negative"}
	}
	return nil
}

// RuleError reports a structurally invalid pricing rule.
type RuleError struct {
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return "invalid pricing rule: " + e.Field + ": " + e.Message
}
