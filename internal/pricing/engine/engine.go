// Package engine implements the pricing computation pipeline. Compute is a
// pure function over an already-fetched rule and settings snapshot: it
// performs no I/O and always returns a fully formed quote with warnings for
// any lookup gaps.
package engine

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"washpricing_backend/internal/pricing/domain"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
)

// Options carries the per-computation inputs that come from outside the rule:
// the resolved organization settings and the clock.
type Options struct {
	// TaxRatePercent, when set, takes precedence over the rule's tax rate.
	// It is sourced from the organization's resolved pricing settings.
	TaxRatePercent *decimal.Decimal
	// Now anchors the quote validity window. Zero means time.Now().UTC().
	Now time.Time
}

// Compute converts a quote request and an active pricing rule into an
// itemized quote. Step order matters: later steps operate on running totals
// produced by earlier ones. Per-item lookup misses degrade to warnings so the
// engine always returns a quote, possibly zero-priced.
func Compute(req domain.QuoteRequest, rule *domain.PricingRule, opts Options) (*domain.Quote, error) {
	if rule == nil {
		return nil, fmt.Errorf("no active pricing rule")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	q := &domain.Quote{
		Currency:     rule.Currency,
		AppliedRules: []string{rule.Name},
	}

	applyBaseRates(q, req, rule)
	applyBundleDiscount(q, req, rule)
	applySeasonalModifiers(q, req, rule)
	applyTravelFee(q, req, rule)
	applyRushFee(q, req, rule)
	applyAdditionalServices(q, req, rule)
	applyCustomerTierDiscount(q, req, rule)

	q.Subtotal = q.BaseTotal.
		Add(q.BundleDiscount).
		Add(q.SeasonalModifier).
		Add(q.TravelFee).
		Add(q.RushFee).
		Add(q.AdditionalServicesTotal)

	applyTax(q, rule, opts)
	q.ValidUntil = validUntil(now, rule.Business.QuoteValidityDays)
	applyMinimum(q, rule)

	return q, nil
}

// applyBaseRates accumulates rate*area per (service, surface) pair. A service
// with a flat rate and no matched surfaces contributes the flat rate instead.
func applyBaseRates(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	pricedSurfaces := make(map[string]bool)
	surfaces := sortedSurfaceNames(req.Surfaces)

	for _, service := range req.ServiceTypes {
		rates, ok := rule.BaseRates[service]
		if !ok {
			q.AddWarning(fmt.Sprintf("no pricing configured for service %q", service))
			continue
		}

		serviceTotal := decimal.Zero
		for _, surface := range surfaces {
			rate, ok := rates.PerSquareFoot[surface]
			if !ok {
				continue
			}
			pricedSurfaces[surface] = true

			measurement := req.Surfaces[surface]
			amount := roundCents(rate.Mul(measurement.Area))
			serviceTotal = serviceTotal.Add(amount)
			q.AddEntry(domain.BreakdownEntry{
				Type:        domain.EntryBaseService,
				Description: fmt.Sprintf("%s: %s", service, surface),
				Amount:      amount.InexactFloat64(),
				Details: map[string]any{
					"service": service,
					"surface": surface,
					"rate":    rate.InexactFloat64(),
					"area":    measurement.Area.InexactFloat64(),
				},
			})
		}

		if serviceTotal.IsZero() && rates.FlatRate != nil {
			flat := roundCents(*rates.FlatRate)
			serviceTotal = flat
			q.AddEntry(domain.BreakdownEntry{
				Type:        domain.EntryBaseService,
				Description: fmt.Sprintf("%s: flat rate", service),
				Amount:      flat.InexactFloat64(),
				Details:     map[string]any{"service": service, "flat_rate": true},
			})
		}

		q.BaseTotal = q.BaseTotal.Add(serviceTotal)
	}

	for _, surface := range surfaces {
		if !pricedSurfaces[surface] {
			q.AddWarning(fmt.Sprintf("surface %q is not priced by any requested service", surface))
		}
	}
}

// sortedSurfaceNames fixes iteration order so breakdown entries and warnings
// come out the same on every run for the same request.
func sortedSurfaceNames(surfaces map[string]domain.SurfaceMeasurement) []string {
	names := make([]string, 0, len(surfaces))
	for name := range surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyBundleDiscount applies the first bundle whose full service set is a
// subset of the requested services. At most one bundle applies per quote, and
// the discount is computed against the current base total.
func applyBundleDiscount(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	for _, bundle := range rule.Bundles {
		if !bundle.AppliesTo(req.ServiceTypes) {
			continue
		}

		var discount decimal.Decimal
		if bundle.DiscountKind == domain.DiscountPercentage {
			discount = q.BaseTotal.Mul(bundle.DiscountValue).Div(hundred)
		} else {
			discount = bundle.DiscountValue
		}
		discount = roundCents(discount)

		q.BundleDiscount = discount.Neg()
		q.AppliedRules = append(q.AppliedRules, "bundle:"+bundle.Name)
		q.AddEntry(domain.BreakdownEntry{
			Type:        domain.EntryBundleDiscount,
			Description: "bundle discount: " + bundle.Name,
			Amount:      q.BundleDiscount.InexactFloat64(),
			Details: map[string]any{
				"bundle":        bundle.Name,
				"discount_kind": string(bundle.DiscountKind),
			},
		})
		return
	}
}

// applySeasonalModifiers looks up both the numeric month key and the season
// name key. Both can match and both apply, each computed against base_total
// independently. This stacking mirrors the historical behavior organizations
// have priced against; see DESIGN.md before changing it.
func applySeasonalModifiers(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	if req.PreferredDate == nil {
		return
	}

	month := req.PreferredDate.Month()
	for _, key := range []string{strconv.Itoa(int(month)), seasonOf(month)} {
		pct, ok := rule.SeasonalModifiers[key]
		if !ok {
			continue
		}

		amount := roundCents(q.BaseTotal.Mul(pct).Div(hundred))
		q.SeasonalModifier = q.SeasonalModifier.Add(amount)
		q.AddEntry(domain.BreakdownEntry{
			Type:        domain.EntrySeasonalModifier,
			Description: "seasonal modifier: " + key,
			Amount:      amount.InexactFloat64(),
			Details:     map[string]any{"key": key, "percent": pct.InexactFloat64()},
		})
	}
}

// applyTravelFee charges for miles beyond the free radius, floored at the
// configured minimum fee.
func applyTravelFee(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	if req.DistanceMiles == nil {
		return
	}
	distance := *req.DistanceMiles

	if rule.Travel.MaximumDistance.Sign() > 0 && distance.GreaterThan(rule.Travel.MaximumDistance) {
		q.AddWarning(fmt.Sprintf("location is %s miles away, beyond the configured service area of %s miles",
			distance.String(), rule.Travel.MaximumDistance.String()))
	}

	billable := distance.Sub(rule.Travel.FreeRadiusMiles)
	if billable.Sign() <= 0 {
		return
	}

	fee := billable.Mul(rule.Travel.RatePerMile)
	if fee.LessThan(rule.Travel.MinimumFee) {
		fee = rule.Travel.MinimumFee
	}
	fee = roundCents(fee)

	q.TravelFee = fee
	q.AddEntry(domain.BreakdownEntry{
		Type:        domain.EntryTravelFee,
		Description: "travel fee",
		Amount:      fee.InexactFloat64(),
		Details: map[string]any{
			"distance_miles": distance.InexactFloat64(),
			"billable_miles": billable.InexactFloat64(),
		},
	})
}

func applyRushFee(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	rf := rule.Business.RushFee
	if !req.RushJob || !rf.Enabled {
		return
	}

	var fee decimal.Decimal
	if rf.Kind == domain.DiscountPercentage {
		fee = q.BaseTotal.Mul(rf.Value).Div(hundred)
	} else {
		fee = rf.Value
	}
	fee = roundCents(fee)

	q.RushFee = fee
	q.AddEntry(domain.BreakdownEntry{
		Type:        domain.EntryRushFee,
		Description: "rush fee",
		Amount:      fee.InexactFloat64(),
		Details:     map[string]any{"kind": string(rf.Kind)},
	})
}

func applyAdditionalServices(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	for _, name := range req.AdditionalServices {
		svc, ok := rule.AdditionalServices[name]
		if !ok {
			q.AddWarning(fmt.Sprintf("unknown additional service %q", name))
			continue
		}

		price := roundCents(svc.Price)
		q.AdditionalServicesTotal = q.AdditionalServicesTotal.Add(price)
		q.AddEntry(domain.BreakdownEntry{
			Type:        domain.EntryAdditionalService,
			Description: name,
			Amount:      price.InexactFloat64(),
			Details:     map[string]any{"description": svc.Description},
		})
	}
}

// applyCustomerTierDiscount reduces base_total in place. Unlike the other
// steps it does not get its own bucket: the tier discount is a pre-subtotal
// adjustment to the base price itself.
func applyCustomerTierDiscount(q *domain.Quote, req domain.QuoteRequest, rule *domain.PricingRule) {
	if req.CustomerTier == "" {
		return
	}
	tier, ok := rule.Business.CustomerTiers[req.CustomerTier]
	if !ok || tier.DiscountPercent.Sign() == 0 {
		return
	}

	discount := roundCents(q.BaseTotal.Mul(tier.DiscountPercent).Div(hundred))
	q.BaseTotal = q.BaseTotal.Sub(discount)
	q.AddEntry(domain.BreakdownEntry{
		Type:        domain.EntryCustomerTierDiscount,
		Description: "customer tier discount: " + req.CustomerTier,
		Amount:      discount.Neg().InexactFloat64(),
		Details: map[string]any{
			"tier":             req.CustomerTier,
			"discount_percent": tier.DiscountPercent.InexactFloat64(),
		},
	})
}

func applyTax(q *domain.Quote, rule *domain.PricingRule, opts Options) {
	rate := rule.Business.TaxRate
	if opts.TaxRatePercent != nil {
		rate = *opts.TaxRatePercent
	}

	q.TaxRate = rate
	q.TaxAmount = roundCents(q.Subtotal.Mul(rate).Div(hundred))
	q.Total = q.Subtotal.Add(q.TaxAmount)

	if rate.Sign() > 0 {
		q.AddEntry(domain.BreakdownEntry{
			Type:        domain.EntryTax,
			Description: fmt.Sprintf("tax (%s%%)", rate.String()),
			Amount:      q.TaxAmount.InexactFloat64(),
			Details:     map[string]any{"rate_percent": rate.InexactFloat64()},
		})
	}
}

// applyMinimum clamps the final total to the rule's job minimum, recording
// the adjustment for the audit trail.
func applyMinimum(q *domain.Quote, rule *domain.PricingRule) {
	if rule.MinJobTotal.Sign() <= 0 || !q.Total.LessThan(rule.MinJobTotal) {
		return
	}

	original := q.Total
	q.Total = rule.MinJobTotal
	q.AddWarning(fmt.Sprintf("computed total %s is below the minimum job total %s; adjusted up",
		original.StringFixed(2), rule.MinJobTotal.StringFixed(2)))
	q.AddEntry(domain.BreakdownEntry{
		Type:        domain.EntryMinimumAdjustment,
		Description: "minimum job total adjustment",
		Amount:      rule.MinJobTotal.Sub(original).InexactFloat64(),
		Details: map[string]any{
			"original_amount": original.InexactFloat64(),
			"adjusted_amount": rule.MinJobTotal.InexactFloat64(),
		},
	})
}

// validUntil returns the end of the anchor day (23:59:59 UTC) plus the
// configured validity window.
func validUntil(now time.Time, validityDays int) time.Time {
	if validityDays <= 0 {
		validityDays = 30
	}
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	return endOfDay.AddDate(0, 0, validityDays)
}

// roundCents rounds half-up to two decimal places. Applied at every bucket
// boundary so stored totals always match their displayed values.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func seasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}
