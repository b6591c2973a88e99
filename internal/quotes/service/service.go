// Package service implements quote business logic: pricing via the engine,
// quote-number allocation, lifecycle transitions and the expiry sweep.
package service

import (
	"context"
	"fmt"
	"time"

	"washpricing_backend/internal/events"
	pricingdomain "washpricing_backend/internal/pricing/domain"
	"washpricing_backend/internal/pricing/engine"
	"washpricing_backend/internal/quotes/domain"
	"washpricing_backend/internal/quotes/repository"
	"washpricing_backend/internal/quotes/transport"
	settingsdomain "washpricing_backend/internal/settings/domain"
	"washpricing_backend/platform/apperr"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface the service needs. Implemented by the
// quotes repository; tests use an in-memory fake.
type Store interface {
	NextQuoteNumber(ctx context.Context, orgID uuid.UUID, now time.Time) (string, error)
	Create(ctx context.Context, q *domain.Quote) error
	GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Quote, error)
	Update(ctx context.Context, q *domain.Quote) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
}

// RuleSource selects the pricing rule in effect for an organization.
type RuleSource interface {
	ActiveRule(ctx context.Context, orgID uuid.UUID, now time.Time) (*pricingdomain.PricingRule, error)
}

// SettingsSource resolves the pricing namespace of organization settings.
// It never fails; degraded resolution returns defaults.
type SettingsSource interface {
	GetPricing(ctx context.Context, ref settingsdomain.Ref) settingsdomain.PricingSettings
}

// Service provides business logic for quotes.
type Service struct {
	store    Store
	rules    RuleSource
	settings SettingsSource
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new quotes service.
func New(store Store, rules RuleSource, settings SettingsSource, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, rules: rules, settings: settings, bus: bus, log: log}
}

// Create prices the request against the organization's active rule and
// persists a draft quote. The engine's full output and the original request
// are embedded in the pricing snapshot so the quote can be recomputed later.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, req transport.CreateQuoteRequest) (*transport.QuoteResponse, error) {
	now := time.Now().UTC()

	priced, rule, err := s.price(ctx, orgID, req.EngineRequest(), now)
	if err != nil {
		return nil, err
	}

	quoteNumber, err := s.store.NextQuoteNumber(ctx, orgID, now)
	if err != nil {
		return nil, fmt.Errorf("generate quote number: %w", err)
	}

	quote := &domain.Quote{
		ID:             uuid.New(),
		OrganizationID: orgID,
		QuoteNumber:    quoteNumber,
		LeadID:         req.LeadID,
		PricingRuleID:  &rule.ID,

		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   phone.NormalizeE164(req.CustomerPhone),
		CustomerAddress: req.CustomerAddress,

		Status:        domain.StatusDraft,
		Notes:         req.Notes,
		CustomerNotes: req.CustomerNotes,

		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyPricing(quote, priced, req.EngineRequest(), now)

	if err := s.store.Create(ctx, quote); err != nil {
		return nil, err
	}

	s.log.PricingComputed(orgID.String(), quoteNumber, quote.Total.InexactFloat64(), len(quote.Warnings))
	s.bus.Publish(ctx, events.QuoteCreated{
		BaseEvent:      events.NewBaseEvent(),
		QuoteID:        quote.ID,
		OrganizationID: orgID,
		LeadID:         quote.LeadID,
		QuoteNumber:    quoteNumber,
		Total:          quote.Total.InexactFloat64(),
		Currency:       quote.Currency,
		ActorID:        actorID,
	})

	resp := transport.FromQuote(quote)
	return &resp, nil
}

// GetByID retrieves one quote. Quotes belonging to other organizations
// resolve as not found.
func (s *Service) GetByID(ctx context.Context, id, orgID uuid.UUID) (*transport.QuoteResponse, error) {
	quote, err := s.store.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	resp := transport.FromQuote(quote)
	return &resp, nil
}

// List retrieves a filtered, paginated quote listing.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, req transport.ListQuotesRequest) (*transport.ListQuotesResponse, error) {
	result, err := s.store.List(ctx, repository.ListParams{
		OrganizationID: orgID,
		LeadID:         req.LeadID,
		Status:         req.Status,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]transport.QuoteResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, transport.FromQuote(&result.Items[i]))
	}
	return &transport.ListQuotesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update applies note edits, an optional pricing recompute and an optional
// status transition. Invalid transitions are rejected before any mutation;
// terminal quotes cannot change at all.
func (s *Service) Update(ctx context.Context, id, orgID, actorID uuid.UUID, req transport.UpdateQuoteRequest) (*transport.QuoteResponse, error) {
	quote, err := s.store.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	oldStatus := quote.Status

	if req.Status != nil && *req.Status != quote.Status {
		if !domain.CanTransition(quote.Status, *req.Status) {
			return nil, apperr.Conflict(
				fmt.Sprintf("invalid quote status transition from %q to %q", quote.Status, *req.Status))
		}
	} else if domain.IsTerminal(quote.Status) && (req.Notes != nil || req.CustomerNotes != nil || req.RecomputePricing) {
		return nil, apperr.Conflict(fmt.Sprintf("quote in terminal status %q cannot be modified", quote.Status))
	}

	if req.Notes != nil {
		quote.Notes = *req.Notes
	}
	if req.CustomerNotes != nil {
		quote.CustomerNotes = *req.CustomerNotes
	}

	if req.RecomputePricing {
		s.recompute(ctx, quote, now)
	}

	if req.Status != nil && *req.Status != oldStatus {
		quote.StampStatus(*req.Status, now)
	}
	quote.UpdatedAt = now

	if err := s.store.Update(ctx, quote); err != nil {
		return nil, err
	}

	if quote.Status != oldStatus {
		s.publishStatusChange(ctx, quote, oldStatus, actorID)
	}

	resp := transport.FromQuote(quote)
	return &resp, nil
}

// ExpireDue runs the expiry sweep: every sent quote past valid_until becomes
// expired. Idempotent; an immediate second run affects zero rows.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	count, err := s.store.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("expired quotes past validity", "count", count)
		s.bus.Publish(ctx, events.QuotesExpired{BaseEvent: events.NewBaseEvent(), Count: count})
	}
	return count, nil
}

// price runs the engine against the organization's active rule and resolved
// pricing settings.
func (s *Service) price(ctx context.Context, orgID uuid.UUID, engineReq pricingdomain.QuoteRequest, now time.Time) (*pricingdomain.Quote, *pricingdomain.PricingRule, error) {
	rule, err := s.rules.ActiveRule(ctx, orgID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("look up active pricing rule: %w", err)
	}
	if rule == nil {
		return nil, nil, apperr.Validation("no active pricing rule for organization")
	}

	pricing := s.settings.GetPricing(ctx, settingsdomain.Ref{OrganizationID: orgID})
	taxRate := decimal.NewFromFloat(pricing.TaxRatePercent)

	priced, err := engine.Compute(engineReq, rule, engine.Options{
		TaxRatePercent: &taxRate,
		Now:            now,
	})
	if err != nil {
		return nil, nil, err
	}
	return priced, rule, nil
}

// recompute re-prices the quote from the request stored in its pricing
// snapshot. Without a stored request this is a logged no-op.
func (s *Service) recompute(ctx context.Context, quote *domain.Quote, now time.Time) {
	if quote.PricingSnapshot == nil || len(quote.PricingSnapshot.Request.Surfaces) == 0 {
		s.log.Warn("pricing recompute skipped, no stored request snapshot",
			"quote_id", quote.ID.String(), "quote_number", quote.QuoteNumber)
		quote.Warnings = append(quote.Warnings, "pricing recompute skipped: original request unavailable")
		return
	}

	priced, rule, err := s.price(ctx, quote.OrganizationID, quote.PricingSnapshot.Request, now)
	if err != nil {
		s.log.Warn("pricing recompute failed, keeping stored totals",
			"quote_id", quote.ID.String(), "error", err.Error())
		quote.Warnings = append(quote.Warnings, "pricing recompute failed: "+err.Error())
		return
	}

	request := quote.PricingSnapshot.Request
	validUntil := quote.ValidUntil
	applyPricing(quote, priced, request, now)
	quote.PricingRuleID = &rule.ID
	// Recomputing totals does not extend the offer's validity window.
	quote.ValidUntil = validUntil
}

// applyPricing copies an engine result into the persisted aggregate.
func applyPricing(quote *domain.Quote, priced *pricingdomain.Quote, request pricingdomain.QuoteRequest, now time.Time) {
	quote.BaseTotal = priced.BaseTotal
	quote.BundleDiscount = priced.BundleDiscount
	quote.SeasonalModifier = priced.SeasonalModifier
	quote.TravelFee = priced.TravelFee
	quote.RushFee = priced.RushFee
	quote.AdditionalServicesTotal = priced.AdditionalServicesTotal
	quote.Subtotal = priced.Subtotal
	quote.TaxRate = priced.TaxRate
	quote.TaxAmount = priced.TaxAmount
	quote.Total = priced.Total
	quote.Currency = priced.Currency
	quote.LineItems = priced.Breakdown
	quote.Warnings = priced.Warnings
	quote.ValidUntil = priced.ValidUntil
	quote.PricingSnapshot = &domain.PricingSnapshot{
		Request:      request,
		AppliedRules: priced.AppliedRules,
		Warnings:     priced.Warnings,
		Breakdown:    priced.Breakdown,
		ComputedAt:   now,
	}
}

func (s *Service) publishStatusChange(ctx context.Context, quote *domain.Quote, oldStatus string, actorID uuid.UUID) {
	s.bus.Publish(ctx, events.QuoteStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		QuoteID:        quote.ID,
		OrganizationID: quote.OrganizationID,
		QuoteNumber:    quote.QuoteNumber,
		OldStatus:      oldStatus,
		NewStatus:      quote.Status,
		ActorID:        actorID,
	})

	if quote.Status == domain.StatusSent {
		s.bus.Publish(ctx, events.QuoteSent{
			BaseEvent:      events.NewBaseEvent(),
			QuoteID:        quote.ID,
			OrganizationID: quote.OrganizationID,
			QuoteNumber:    quote.QuoteNumber,
			CustomerEmail:  quote.CustomerEmail,
			CustomerName:   quote.CustomerName,
			Total:          quote.Total.InexactFloat64(),
			Currency:       quote.Currency,
			ValidUntil:     quote.ValidUntil.Format(time.RFC3339),
		})
	}
}
