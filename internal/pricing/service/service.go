// Package service implements pricing rule management and the stateless
// quote preview.
package service

import (
	"context"
	"time"

	"washpricing_backend/internal/events"
	"washpricing_backend/internal/pricing/domain"
	"washpricing_backend/internal/pricing/engine"
	"washpricing_backend/internal/pricing/transport"
	settingsdomain "washpricing_backend/internal/settings/domain"
	"washpricing_backend/platform/apperr"
	"washpricing_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface the service needs.
type Store interface {
	ActiveRule(ctx context.Context, orgID uuid.UUID, at time.Time) (*domain.PricingRule, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.PricingRule, error)
	FindByName(ctx context.Context, orgID uuid.UUID, name string) (*domain.PricingRule, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.PricingRule, error)
	Create(ctx context.Context, rule *domain.PricingRule) error
	CreateVersion(ctx context.Context, rule *domain.PricingRule) error
}

// SettingsSource resolves the pricing namespace of organization settings.
type SettingsSource interface {
	GetPricing(ctx context.Context, ref settingsdomain.Ref) settingsdomain.PricingSettings
}

// Service provides business logic for pricing rules and previews.
type Service struct {
	store    Store
	settings SettingsSource
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new pricing service.
func New(store Store, settings SettingsSource, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, settings: settings, bus: bus, log: log}
}

// CreateRule validates and persists a new rule as version 1.
func (s *Service) CreateRule(ctx context.Context, orgID, actorID uuid.UUID, req transport.CreateRuleRequest) (*transport.RuleResponse, error) {
	rule := req.ToRule(orgID)
	rule.ID = uuid.New()
	rule.CreatedAt = time.Now().UTC()

	if err := rule.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if existing, err := s.store.FindByName(ctx, orgID, rule.Name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("pricing rule with this name already exists; create a new version instead")
	}

	if err := s.store.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.announce(ctx, rule, actorID)
	resp := transport.FromRule(rule)
	return &resp, nil
}

// CreateRuleVersion persists a new version of the named rule family the
// given rule belongs to, deactivating prior versions. Rules are never
// updated in place so historical quotes stay auditable.
func (s *Service) CreateRuleVersion(ctx context.Context, orgID, actorID, ruleID uuid.UUID, req transport.CreateRuleRequest) (*transport.RuleResponse, error) {
	existing, err := s.store.GetByID(ctx, orgID, ruleID)
	if err != nil {
		return nil, err
	}

	rule := req.ToRule(orgID)
	rule.ID = uuid.New()
	rule.Name = existing.Name
	rule.CreatedAt = time.Now().UTC()

	if err := rule.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if err := s.store.CreateVersion(ctx, rule); err != nil {
		return nil, err
	}

	s.announce(ctx, rule, actorID)
	resp := transport.FromRule(rule)
	return &resp, nil
}

// GetRule retrieves one rule version scoped to the organization.
func (s *Service) GetRule(ctx context.Context, orgID, id uuid.UUID) (*transport.RuleResponse, error) {
	rule, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	resp := transport.FromRule(rule)
	return &resp, nil
}

// ListRules returns every rule version for the organization, newest first.
func (s *Service) ListRules(ctx context.Context, orgID uuid.UUID) ([]transport.RuleResponse, error) {
	rules, err := s.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RuleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, transport.FromRule(&rules[i]))
	}
	return out, nil
}

// Preview prices a request against the organization's active rule without
// persisting anything.
func (s *Service) Preview(ctx context.Context, orgID uuid.UUID, req transport.PreviewRequest) (*transport.PreviewResponse, error) {
	now := time.Now().UTC()

	rule, err := s.store.ActiveRule(ctx, orgID, now)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, apperr.Validation("no active pricing rule for organization")
	}

	pricing := s.settings.GetPricing(ctx, settingsdomain.Ref{OrganizationID: orgID})
	taxRate := decimal.NewFromFloat(pricing.TaxRatePercent)

	quote, err := engine.Compute(req.EngineRequest(), rule, engine.Options{
		TaxRatePercent: &taxRate,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	resp := transport.FromQuote(quote)
	return &resp, nil
}

func (s *Service) announce(ctx context.Context, rule *domain.PricingRule, actorID uuid.UUID) {
	s.bus.Publish(ctx, events.PricingRuleChanged{
		BaseEvent:      events.NewBaseEvent(),
		RuleID:         rule.ID,
		OrganizationID: rule.OrganizationID,
		Name:           rule.Name,
		Version:        rule.Version,
		ActorID:        actorID,
	})
}
