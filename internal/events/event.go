// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"washpricing_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteCreated is published when a draft quote is created.
type QuoteCreated struct {
	BaseEvent
	QuoteID        uuid.UUID  `json:"quoteId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	QuoteNumber    string     `json:"quoteNumber"`
	Total          float64    `json:"total"`
	Currency       string     `json:"currency"`
	ActorID        uuid.UUID  `json:"actorId"`
	AutoGenerated  bool       `json:"autoGenerated"`
}

func (e QuoteCreated) EventName() string { return "quotes.quote.created" }

// QuoteStatusChanged is published on every successful status transition,
// including the background expiry sweep's.
type QuoteStatusChanged struct {
	BaseEvent
	QuoteID        uuid.UUID `json:"quoteId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	QuoteNumber    string    `json:"quoteNumber"`
	OldStatus      string    `json:"oldStatus"`
	NewStatus      string    `json:"newStatus"`
	ActorID        uuid.UUID `json:"actorId"`
}

func (e QuoteStatusChanged) EventName() string { return "quotes.quote.status_changed" }

// QuoteSent is published when a quote transitions to sent, carrying the
// customer contact details the notification handler needs.
type QuoteSent struct {
	BaseEvent
	QuoteID        uuid.UUID `json:"quoteId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	QuoteNumber    string    `json:"quoteNumber"`
	CustomerEmail  string    `json:"customerEmail"`
	CustomerName   string    `json:"customerName"`
	Total          float64   `json:"total"`
	Currency       string    `json:"currency"`
	ValidUntil     string    `json:"validUntil"`
}

func (e QuoteSent) EventName() string { return "quotes.quote.sent" }

// QuotesExpired is published after an expiry sweep that affected any rows.
type QuotesExpired struct {
	BaseEvent
	Count int64 `json:"count"`
}

func (e QuotesExpired) EventName() string { return "quotes.sweep.expired" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created. The auto-quote
// subscriber reacts to this; its failures never reach the publisher.
type LeadCreated struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	PricingIntent  string    `json:"pricingIntent"`
	ActorID        uuid.UUID `json:"actorId"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published on every successful lead status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	OldStatus      string    `json:"oldStatus"`
	NewStatus      string    `json:"newStatus"`
	ActorID        uuid.UUID `json:"actorId"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadQuoteGenerated is published when auto-generation produces a draft quote
// from a lead.
type LeadQuoteGenerated struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	QuoteID        uuid.UUID `json:"quoteId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	QuoteNumber    string    `json:"quoteNumber"`
}

func (e LeadQuoteGenerated) EventName() string { return "leads.lead.quote_generated" }

// =============================================================================
// Pricing Domain Events
// =============================================================================

// PricingRuleChanged is published when a pricing rule is created or
// versioned.
type PricingRuleChanged struct {
	BaseEvent
	RuleID         uuid.UUID `json:"ruleId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Name           string    `json:"name"`
	Version        int       `json:"version"`
	ActorID        uuid.UUID `json:"actorId"`
}

func (e PricingRuleChanged) EventName() string { return "pricing.rule.changed" }

// =============================================================================
// Settings Domain Events
// =============================================================================

// SettingsUpdated is published when an override layer is written, after the
// resolver cache has been invalidated.
type SettingsUpdated struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	Layer          string    `json:"layer"` // "organization", "team" or "user"
	ActorID        uuid.UUID `json:"actorId"`
}

func (e SettingsUpdated) EventName() string { return "settings.updated" }
