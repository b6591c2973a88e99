// Package domain defines the persisted quote aggregate and its status
// lifecycle.
package domain

import (
	"time"

	pricingdomain "washpricing_backend/internal/pricing/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote statuses.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// allowedTransitions is the full status machine. Absence means the
// transition is invalid; terminal statuses have no outgoing edges.
var allowedTransitions = map[string][]string{
	StatusDraft:    {StatusSent, StatusDeclined},
	StatusSent:     {StatusAccepted, StatusDeclined, StatusExpired},
	StatusAccepted: {},
	StatusDeclined: {},
	StatusExpired:  {},
}

// CanTransition reports whether a quote may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status string) bool {
	return len(allowedTransitions[status]) == 0
}

// ValidStatus reports whether s is a known quote status.
func ValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Quote is the persisted, organization-scoped quote aggregate. The monetary
// buckets mirror the pricing engine's result; PricingSnapshot preserves the
// engine's full output plus the original request so pricing can be recomputed
// exactly.
type Quote struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	QuoteNumber    string
	LeadID         *uuid.UUID
	PricingRuleID  *uuid.UUID

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string

	BaseTotal               decimal.Decimal
	BundleDiscount          decimal.Decimal
	SeasonalModifier        decimal.Decimal
	TravelFee               decimal.Decimal
	RushFee                 decimal.Decimal
	AdditionalServicesTotal decimal.Decimal
	Subtotal                decimal.Decimal
	TaxRate                 decimal.Decimal
	TaxAmount               decimal.Decimal
	Total                   decimal.Decimal
	Currency                string

	LineItems       []pricingdomain.BreakdownEntry
	PricingSnapshot *PricingSnapshot
	Warnings        []string

	Status        string
	Notes         string
	CustomerNotes string

	ValidUntil time.Time
	SentAt     *time.Time
	AcceptedAt *time.Time
	DeclinedAt *time.Time
	ExpiredAt  *time.Time

	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PricingSnapshot is the audit record embedded in a quote row: the exact
// request the engine priced and everything it produced. Request is stored
// verbatim so a later recompute prices the same inputs against current rules
// instead of guessing them back out of the line items.
type PricingSnapshot struct {
	Request      pricingdomain.QuoteRequest     `json:"request"`
	AppliedRules []string                       `json:"applied_rules"`
	Warnings     []string                       `json:"warning_messages"`
	Breakdown    []pricingdomain.BreakdownEntry `json:"breakdown"`
	ComputedAt   time.Time                      `json:"computed_at"`
}

// IsExpired reports whether the quote is past its validity window,
// regardless of stored status.
func (q *Quote) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// StampStatus records a status change and sets the matching timestamp.
// Callers must have checked CanTransition first.
func (q *Quote) StampStatus(status string, now time.Time) {
	q.Status = status
	switch status {
	case StatusSent:
		q.SentAt = &now
	case StatusAccepted:
		q.AcceptedAt = &now
	case StatusDeclined:
		q.DeclinedAt = &now
	case StatusExpired:
		q.ExpiredAt = &now
	}
	q.UpdatedAt = now
}
