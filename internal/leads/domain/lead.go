// Package domain defines the lead aggregate: contact details, the surfaces
// extracted from inbound messages, the pricing intent classification and the
// lead lifecycle status machine.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lead lifecycle statuses. Transitions only move forward; a closed lead
// never reopens.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusClosed    = "closed"
)

// Pricing intents recognized from inbound messages. Only quote requests and
// price inquiries make a lead eligible for auto-quote generation.
const (
	IntentQuoteRequest    = "quote_request"
	IntentPriceInquiry    = "price_inquiry"
	IntentGeneralQuestion = "general_question"
	IntentBooking         = "booking"
	IntentOther           = "other"
)

// allowedTransitions is the forward-only lead status machine.
var allowedTransitions = map[string][]string{
	StatusNew:       {StatusContacted, StatusQualified, StatusClosed},
	StatusContacted: {StatusQualified, StatusClosed},
	StatusQualified: {StatusClosed},
	StatusClosed:    {},
}

// validIntents lists every accepted pricing intent value.
var validIntents = []string{
	IntentQuoteRequest, IntentPriceInquiry, IntentGeneralQuestion, IntentBooking, IntentOther,
}

// CanTransition reports whether a lead may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known lead status.
func ValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// ValidIntent reports whether s is a known pricing intent.
func ValidIntent(s string) bool {
	for _, intent := range validIntents {
		if intent == s {
			return true
		}
	}
	return false
}

// SurfaceMention records one surface extracted from an inbound message.
// Area is nil when the surface was mentioned without a usable measurement.
type SurfaceMention struct {
	Mentioned bool     `json:"mentioned"`
	Area      *float64 `json:"area,omitempty"`
}

// Lead is a prospective customer record, organization-scoped. A lead
// produces at most one auto-generated quote, tracked via QuoteID.
type Lead struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`

	ContactName    string `json:"contact_name"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
	ContactAddress string `json:"contact_address"`

	Source  string `json:"source"`
	Message string `json:"message"`

	RequestedServices []string                  `json:"requested_services"`
	PricingIntent     string                    `json:"pricing_intent"`
	ExtractedSurfaces map[string]SurfaceMention `json:"extracted_surfaces"`

	PriorityScore int    `json:"priority_score"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`

	QuoteID *uuid.UUID `json:"quote_id,omitempty"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeasuredSurfaces returns the extracted surfaces that carry a numeric area.
func (l *Lead) MeasuredSurfaces() map[string]float64 {
	measured := make(map[string]float64)
	for name, s := range l.ExtractedSurfaces {
		if s.Area != nil && *s.Area > 0 {
			measured[name] = *s.Area
		}
	}
	return measured
}

// HasContact reports whether the lead carries at least a name or an email,
// the minimum needed to address a quote to someone.
func (l *Lead) HasContact() bool {
	return l.ContactName != "" || l.ContactEmail != ""
}

// PlaceholderEmail synthesizes the internal sentinel address used when a
// lead has no real email. It is never delivered to.
func (l *Lead) PlaceholderEmail() string {
	name := l.ContactName
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf("%s@lead-%s.temp", slugify(name), l.ID)
}

// slugify lowercases and strips a contact name down to characters safe in
// the local part of the sentinel address.
func slugify(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case c == ' ' || c == '-' || c == '_' || c == '.':
			if len(out) > 0 && out[len(out)-1] != '.' {
				out = append(out, '.')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '.' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "customer"
	}
	return string(out)
}
