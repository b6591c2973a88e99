// Package transport defines HTTP request and response shapes for leads.
package transport

import (
	"time"

	"washpricing_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SurfaceMentionInput mirrors one extracted surface from an inbound message.
type SurfaceMentionInput struct {
	Mentioned bool     `json:"mentioned"`
	Area      *float64 `json:"area,omitempty" validate:"omitempty,gt=0"`
}

// CreateLeadRequest registers a new lead, typically from an inbound DM or
// web form after keyword extraction.
type CreateLeadRequest struct {
	ContactName    string `json:"contact_name,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ContactAddress string `json:"contact_address,omitempty"`

	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`

	RequestedServices []string                       `json:"requested_services,omitempty"`
	PricingIntent     string                         `json:"pricing_intent,omitempty" validate:"omitempty,oneof=quote_request price_inquiry general_question booking other"`
	ExtractedSurfaces map[string]SurfaceMentionInput `json:"extracted_surfaces,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// UpdateLeadRequest mutates a lead: a status transition or detail edits.
type UpdateLeadRequest struct {
	Status            *string  `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified closed"`
	ContactName       *string  `json:"contact_name,omitempty"`
	ContactEmail      *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone      *string  `json:"contact_phone,omitempty"`
	ContactAddress    *string  `json:"contact_address,omitempty"`
	RequestedServices []string `json:"requested_services,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

// ListLeadsRequest filters the lead listing.
type ListLeadsRequest struct {
	Status        *string `form:"status" validate:"omitempty,oneof=new contacted qualified closed"`
	PricingIntent *string `form:"pricing_intent" validate:"omitempty,oneof=quote_request price_inquiry general_question booking other"`
	MinScore      *int    `form:"min_score" validate:"omitempty,gte=0,lte=100"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

// LeadResponse is the serialized lead.
type LeadResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`

	ContactName    string `json:"contact_name"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
	ContactAddress string `json:"contact_address"`

	Source  string `json:"source"`
	Message string `json:"message"`

	RequestedServices []string                         `json:"requested_services"`
	PricingIntent     string                           `json:"pricing_intent"`
	ExtractedSurfaces map[string]domain.SurfaceMention `json:"extracted_surfaces"`

	PriorityScore int    `json:"priority_score"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`

	QuoteID *uuid.UUID `json:"quote_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListLeadsResponse is a paginated lead listing.
type ListLeadsResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// FromLead converts the domain aggregate to its API shape.
func FromLead(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		OrganizationID: l.OrganizationID,

		ContactName:    l.ContactName,
		ContactEmail:   l.ContactEmail,
		ContactPhone:   l.ContactPhone,
		ContactAddress: l.ContactAddress,

		Source:  l.Source,
		Message: l.Message,

		RequestedServices: l.RequestedServices,
		PricingIntent:     l.PricingIntent,
		ExtractedSurfaces: l.ExtractedSurfaces,

		PriorityScore: l.PriorityScore,
		Status:        l.Status,
		Notes:         l.Notes,

		QuoteID: l.QuoteID,

		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
