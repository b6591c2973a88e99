// Package service implements lead business logic: intake with priority
// scoring, lifecycle transitions and auto-quote generation.
package service

import (
	"context"
	"fmt"
	"time"

	"washpricing_backend/internal/events"
	"washpricing_backend/internal/leads/domain"
	"washpricing_backend/internal/leads/repository"
	"washpricing_backend/internal/leads/transport"
	"washpricing_backend/platform/apperr"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs. Implemented by the
// leads repository; tests use an in-memory fake.
type Store interface {
	Create(ctx context.Context, l *domain.Lead) error
	GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Lead, error)
	Update(ctx context.Context, l *domain.Lead) error
	SetQuote(ctx context.Context, id, orgID, quoteID uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
}

// Service provides business logic for leads.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

// New creates a new leads service.
func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// Create registers a new lead, scores it and announces it on the bus. The
// auto-quote subscriber reacts to the announcement; its outcome never
// affects this call.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, req transport.CreateLeadRequest) (*transport.LeadResponse, error) {
	now := time.Now().UTC()

	intent := req.PricingIntent
	if intent == "" {
		intent = domain.IntentOther
	}

	surfaces := make(map[string]domain.SurfaceMention, len(req.ExtractedSurfaces))
	for name, sm := range req.ExtractedSurfaces {
		surfaces[name] = domain.SurfaceMention{Mentioned: sm.Mentioned, Area: sm.Area}
	}

	lead := &domain.Lead{
		ID:             uuid.New(),
		OrganizationID: orgID,

		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   phone.NormalizeE164(req.ContactPhone),
		ContactAddress: req.ContactAddress,

		Source:  req.Source,
		Message: req.Message,

		RequestedServices: req.RequestedServices,
		PricingIntent:     intent,
		ExtractedSurfaces: surfaces,

		Status: domain.StatusNew,
		Notes:  req.Notes,

		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	lead.PriorityScore = domain.PriorityScore(lead)

	if err := s.store.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		OrganizationID: orgID,
		PricingIntent:  lead.PricingIntent,
		ActorID:        actorID,
	})

	resp := transport.FromLead(lead)
	return &resp, nil
}

// GetByID retrieves one lead. Leads belonging to other organizations
// resolve as not found.
func (s *Service) GetByID(ctx context.Context, id, orgID uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	resp := transport.FromLead(lead)
	return &resp, nil
}

// List retrieves a filtered, paginated lead listing.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, req transport.ListLeadsRequest) (*transport.ListLeadsResponse, error) {
	result, err := s.store.List(ctx, repository.ListParams{
		OrganizationID: orgID,
		Status:         req.Status,
		PricingIntent:  req.PricingIntent,
		MinScore:       req.MinScore,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]transport.LeadResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, transport.FromLead(&result.Items[i]))
	}
	return &transport.ListLeadsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update applies detail edits and an optional status transition. Status only
// moves forward; closed leads never reopen.
func (s *Service) Update(ctx context.Context, id, orgID, actorID uuid.UUID, req transport.UpdateLeadRequest) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	oldStatus := lead.Status

	if req.Status != nil && *req.Status != lead.Status {
		if !domain.CanTransition(lead.Status, *req.Status) {
			return nil, apperr.Conflict(
				fmt.Sprintf("invalid lead status transition from %q to %q", lead.Status, *req.Status))
		}
		lead.Status = *req.Status
	}

	if req.ContactName != nil {
		lead.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		lead.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		lead.ContactPhone = phone.NormalizeE164(*req.ContactPhone)
	}
	if req.ContactAddress != nil {
		lead.ContactAddress = *req.ContactAddress
	}
	if req.RequestedServices != nil {
		lead.RequestedServices = req.RequestedServices
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	lead.PriorityScore = domain.PriorityScore(lead)
	lead.UpdatedAt = now

	if err := s.store.Update(ctx, lead); err != nil {
		return nil, err
	}

	if lead.Status != oldStatus {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         lead.ID,
			OrganizationID: orgID,
			OldStatus:      oldStatus,
			NewStatus:      lead.Status,
			ActorID:        actorID,
		})
	}

	resp := transport.FromLead(lead)
	return &resp, nil
}
