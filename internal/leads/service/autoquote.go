package service

import (
	"context"
	"fmt"

	"washpricing_backend/internal/events"
	"washpricing_backend/internal/leads/domain"
	quotestransport "washpricing_backend/internal/quotes/transport"
	"washpricing_backend/platform/logger"

	"github.com/google/uuid"
)

// Surface defaults used when an inbound message mentions a surface without
// qualifying it.
const (
	defaultDifficulty = "medium"
	defaultCondition  = "fair"
)

// QuoteCreator is the slice of the quotes service the auto-quote generator
// needs.
type QuoteCreator interface {
	Create(ctx context.Context, orgID, actorID uuid.UUID, req quotestransport.CreateQuoteRequest) (*quotestransport.QuoteResponse, error)
}

// AutoQuote opportunistically turns eligible leads into draft quotes. It is
// driven by lead-created events and must never fail the lead-creation path
// that triggered it: every error is logged and swallowed.
type AutoQuote struct {
	leads  Store
	quotes QuoteCreator
	bus    events.Bus
	log    *logger.Logger
}

// NewAutoQuote creates the auto-quote generator.
func NewAutoQuote(leads Store, quotes QuoteCreator, bus events.Bus, log *logger.Logger) *AutoQuote {
	return &AutoQuote{leads: leads, quotes: quotes, bus: bus, log: log}
}

// Subscribe registers the generator for lead-created events.
func (a *AutoQuote) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		created, ok := e.(events.LeadCreated)
		if !ok {
			return nil
		}
		a.HandleLeadCreated(ctx, created)
		return nil
	}))
}

// HandleLeadCreated loads the lead and attempts generation. Errors are
// logged and treated as "did not qualify".
func (a *AutoQuote) HandleLeadCreated(ctx context.Context, e events.LeadCreated) {
	lead, err := a.leads.GetByID(ctx, e.LeadID, e.OrganizationID)
	if err != nil {
		a.log.Warn("auto-quote skipped, lead not loadable", "lead_id", e.LeadID, "error", err.Error())
		return
	}
	a.GenerateDraftQuote(ctx, lead, e.ActorID)
}

// CanGenerateQuote reports whether a lead carries enough data to price a
// draft quote: a buying intent, at least one measured surface and someone
// to address the quote to.
func (a *AutoQuote) CanGenerateQuote(lead *domain.Lead) bool {
	if lead.PricingIntent != domain.IntentQuoteRequest && lead.PricingIntent != domain.IntentPriceInquiry {
		return false
	}
	if len(lead.MeasuredSurfaces()) == 0 {
		return false
	}
	return lead.HasContact()
}

// GenerateDraftQuote prices the lead's measured surfaces and links the
// resulting draft quote back to the lead. Returns nil when the lead does
// not qualify or any step fails; failures never propagate.
func (a *AutoQuote) GenerateDraftQuote(ctx context.Context, lead *domain.Lead, actorID uuid.UUID) *quotestransport.QuoteResponse {
	if !a.CanGenerateQuote(lead) {
		return nil
	}
	if lead.QuoteID != nil {
		return nil
	}

	req := a.buildRequest(lead)
	quote, err := a.quotes.Create(ctx, lead.OrganizationID, actorID, req)
	if err != nil {
		a.log.Warn("auto-quote generation failed", "lead_id", lead.ID, "error", err.Error())
		return nil
	}

	if err := a.leads.SetQuote(ctx, lead.ID, lead.OrganizationID, quote.ID); err != nil {
		a.log.Warn("auto-quote created but lead link failed",
			"lead_id", lead.ID, "quote_id", quote.ID, "error", err.Error())
		return quote
	}

	a.log.Info("auto-generated draft quote from lead",
		"lead_id", lead.ID, "quote_id", quote.ID, "quote_number", quote.QuoteNumber)
	a.bus.Publish(ctx, events.LeadQuoteGenerated{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		QuoteID:        quote.ID,
		OrganizationID: lead.OrganizationID,
		QuoteNumber:    quote.QuoteNumber,
	})
	return quote
}

// buildRequest converts the lead's extracted surfaces into the quote
// service's input shape, defaulting unseen qualifiers.
func (a *AutoQuote) buildRequest(lead *domain.Lead) quotestransport.CreateQuoteRequest {
	surfaces := make(map[string]quotestransport.SurfaceInput)
	for name, area := range lead.MeasuredSurfaces() {
		surfaces[name] = quotestransport.SurfaceInput{
			Area:       area,
			Difficulty: defaultDifficulty,
			Condition:  defaultCondition,
		}
	}

	services := lead.RequestedServices
	if len(services) == 0 {
		services = []string{"pressure_wash"}
	}

	email := lead.ContactEmail
	if email == "" {
		email = lead.PlaceholderEmail()
	}

	leadID := lead.ID
	return quotestransport.CreateQuoteRequest{
		CustomerEmail:   email,
		CustomerName:    lead.ContactName,
		CustomerPhone:   lead.ContactPhone,
		CustomerAddress: lead.ContactAddress,

		ServiceTypes: services,
		Surfaces:     surfaces,

		LeadID: &leadID,
		Notes:  fmt.Sprintf("Auto-generated from lead %s", lead.ID),
	}
}
