package service

import (
	"context"
	"strings"
	"testing"

	"washpricing_backend/internal/events"
	"washpricing_backend/internal/leads/domain"
	"washpricing_backend/internal/leads/repository"
	"washpricing_backend/internal/leads/transport"
	quotestransport "washpricing_backend/internal/quotes/transport"
	"washpricing_backend/platform/apperr"
	"washpricing_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads    map[uuid.UUID]*domain.Lead
	setQuote map[uuid.UUID]uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:    make(map[uuid.UUID]*domain.Lead),
		setQuote: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeStore) Create(_ context.Context, l *domain.Lead) error {
	cp := *l
	f.leads[l.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id, orgID uuid.UUID) (*domain.Lead, error) {
	l, ok := f.leads[id]
	if !ok || l.OrganizationID != orgID {
		return nil, apperr.NotFound("lead not found")
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, l *domain.Lead) error {
	if _, ok := f.leads[l.ID]; !ok {
		return apperr.NotFound("lead not found")
	}
	cp := *l
	f.leads[l.ID] = &cp
	return nil
}

func (f *fakeStore) SetQuote(_ context.Context, id, orgID, quoteID uuid.UUID) error {
	l, ok := f.leads[id]
	if !ok || l.OrganizationID != orgID {
		return apperr.NotFound("lead not found")
	}
	if l.QuoteID != nil {
		return apperr.Conflict("lead already has a linked quote or does not exist")
	}
	qid := quoteID
	l.QuoteID = &qid
	f.setQuote[id] = quoteID
	return nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	var items []domain.Lead
	for _, l := range f.leads {
		if l.OrganizationID != params.OrganizationID {
			continue
		}
		if params.Status != nil && l.Status != *params.Status {
			continue
		}
		items = append(items, *l)
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

func testLogger() *logger.Logger {
	return logger.New("test")
}

func TestCreateLeadScoresAndPublishes(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := New(store, bus, testLogger())
	orgID := uuid.New()
	area := 500.0

	resp, err := svc.Create(context.Background(), orgID, uuid.New(), transport.CreateLeadRequest{
		ContactName:       "Jane Doe",
		ContactEmail:      "jane@example.com",
		PricingIntent:     domain.IntentQuoteRequest,
		RequestedServices: []string{"pressure_wash"},
		ExtractedSurfaces: map[string]transport.SurfaceMentionInput{
			"driveway": {Mentioned: true, Area: &area},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if resp.Status != domain.StatusNew {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusNew)
	}
	if resp.PriorityScore <= 50 {
		t.Errorf("priority score = %d, want above base for a hot lead", resp.PriorityScore)
	}
	if len(store.leads) != 1 {
		t.Fatalf("stored %d leads, want 1", len(store.leads))
	}

	names := bus.names()
	if len(names) != 1 || names[0] != "leads.lead.created" {
		t.Errorf("published events = %v, want [leads.lead.created]", names)
	}
}

func TestCreateLeadDefaultsIntent(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &recordingBus{}, testLogger())

	resp, err := svc.Create(context.Background(), uuid.New(), uuid.New(), transport.CreateLeadRequest{
		ContactName: "No Intent",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.PricingIntent != domain.IntentOther {
		t.Errorf("intent = %q, want %q", resp.PricingIntent, domain.IntentOther)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := New(store, bus, testLogger())
	orgID := uuid.New()

	created, err := svc.Create(context.Background(), orgID, uuid.New(), transport.CreateLeadRequest{ContactName: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	contacted := domain.StatusContacted
	updated, err := svc.Update(context.Background(), created.ID, orgID, uuid.New(), transport.UpdateLeadRequest{Status: &contacted})
	if err != nil {
		t.Fatalf("Update to contacted: %v", err)
	}
	if updated.Status != domain.StatusContacted {
		t.Errorf("status = %q, want contacted", updated.Status)
	}

	backToNew := domain.StatusNew
	_, err = svc.Update(context.Background(), created.ID, orgID, uuid.New(), transport.UpdateLeadRequest{Status: &backToNew})
	if err == nil {
		t.Fatal("expected backward transition to fail")
	}
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("error kind = %v, want conflict", apperr.GetKind(err))
	}
	if !strings.Contains(err.Error(), "contacted") || !strings.Contains(err.Error(), "new") {
		t.Errorf("error %q should name both states", err.Error())
	}

	stored := store.leads[created.ID]
	if stored.Status != domain.StatusContacted {
		t.Errorf("stored status = %q, want unchanged contacted", stored.Status)
	}
}

func TestUpdateRescoresLead(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &recordingBus{}, testLogger())
	orgID := uuid.New()

	created, err := svc.Create(context.Background(), orgID, uuid.New(), transport.CreateLeadRequest{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	email := "found@example.com"
	phone := "+12125551234"
	updated, err := svc.Update(context.Background(), created.ID, orgID, uuid.New(), transport.UpdateLeadRequest{
		ContactEmail: &email,
		ContactPhone: &phone,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.PriorityScore <= created.PriorityScore {
		t.Errorf("score after adding contact = %d, want above %d", updated.PriorityScore, created.PriorityScore)
	}
}

func TestGetScopedToOrganization(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &recordingBus{}, testLogger())

	created, err := svc.Create(context.Background(), uuid.New(), uuid.New(), transport.CreateLeadRequest{ContactName: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.GetByID(context.Background(), created.ID, uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("cross-org get: kind = %v, want not found", apperr.GetKind(err))
	}
}

// Auto-quote generation.

type fakeQuoteCreator struct {
	created []quotestransport.CreateQuoteRequest
	fail    error
}

func (f *fakeQuoteCreator) Create(_ context.Context, _, _ uuid.UUID, req quotestransport.CreateQuoteRequest) (*quotestransport.QuoteResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created = append(f.created, req)
	return &quotestransport.QuoteResponse{
		ID:          uuid.New(),
		QuoteNumber: "Q-202609-0001",
		LeadID:      req.LeadID,
		Status:      "draft",
	}, nil
}

func eligibleLead(orgID uuid.UUID) *domain.Lead {
	area := 500.0
	return &domain.Lead{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ContactName:    "Jane Doe",
		PricingIntent:  domain.IntentQuoteRequest,
		ExtractedSurfaces: map[string]domain.SurfaceMention{
			"driveway": {Mentioned: true, Area: &area},
		},
		Status: domain.StatusNew,
	}
}

func TestCanGenerateQuote(t *testing.T) {
	aq := NewAutoQuote(newFakeStore(), &fakeQuoteCreator{}, &recordingBus{}, testLogger())
	orgID := uuid.New()
	area := 500.0

	lead := eligibleLead(orgID)
	if !aq.CanGenerateQuote(lead) {
		t.Error("eligible lead rejected")
	}

	wrongIntent := eligibleLead(orgID)
	wrongIntent.PricingIntent = "service_interest"
	if aq.CanGenerateQuote(wrongIntent) {
		t.Error("non-buying intent accepted")
	}

	noArea := eligibleLead(orgID)
	noArea.ExtractedSurfaces = map[string]domain.SurfaceMention{
		"driveway": {Mentioned: true},
	}
	if aq.CanGenerateQuote(noArea) {
		t.Error("lead without measured area accepted")
	}

	noContact := eligibleLead(orgID)
	noContact.ContactName = ""
	noContact.ContactEmail = ""
	if aq.CanGenerateQuote(noContact) {
		t.Error("lead without contact accepted")
	}

	inquiry := &domain.Lead{
		ID:            uuid.New(),
		ContactEmail:  "only-email@example.com",
		PricingIntent: domain.IntentPriceInquiry,
		ExtractedSurfaces: map[string]domain.SurfaceMention{
			"deck": {Mentioned: true, Area: &area},
		},
	}
	if !aq.CanGenerateQuote(inquiry) {
		t.Error("price inquiry with email and area rejected")
	}
}

func TestGenerateDraftQuoteLinksLead(t *testing.T) {
	store := newFakeStore()
	quotes := &fakeQuoteCreator{}
	bus := &recordingBus{}
	aq := NewAutoQuote(store, quotes, bus, testLogger())
	orgID := uuid.New()

	lead := eligibleLead(orgID)
	store.leads[lead.ID] = lead

	quote := aq.GenerateDraftQuote(context.Background(), lead, uuid.New())
	if quote == nil {
		t.Fatal("expected a draft quote")
	}

	if len(quotes.created) != 1 {
		t.Fatalf("created %d quotes, want 1", len(quotes.created))
	}
	req := quotes.created[0]
	if req.LeadID == nil || *req.LeadID != lead.ID {
		t.Error("quote request must carry the lead ID")
	}
	surface, ok := req.Surfaces["driveway"]
	if !ok {
		t.Fatal("driveway surface missing from quote request")
	}
	if surface.Difficulty != "medium" || surface.Condition != "fair" {
		t.Errorf("surface defaults = %q/%q, want medium/fair", surface.Difficulty, surface.Condition)
	}

	if linked, ok := store.setQuote[lead.ID]; !ok || linked != quote.ID {
		t.Error("lead must link back to the generated quote")
	}

	names := bus.names()
	if len(names) != 1 || names[0] != "leads.lead.quote_generated" {
		t.Errorf("published events = %v, want [leads.lead.quote_generated]", names)
	}
}

func TestGenerateDraftQuoteSynthesizesPlaceholderEmail(t *testing.T) {
	store := newFakeStore()
	quotes := &fakeQuoteCreator{}
	aq := NewAutoQuote(store, quotes, &recordingBus{}, testLogger())

	lead := eligibleLead(uuid.New())
	lead.ContactEmail = ""
	store.leads[lead.ID] = lead

	if aq.GenerateDraftQuote(context.Background(), lead, uuid.New()) == nil {
		t.Fatal("expected a draft quote")
	}
	email := quotes.created[0].CustomerEmail
	if !strings.HasSuffix(email, ".temp") || !strings.Contains(email, "@lead-") {
		t.Errorf("placeholder email = %q, want {name}@lead-{id}.temp form", email)
	}
}

func TestGenerateDraftQuoteNeverRaises(t *testing.T) {
	store := newFakeStore()
	quotes := &fakeQuoteCreator{fail: apperr.Validation("no active pricing rule for organization")}
	aq := NewAutoQuote(store, quotes, &recordingBus{}, testLogger())

	lead := eligibleLead(uuid.New())
	store.leads[lead.ID] = lead

	if got := aq.GenerateDraftQuote(context.Background(), lead, uuid.New()); got != nil {
		t.Errorf("failed generation returned %v, want nil", got)
	}
	if lead.QuoteID != nil {
		t.Error("failed generation must not link a quote")
	}
}

func TestGenerateDraftQuoteIneligibleReturnsNil(t *testing.T) {
	aq := NewAutoQuote(newFakeStore(), &fakeQuoteCreator{}, &recordingBus{}, testLogger())

	lead := eligibleLead(uuid.New())
	lead.PricingIntent = "service_interest"
	if got := aq.GenerateDraftQuote(context.Background(), lead, uuid.New()); got != nil {
		t.Errorf("ineligible lead returned %v, want nil", got)
	}
}

func TestGenerateDraftQuoteSkipsAlreadyLinkedLead(t *testing.T) {
	quotes := &fakeQuoteCreator{}
	aq := NewAutoQuote(newFakeStore(), quotes, &recordingBus{}, testLogger())

	lead := eligibleLead(uuid.New())
	existing := uuid.New()
	lead.QuoteID = &existing

	if got := aq.GenerateDraftQuote(context.Background(), lead, uuid.New()); got != nil {
		t.Errorf("already-linked lead returned %v, want nil", got)
	}
	if len(quotes.created) != 0 {
		t.Error("already-linked lead must not create another quote")
	}
}
