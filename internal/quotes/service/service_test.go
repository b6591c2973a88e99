package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"washpricing_backend/internal/events"
	pricingdomain "washpricing_backend/internal/pricing/domain"
	"washpricing_backend/internal/quotes/domain"
	"washpricing_backend/internal/quotes/repository"
	"washpricing_backend/internal/quotes/transport"
	settingsdomain "washpricing_backend/internal/settings/domain"
	"washpricing_backend/platform/apperr"
	"washpricing_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeStore struct {
	quotes      map[uuid.UUID]*domain.Quote
	counter     int
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{quotes: make(map[uuid.UUID]*domain.Quote)}
}

func (f *fakeStore) NextQuoteNumber(ctx context.Context, orgID uuid.UUID, now time.Time) (string, error) {
	f.counter++
	return fmt.Sprintf("Q-%s-%04d", now.UTC().Format("200601"), f.counter), nil
}

func (f *fakeStore) Create(ctx context.Context, q *domain.Quote) error {
	cp := *q
	f.quotes[q.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Quote, error) {
	q, ok := f.quotes[id]
	if !ok || q.OrganizationID != orgID {
		return nil, apperr.NotFound("quote not found")
	}
	cp := *q
	return &cp, nil
}

func (f *fakeStore) Update(ctx context.Context, q *domain.Quote) error {
	f.updateCalls++
	stored, ok := f.quotes[q.ID]
	if !ok || stored.OrganizationID != q.OrganizationID {
		return apperr.NotFound("quote not found")
	}
	cp := *q
	f.quotes[q.ID] = &cp
	return nil
}

func (f *fakeStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, q := range f.quotes {
		if q.Status == domain.StatusSent && now.After(q.ValidUntil) {
			q.StampStatus(domain.StatusExpired, now)
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error) {
	var items []domain.Quote
	for _, q := range f.quotes {
		if q.OrganizationID == params.OrganizationID {
			items = append(items, *q)
		}
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

type fakeRules struct {
	rule *pricingdomain.PricingRule
	err  error
}

func (f *fakeRules) ActiveRule(ctx context.Context, orgID uuid.UUID, now time.Time) (*pricingdomain.PricingRule, error) {
	return f.rule, f.err
}

type fakeSettings struct {
	pricing settingsdomain.PricingSettings
}

func (f *fakeSettings) GetPricing(ctx context.Context, ref settingsdomain.Ref) settingsdomain.PricingSettings {
	return f.pricing
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) names() []string {
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

func testRule() *pricingdomain.PricingRule {
	id := uuid.New()
	return &pricingdomain.PricingRule{
		ID:   id,
		Name: "standard",
		BaseRates: map[string]pricingdomain.ServiceRates{
			"pressure_wash": {
				PerSquareFoot: map[string]decimal.Decimal{
					"driveway": decimal.RequireFromString("0.15"),
				},
			},
		},
		Business: pricingdomain.BusinessRules{
			TaxRate:           decimal.RequireFromString("8.25"),
			QuoteValidityDays: 30,
		},
		Currency: "USD",
	}
}

func newTestService(store Store, rules RuleSource) (*Service, *recordingBus) {
	bus := &recordingBus{}
	settings := &fakeSettings{pricing: settingsdomain.PricingSettings{TaxRatePercent: 8.25}}
	return New(store, rules, settings, bus, logger.New("development")), bus
}

func createRequest() transport.CreateQuoteRequest {
	return transport.CreateQuoteRequest{
		CustomerEmail: "pat@example.com",
		CustomerName:  "Pat",
		ServiceTypes:  []string{"pressure_wash"},
		Surfaces: map[string]transport.SurfaceInput{
			"driveway": {Area: 1000},
		},
	}
}

func TestCreateDraftQuote(t *testing.T) {
	store := newFakeStore()
	svc, bus := newTestService(store, &fakeRules{rule: testRule()})

	resp, err := svc.Create(context.Background(), uuid.New(), uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if resp.Status != domain.StatusDraft {
		t.Errorf("status = %q, want draft", resp.Status)
	}
	if resp.Total != 162.38 {
		t.Errorf("total = %v, want 162.38", resp.Total)
	}
	wantPrefix := "Q-" + time.Now().UTC().Format("200601") + "-"
	if !strings.HasPrefix(resp.QuoteNumber, wantPrefix) {
		t.Errorf("quote number = %q, want prefix %q", resp.QuoteNumber, wantPrefix)
	}

	stored := store.quotes[resp.ID]
	if stored == nil {
		t.Fatal("quote not persisted")
	}
	if stored.PricingSnapshot == nil || len(stored.PricingSnapshot.Request.Surfaces) != 1 {
		t.Error("pricing snapshot must embed the original request")
	}
	if stored.PricingRuleID == nil {
		t.Error("quote must link the pricing rule that priced it")
	}

	if got := bus.names(); len(got) != 1 || got[0] != "quotes.quote.created" {
		t.Errorf("published events = %v", got)
	}
}

func TestCreateWithoutActiveRuleFails(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: nil})

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), createRequest())
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(store.quotes) != 0 {
		t.Error("no quote may be persisted without a rule")
	}
}

func TestUpdateStatusDraftToSent(t *testing.T) {
	store := newFakeStore()
	svc, bus := newTestService(store, &fakeRules{rule: testRule()})
	orgID, actorID := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), orgID, actorID, createRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent := domain.StatusSent
	updated, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{Status: &sent})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Status != domain.StatusSent || updated.SentAt == nil {
		t.Errorf("status = %q, sent_at = %v", updated.Status, updated.SentAt)
	}

	names := bus.names()
	var gotStatusChanged, gotSent bool
	for _, n := range names {
		if n == "quotes.quote.status_changed" {
			gotStatusChanged = true
		}
		if n == "quotes.quote.sent" {
			gotSent = true
		}
	}
	if !gotStatusChanged || !gotSent {
		t.Errorf("published events = %v, want status_changed and sent", names)
	}
}

func TestUpdateRejectsInvalidTransition(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: testRule()})
	orgID, actorID := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), orgID, actorID, createRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Walk the quote into a terminal state.
	for _, status := range []string{domain.StatusSent, domain.StatusAccepted} {
		s := status
		if _, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{Status: &s}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
	updatesBefore := store.updateCalls
	acceptedAtBefore := store.quotes[created.ID].AcceptedAt

	declined := domain.StatusDeclined
	_, err = svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{Status: &declined})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}

	stored := store.quotes[created.ID]
	if stored.Status != domain.StatusAccepted {
		t.Errorf("stored status mutated to %q", stored.Status)
	}
	if stored.AcceptedAt != acceptedAtBefore {
		t.Error("timestamps mutated by rejected transition")
	}
	if store.updateCalls != updatesBefore {
		t.Error("store.Update must not be called for a rejected transition")
	}
}

func TestUpdateRejectsEditsOnTerminalQuote(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: testRule()})
	orgID, actorID := uuid.New(), uuid.New()

	created, _ := svc.Create(context.Background(), orgID, actorID, createRequest())
	for _, status := range []string{domain.StatusSent, domain.StatusDeclined} {
		s := status
		if _, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{Status: &s}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	notes := "late edit"
	_, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{Notes: &notes})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestGetScopedToOrganization(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: testRule()})
	orgID := uuid.New()

	created, _ := svc.Create(context.Background(), orgID, uuid.New(), createRequest())

	_, err := svc.GetByID(context.Background(), created.ID, uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("cross-org get: err = %v, want not found", err)
	}
}

func TestExpireDueIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: testRule()})
	orgID, actorID := uuid.New(), uuid.New()

	created, _ := svc.Create(context.Background(), orgID, actorID, createRequest())
	sent := domain.StatusSent
	if _, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{Status: &sent}); err != nil {
		t.Fatalf("send: %v", err)
	}
	// Push the quote past its validity window.
	store.quotes[created.ID].ValidUntil = time.Now().UTC().Add(-time.Hour)

	first, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first != 1 {
		t.Fatalf("first sweep expired %d, want 1", first)
	}
	if store.quotes[created.ID].Status != domain.StatusExpired {
		t.Error("quote not expired by sweep")
	}

	second, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second != 0 {
		t.Errorf("second sweep expired %d, want 0", second)
	}
}

func TestRecomputeWithoutSnapshotIsNoop(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: testRule()})
	orgID, actorID := uuid.New(), uuid.New()

	created, _ := svc.Create(context.Background(), orgID, actorID, createRequest())
	totalBefore := store.quotes[created.ID].Total
	store.quotes[created.ID].PricingSnapshot = nil

	updated, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{RecomputePricing: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !store.quotes[created.ID].Total.Equal(totalBefore) {
		t.Error("totals must not change without a stored request")
	}
	var warned bool
	for _, w := range updated.Warnings {
		if strings.Contains(w, "recompute skipped") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("warnings = %v, want recompute-skipped entry", updated.Warnings)
	}
}

func TestRecomputeKeepsValidityWindow(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeRules{rule: testRule()})
	orgID, actorID := uuid.New(), uuid.New()

	created, _ := svc.Create(context.Background(), orgID, actorID, createRequest())
	validBefore := store.quotes[created.ID].ValidUntil

	updated, err := svc.Update(context.Background(), created.ID, orgID, actorID, transport.UpdateQuoteRequest{RecomputePricing: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.ValidUntil.Equal(validBefore) {
		t.Errorf("valid_until changed from %v to %v on recompute", validBefore, updated.ValidUntil)
	}
	if updated.Total != 162.38 {
		t.Errorf("recomputed total = %v, want 162.38", updated.Total)
	}
}
