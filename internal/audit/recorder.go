package audit

import (
	"context"
	"encoding/json"
	"time"

	"washpricing_backend/internal/events"
	"washpricing_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the recorder needs.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
}

// Recorder turns organization-scoped domain events into audit entries.
type Recorder struct {
	store Store
	log   *logger.Logger
}

// NewRecorder creates the audit recorder.
func NewRecorder(store Store, log *logger.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Subscribe registers the recorder for every audited event type.
func (r *Recorder) Subscribe(bus events.Bus) {
	audited := []string{
		events.QuoteCreated{}.EventName(),
		events.QuoteStatusChanged{}.EventName(),
		events.QuoteSent{}.EventName(),
		events.LeadCreated{}.EventName(),
		events.LeadStatusChanged{}.EventName(),
		events.LeadQuoteGenerated{}.EventName(),
		events.PricingRuleChanged{}.EventName(),
		events.SettingsUpdated{}.EventName(),
	}
	for _, name := range audited {
		bus.Subscribe(name, events.HandlerFunc(r.record))
	}
}

// record persists one event. It returns nil unconditionally so a failed
// insert never surfaces as a handler error beyond the log line.
func (r *Recorder) record(ctx context.Context, e events.Event) error {
	orgID, userID, ok := scope(e)
	if !ok {
		return nil
	}

	entry := &Entry{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		EventType:      e.EventName(),
		Details:        details(e),
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.store.Insert(ctx, entry); err != nil {
		r.log.Warn("audit entry dropped", "event", e.EventName(), "error", err.Error())
	}
	return nil
}

// scope extracts the organization and acting user from a domain event.
func scope(e events.Event) (uuid.UUID, *uuid.UUID, bool) {
	switch ev := e.(type) {
	case events.QuoteCreated:
		return ev.OrganizationID, &ev.ActorID, true
	case events.QuoteStatusChanged:
		return ev.OrganizationID, &ev.ActorID, true
	case events.QuoteSent:
		return ev.OrganizationID, nil, true
	case events.LeadCreated:
		return ev.OrganizationID, &ev.ActorID, true
	case events.LeadStatusChanged:
		return ev.OrganizationID, &ev.ActorID, true
	case events.LeadQuoteGenerated:
		return ev.OrganizationID, nil, true
	case events.PricingRuleChanged:
		return ev.OrganizationID, &ev.ActorID, true
	case events.SettingsUpdated:
		return ev.OrganizationID, &ev.ActorID, true
	default:
		return uuid.Nil, nil, false
	}
}

// details serializes the event payload to a generic map for the JSONB
// column. Marshal failure degrades to an empty payload, not a lost entry.
func details(e events.Event) map[string]any {
	raw, err := json.Marshal(e)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
