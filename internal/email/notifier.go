package email

import (
	"context"
	"fmt"
	"strings"

	"washpricing_backend/internal/events"
	"washpricing_backend/platform/logger"
)

// Notifier delivers the quote notification when a quote is sent. Placeholder
// addresses synthesized for auto-generated quotes are internal sentinels and
// are skipped.
type Notifier struct {
	sender Sender
	log    *logger.Logger
}

// NewNotifier creates the quote email notifier.
func NewNotifier(sender Sender, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// Subscribe registers the notifier for quote-sent events.
func (n *Notifier) Subscribe(bus events.Bus) {
	bus.Subscribe(events.QuoteSent{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		sent, ok := e.(events.QuoteSent)
		if !ok {
			return nil
		}
		n.handleQuoteSent(ctx, sent)
		return nil
	}))
}

func (n *Notifier) handleQuoteSent(ctx context.Context, e events.QuoteSent) {
	if isPlaceholderAddress(e.CustomerEmail) {
		n.log.Debug("quote email skipped, placeholder address", "quote_number", e.QuoteNumber)
		return
	}

	err := n.sender.SendQuoteEmail(ctx, e.CustomerEmail, QuoteEmailData{
		CustomerName:   e.CustomerName,
		QuoteNumber:    e.QuoteNumber,
		TotalFormatted: fmt.Sprintf("%s %.2f", e.Currency, e.Total),
		ValidUntil:     e.ValidUntil,
	})
	if err != nil {
		n.log.Warn("quote email delivery failed", "quote_number", e.QuoteNumber, "error", err.Error())
	}
}

// isPlaceholderAddress detects the {name}@lead-{id}.temp sentinel.
func isPlaceholderAddress(addr string) bool {
	return strings.HasSuffix(addr, ".temp")
}
