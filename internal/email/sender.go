// Package email sends customer-facing notifications. Delivery is driven by
// domain events; a failed send is logged and never reaches the operation
// that triggered it.
package email

import (
	"context"
)

// QuoteEmailData carries everything the quote notification template needs.
type QuoteEmailData struct {
	CustomerName   string
	QuoteNumber    string
	TotalFormatted string
	ValidUntil     string
}

// Sender delivers rendered emails.
type Sender interface {
	SendQuoteEmail(ctx context.Context, toEmail string, data QuoteEmailData) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendQuoteEmail(context.Context, string, QuoteEmailData) error {
	return nil
}
