// Package repository provides PostgreSQL persistence for quotes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"washpricing_backend/internal/quotes/domain"
	"washpricing_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quoteNotFoundMsg = "quote not found"

// ListParams contains parameters for listing quotes.
type ListParams struct {
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	Status         *string
	Page           int
	PageSize       int
}

// ListResult contains a paginated page of quotes.
type ListResult struct {
	Items      []domain.Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository provides database operations for quotes.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextQuoteNumber atomically allocates the next quote number for the
// organization and month. The counter row upsert serializes concurrent
// allocations at the database, so two requests in the same org and month can
// never observe the same sequence.
func (r *Repository) NextQuoteNumber(ctx context.Context, orgID uuid.UUID, now time.Time) (string, error) {
	yearMonth := now.UTC().Format("200601")

	var nextNum int
	query := `
		INSERT INTO quote_counters (organization_id, year_month, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (organization_id, year_month)
		DO UPDATE SET last_number = quote_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query, orgID, yearMonth).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to allocate quote number: %w", err)
	}

	return fmt.Sprintf("Q-%s-%04d", yearMonth, nextNum), nil
}

const quoteColumns = `
	id, organization_id, quote_number, lead_id, pricing_rule_id,
	customer_name, customer_email, customer_phone, customer_address,
	base_total, bundle_discount, seasonal_modifier, travel_fee, rush_fee,
	additional_services_total, subtotal, tax_rate, tax_amount, total, currency,
	line_items, pricing_snapshot, warnings,
	status, notes, customer_notes,
	valid_until, sent_at, accepted_at, declined_at, expired_at,
	created_by, created_at, updated_at`

// Create inserts a new quote row.
func (r *Repository) Create(ctx context.Context, q *domain.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33, $34)`

	if _, err := r.pool.Exec(ctx, query,
		q.ID, q.OrganizationID, q.QuoteNumber, q.LeadID, q.PricingRuleID,
		q.CustomerName, q.CustomerEmail, q.CustomerPhone, q.CustomerAddress,
		q.BaseTotal, q.BundleDiscount, q.SeasonalModifier, q.TravelFee, q.RushFee,
		q.AdditionalServicesTotal, q.Subtotal, q.TaxRate, q.TaxAmount, q.Total, q.Currency,
		q.LineItems, q.PricingSnapshot, q.Warnings,
		q.Status, q.Notes, q.CustomerNotes,
		q.ValidUntil, q.SentAt, q.AcceptedAt, q.DeclinedAt, q.ExpiredAt,
		q.CreatedBy, q.CreatedAt, q.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by ID scoped to an organization. A quote that
// exists under a different organization resolves as not found.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1 AND organization_id = $2`

	q, err := scanQuote(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// Update persists mutable quote fields: totals, notes, status and status
// timestamps.
func (r *Repository) Update(ctx context.Context, q *domain.Quote) error {
	query := `
		UPDATE quotes SET
			base_total = $3, bundle_discount = $4, seasonal_modifier = $5,
			travel_fee = $6, rush_fee = $7, additional_services_total = $8,
			subtotal = $9, tax_rate = $10, tax_amount = $11, total = $12,
			line_items = $13, pricing_snapshot = $14, warnings = $15,
			status = $16, notes = $17, customer_notes = $18,
			sent_at = $19, accepted_at = $20, declined_at = $21, expired_at = $22,
			updated_at = $23
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		q.ID, q.OrganizationID,
		q.BaseTotal, q.BundleDiscount, q.SeasonalModifier,
		q.TravelFee, q.RushFee, q.AdditionalServicesTotal,
		q.Subtotal, q.TaxRate, q.TaxAmount, q.Total,
		q.LineItems, q.PricingSnapshot, q.Warnings,
		q.Status, q.Notes, q.CustomerNotes,
		q.SentAt, q.AcceptedAt, q.DeclinedAt, q.ExpiredAt,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

// ExpireDue marks every sent quote past its validity window as expired and
// returns the number of rows affected. Running it again immediately affects
// zero rows.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE quotes
		SET status = $1, expired_at = $2, updated_at = $2
		WHERE status = $3 AND valid_until < $2`

	result, err := r.pool.Exec(ctx, query, domain.StatusExpired, now, domain.StatusSent)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	return result.RowsAffected(), nil
}

// List retrieves quotes with filtering and pagination, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	where := "WHERE organization_id = $1"
	args := []any{params.OrganizationID}

	if params.Status != nil {
		args = append(args, *params.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if params.LeadID != nil {
		args = append(args, *params.LeadID)
		where += fmt.Sprintf(" AND lead_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quotes "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var items []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(
		&q.ID, &q.OrganizationID, &q.QuoteNumber, &q.LeadID, &q.PricingRuleID,
		&q.CustomerName, &q.CustomerEmail, &q.CustomerPhone, &q.CustomerAddress,
		&q.BaseTotal, &q.BundleDiscount, &q.SeasonalModifier, &q.TravelFee, &q.RushFee,
		&q.AdditionalServicesTotal, &q.Subtotal, &q.TaxRate, &q.TaxAmount, &q.Total, &q.Currency,
		&q.LineItems, &q.PricingSnapshot, &q.Warnings,
		&q.Status, &q.Notes, &q.CustomerNotes,
		&q.ValidUntil, &q.SentAt, &q.AcceptedAt, &q.DeclinedAt, &q.ExpiredAt,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
