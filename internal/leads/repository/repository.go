// Package repository provides PostgreSQL persistence for leads.
package repository

import (
	"context"
	"errors"
	"fmt"

	"washpricing_backend/internal/leads/domain"
	"washpricing_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMsg = "lead not found"

// ListParams contains parameters for listing leads.
type ListParams struct {
	OrganizationID uuid.UUID
	Status         *string
	PricingIntent  *string
	MinScore       *int
	Page           int
	PageSize       int
}

// ListResult contains a paginated page of leads.
type ListResult struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository provides database operations for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, organization_id,
	contact_name, contact_email, contact_phone, contact_address,
	source, message,
	requested_services, pricing_intent, extracted_surfaces,
	priority_score, status, notes, quote_id,
	created_by, created_at, updated_at`

// Create inserts a new lead row.
func (r *Repository) Create(ctx context.Context, l *domain.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18)`

	if _, err := r.pool.Exec(ctx, query,
		l.ID, l.OrganizationID,
		l.ContactName, l.ContactEmail, l.ContactPhone, l.ContactAddress,
		l.Source, l.Message,
		l.RequestedServices, l.PricingIntent, l.ExtractedSurfaces,
		l.PriorityScore, l.Status, l.Notes, l.QuoteID,
		l.CreatedBy, l.CreatedAt, l.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by ID scoped to an organization. A lead that
// exists under a different organization resolves as not found.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND organization_id = $2`

	l, err := scanLead(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(leadNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

// Update persists mutable lead fields.
func (r *Repository) Update(ctx context.Context, l *domain.Lead) error {
	query := `
		UPDATE leads SET
			contact_name = $3, contact_email = $4, contact_phone = $5,
			contact_address = $6, requested_services = $7, pricing_intent = $8,
			extracted_surfaces = $9, priority_score = $10, status = $11,
			notes = $12, quote_id = $13, updated_at = $14
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		l.ID, l.OrganizationID,
		l.ContactName, l.ContactEmail, l.ContactPhone,
		l.ContactAddress, l.RequestedServices, l.PricingIntent,
		l.ExtractedSurfaces, l.PriorityScore, l.Status,
		l.Notes, l.QuoteID, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

// SetQuote records the auto-generated quote on a lead. A lead links at most
// one quote; the guard clause makes a second link a no-op reported as a
// conflict.
func (r *Repository) SetQuote(ctx context.Context, id, orgID, quoteID uuid.UUID) error {
	query := `
		UPDATE leads SET quote_id = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND quote_id IS NULL`

	result, err := r.pool.Exec(ctx, query, id, orgID, quoteID)
	if err != nil {
		return fmt.Errorf("failed to link lead to quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("lead already has a linked quote or does not exist")
	}
	return nil
}

// List retrieves leads with filtering and pagination, highest priority and
// newest first.
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
	if params.PricingIntent != nil {
		args = append(args, *params.PricingIntent)
		where += fmt.Sprintf(" AND pricing_intent = $%d", len(args))
	}
	if params.MinScore != nil {
		args = append(args, *params.MinScore)
		where += fmt.Sprintf(" AND priority_score >= $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY priority_score DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var items []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
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

func scanLead(row rowScanner) (*domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.OrganizationID,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.ContactAddress,
		&l.Source, &l.Message,
		&l.RequestedServices, &l.PricingIntent, &l.ExtractedSurfaces,
		&l.PriorityScore, &l.Status, &l.Notes, &l.QuoteID,
		&l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
