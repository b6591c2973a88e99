package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"washpricing_backend/internal/pricing/domain"
	"washpricing_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ruleDocument is the JSONB payload holding the nested rule configuration.
// Keeping the nested maps in one document column mirrors how organizations
// edit rules (as one unit) and keeps the row schema stable across rule-shape
// changes.
type ruleDocument struct {
	BaseRates          map[string]domain.ServiceRates      `json:"base_rates"`
	Bundles            []domain.Bundle                     `json:"bundles,omitempty"`
	SeasonalModifiers  map[string]decimal.Decimal          `json:"seasonal_modifiers,omitempty"`
	Travel             domain.TravelSettings               `json:"travel_settings"`
	AdditionalServices map[string]domain.AdditionalService `json:"additional_services,omitempty"`
	Business           domain.BusinessRules                `json:"business_rules"`
}

// Repository provides database operations for pricing rules.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pricing rule repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ruleColumns = `id, organization_id, name, config, min_job_total, currency,
	is_active, priority, effective_from, effective_until, version, created_at`

// ActiveRule returns the organization's active rule at the given instant:
// is_active, inside its effective window, highest priority first, then most
// recent. Returns (nil, nil) when no rule matches.
func (r *Repository) ActiveRule(ctx context.Context, orgID uuid.UUID, at time.Time) (*domain.PricingRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM pricing_rules
		WHERE organization_id = $1
		  AND is_active = true
		  AND (effective_from IS NULL OR effective_from <= $2)
		  AND (effective_until IS NULL OR effective_until >= $2)
		ORDER BY priority DESC, created_at DESC
		LIMIT 1`

	rule, err := r.scanRule(r.pool.QueryRow(ctx, query, orgID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active pricing rule: %w", err)
	}
	return rule, nil
}

// GetByID fetches a rule scoped to the organization.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.PricingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM pricing_rules WHERE id = $1 AND organization_id = $2`

	rule, err := r.scanRule(r.pool.QueryRow(ctx, query, id, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("pricing rule not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query pricing rule: %w", err)
	}
	return rule, nil
}

// FindByName returns the newest rule version with the given name, or nil.
func (r *Repository) FindByName(ctx context.Context, orgID uuid.UUID, name string) (*domain.PricingRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM pricing_rules
		WHERE organization_id = $1 AND name = $2
		ORDER BY version DESC
		LIMIT 1`

	rule, err := r.scanRule(r.pool.QueryRow(ctx, query, orgID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pricing rule by name: %w", err)
	}
	return rule, nil
}

// ListByOrganization returns all rule versions for an organization, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.PricingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM pricing_rules WHERE organization_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.PricingRule
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// Create inserts a rule as version 1.
func (r *Repository) Create(ctx context.Context, rule *domain.PricingRule) error {
	rule.Version = 1
	return r.insert(ctx, r.pool, rule)
}

// CreateVersion inserts a new version of an existing rule inside one
// transaction, deactivating prior versions of the same name. Rules are never
// mutated in place: this is the only update path.
func (r *Repository) CreateVersion(ctx context.Context, rule *domain.PricingRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxVersion int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM pricing_rules WHERE organization_id = $1 AND name = $2`,
		rule.OrganizationID, rule.Name,
	).Scan(&maxVersion)
	if err != nil {
		return fmt.Errorf("query max rule version: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE pricing_rules SET is_active = false WHERE organization_id = $1 AND name = $2 AND is_active = true`,
		rule.OrganizationID, rule.Name,
	); err != nil {
		return fmt.Errorf("deactivate prior versions: %w", err)
	}

	rule.Version = maxVersion + 1
	if err := r.insert(ctx, tx, rule); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// dbExecer abstracts over pool and transaction for inserts.
type dbExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *Repository) insert(ctx context.Context, q dbExecer, rule *domain.PricingRule) error {
	doc := ruleDocument{
		BaseRates:          rule.BaseRates,
		Bundles:            rule.Bundles,
		SeasonalModifiers:  rule.SeasonalModifiers,
		Travel:             rule.Travel,
		AdditionalServices: rule.AdditionalServices,
		Business:           rule.Business,
	}
	config, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal rule config: %w", err)
	}

	query := `
		INSERT INTO pricing_rules (
			id, organization_id, name, config, min_job_total, currency,
			is_active, priority, effective_from, effective_until, version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := q.Exec(ctx, query,
		rule.ID, rule.OrganizationID, rule.Name, config, rule.MinJobTotal, rule.Currency,
		rule.IsActive, rule.Priority, rule.EffectiveFrom, rule.EffectiveUntil, rule.Version, rule.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert pricing rule: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRule(row rowScanner) (*domain.PricingRule, error) {
	var (
		rule     domain.PricingRule
		config   []byte
		minTotal decimal.Decimal
	)

	err := row.Scan(
		&rule.ID, &rule.OrganizationID, &rule.Name, &config, &minTotal, &rule.Currency,
		&rule.IsActive, &rule.Priority, &rule.EffectiveFrom, &rule.EffectiveUntil, &rule.Version, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	var doc ruleDocument
	if err := json.Unmarshal(config, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal rule config: %w", err)
	}

	rule.MinJobTotal = minTotal
	rule.BaseRates = doc.BaseRates
	rule.Bundles = doc.Bundles
	rule.SeasonalModifiers = doc.SeasonalModifiers
	rule.Travel = doc.Travel
	rule.AdditionalServices = doc.AdditionalServices
	rule.Business = doc.Business
	return &rule, nil
}
