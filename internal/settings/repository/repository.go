// Package repository provides PostgreSQL persistence for settings overrides.
package repository

import (
	"context"
	"errors"
	"fmt"

	"washpricing_backend/internal/settings/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores per-layer settings override documents. Each layer is a
// single JSONB document keyed by namespace.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OrganizationOverrides returns the organization-level override document, or
// nil when the organization has none.
func (r *Repository) OrganizationOverrides(ctx context.Context, orgID uuid.UUID) (map[string]any, error) {
	const query = `
		SELECT overrides
		FROM organization_settings
		WHERE organization_id = $1`

	return r.scanOverrides(ctx, query, orgID)
}

// TeamOverrides returns the team-level override document, or nil when the
// team has none.
func (r *Repository) TeamOverrides(ctx context.Context, orgID, teamID uuid.UUID) (map[string]any, error) {
	const query = `
		SELECT overrides
		FROM team_settings
		WHERE organization_id = $1 AND team_id = $2`

	return r.scanOverrides(ctx, query, orgID, teamID)
}

// UserOverrides returns the user-level override document, or nil when the
// user has none.
func (r *Repository) UserOverrides(ctx context.Context, orgID, userID uuid.UUID) (map[string]any, error) {
	const query = `
		SELECT overrides
		FROM user_settings
		WHERE organization_id = $1 AND user_id = $2`

	return r.scanOverrides(ctx, query, orgID, userID)
}

// LegacyUserRecord returns the old flat per-user settings row, or nil when
// the user never had one. New writes go through the namespaced documents;
// this row is read-only compatibility data.
func (r *Repository) LegacyUserRecord(ctx context.Context, userID uuid.UUID) (*domain.LegacyUserRecord, error) {
	const query = `
		SELECT business_hours_start, business_hours_end, working_days, auto_response_enabled
		FROM legacy_user_settings
		WHERE user_id = $1`

	var record domain.LegacyUserRecord
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.BusinessHoursStart,
		&record.BusinessHoursEnd,
		&record.WorkingDays,
		&record.AutoResponseEnabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get legacy user settings: %w", err)
	}
	return &record, nil
}

// SaveOrganizationOverrides upserts the organization-level document.
func (r *Repository) SaveOrganizationOverrides(ctx context.Context, orgID uuid.UUID, overrides map[string]any) error {
	const query = `
		INSERT INTO organization_settings (organization_id, overrides, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (organization_id)
		DO UPDATE SET overrides = EXCLUDED.overrides, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, orgID, overrides); err != nil {
		return fmt.Errorf("upsert organization settings: %w", err)
	}
	return nil
}

// SaveTeamOverrides upserts the team-level document.
func (r *Repository) SaveTeamOverrides(ctx context.Context, orgID, teamID uuid.UUID, overrides map[string]any) error {
	const query = `
		INSERT INTO team_settings (organization_id, team_id, overrides, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (organization_id, team_id)
		DO UPDATE SET overrides = EXCLUDED.overrides, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, orgID, teamID, overrides); err != nil {
		return fmt.Errorf("upsert team settings: %w", err)
	}
	return nil
}

// SaveUserOverrides upserts the user-level document.
func (r *Repository) SaveUserOverrides(ctx context.Context, orgID, userID uuid.UUID, overrides map[string]any) error {
	const query = `
		INSERT INTO user_settings (organization_id, user_id, overrides, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (organization_id, user_id)
		DO UPDATE SET overrides = EXCLUDED.overrides, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, orgID, userID, overrides); err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}

func (r *Repository) scanOverrides(ctx context.Context, query string, args ...any) (map[string]any, error) {
	var overrides map[string]any
	err := r.pool.QueryRow(ctx, query, args...).Scan(&overrides)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings overrides: %w", err)
	}
	return overrides, nil
}
