package service

import (
	"context"
	"errors"
	"testing"

	"washpricing_backend/internal/settings/domain"
	"washpricing_backend/platform/cache"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeSource struct {
	org    map[string]any
	team   map[string]any
	user   map[string]any
	legacy *domain.LegacyUserRecord
	err    error

	orgCalls int
}

func (f *fakeSource) OrganizationOverrides(ctx context.Context, orgID uuid.UUID) (map[string]any, error) {
	f.orgCalls++
	return f.org, f.err
}

func (f *fakeSource) TeamOverrides(ctx context.Context, orgID, teamID uuid.UUID) (map[string]any, error) {
	return f.team, f.err
}

func (f *fakeSource) UserOverrides(ctx context.Context, orgID, userID uuid.UUID) (map[string]any, error) {
	return f.user, f.err
}

func (f *fakeSource) LegacyUserRecord(ctx context.Context, userID uuid.UUID) (*domain.LegacyUserRecord, error) {
	return f.legacy, f.err
}

func newTestResolver(t *testing.T, source Source, c cache.Cache) *Resolver {
	t.Helper()
	return NewResolver(source, c, validator.New(), logger.New("development"))
}

func redisCache(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisFromClient(client), mr
}

func TestGetSettingsNoOverridesReturnsDefaults(t *testing.T) {
	r := newTestResolver(t, &fakeSource{}, nil)

	got := r.GetSettings(context.Background(), domain.Ref{OrganizationID: uuid.New()})

	want := domain.DefaultSettings()
	if got.Pricing.MinimumJobPrice != want.Pricing.MinimumJobPrice {
		t.Errorf("minimum_job_price = %v, want %v", got.Pricing.MinimumJobPrice, want.Pricing.MinimumJobPrice)
	}
	if got.Scheduling.DayStart != want.Scheduling.DayStart {
		t.Errorf("day_start = %q, want %q", got.Scheduling.DayStart, want.Scheduling.DayStart)
	}
}

func TestGetSettingsLayeredPrecedence(t *testing.T) {
	teamID := uuid.New()
	userID := uuid.New()
	source := &fakeSource{
		org: map[string]any{
			"pricing": map[string]any{"tax_rate_percent": 9.0, "minimum_job_price": 175.0},
		},
		team: map[string]any{
			"pricing": map[string]any{"minimum_job_price": 200.0},
		},
		user: map[string]any{
			"pricing": map[string]any{"tax_rate_percent": 7.5},
		},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetSettings(context.Background(), domain.Ref{
		OrganizationID: uuid.New(),
		TeamID:         &teamID,
		UserID:         &userID,
	})

	if got.Pricing.TaxRatePercent != 7.5 {
		t.Errorf("tax_rate_percent = %v, want user layer 7.5", got.Pricing.TaxRatePercent)
	}
	if got.Pricing.MinimumJobPrice != 200.0 {
		t.Errorf("minimum_job_price = %v, want team layer 200.0", got.Pricing.MinimumJobPrice)
	}
}

func TestGetSettingsNestedOverridePreservesSiblings(t *testing.T) {
	source := &fakeSource{
		org: map[string]any{
			"pricing": map[string]any{
				"base_rates": map[string]any{"concrete": 0.20},
			},
		},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetPricing(context.Background(), domain.Ref{OrganizationID: uuid.New()})

	if got.BaseRates["concrete"] != 0.20 {
		t.Errorf("concrete = %v, want 0.20", got.BaseRates["concrete"])
	}
	if got.BaseRates["brick"] != 0.18 {
		t.Errorf("brick = %v, want default 0.18", got.BaseRates["brick"])
	}
	if got.MinimumJobPrice != 150.0 {
		t.Errorf("minimum_job_price = %v, want default 150.0", got.MinimumJobPrice)
	}
}

func TestInvalidNamespaceFallsBackAlone(t *testing.T) {
	source := &fakeSource{
		org: map[string]any{
			"pricing": map[string]any{"minimum_job_price": -100.0},
			"weather": map[string]any{"wind_speed_limit_mph": 18.0},
		},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetSettings(context.Background(), domain.Ref{OrganizationID: uuid.New()})

	if got.Pricing.MinimumJobPrice != domain.DefaultPricing().MinimumJobPrice {
		t.Errorf("invalid pricing namespace must revert to defaults, got minimum %v", got.Pricing.MinimumJobPrice)
	}
	if got.Weather.WindSpeedLimitMph != 18.0 {
		t.Errorf("valid weather namespace must survive, got wind limit %v", got.Weather.WindSpeedLimitMph)
	}
}

func TestSourceErrorDegradesToDefaults(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	r := newTestResolver(t, source, nil)

	got := r.GetSettings(context.Background(), domain.Ref{OrganizationID: uuid.New()})

	want := domain.DefaultSettings()
	if got.Pricing.TaxRatePercent != want.Pricing.TaxRatePercent {
		t.Errorf("tax_rate_percent = %v, want default %v", got.Pricing.TaxRatePercent, want.Pricing.TaxRatePercent)
	}
	if got.DM.MaxAutoRepliesPerThread != want.DM.MaxAutoRepliesPerThread {
		t.Errorf("max_auto_replies = %v, want default %v", got.DM.MaxAutoRepliesPerThread, want.DM.MaxAutoRepliesPerThread)
	}
}

func TestLegacyUserRecordAppliesToDMAndSchedulingOnly(t *testing.T) {
	userID := uuid.New()
	disabled := false
	start, end := "07:00", "15:30"
	source := &fakeSource{
		legacy: &domain.LegacyUserRecord{
			BusinessHoursStart:  &start,
			BusinessHoursEnd:    &end,
			WorkingDays:         []string{"tuesday", "thursday"},
			AutoResponseEnabled: &disabled,
		},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetSettings(context.Background(), domain.Ref{OrganizationID: uuid.New(), UserID: &userID})

	if got.Scheduling.DayStart != "07:00" || got.Scheduling.DayEnd != "15:30" {
		t.Errorf("scheduling hours = %q-%q, want legacy 07:00-15:30", got.Scheduling.DayStart, got.Scheduling.DayEnd)
	}
	if len(got.Scheduling.WorkingDays) != 2 {
		t.Errorf("working_days = %v, want legacy two days", got.Scheduling.WorkingDays)
	}
	if got.DM.AutoResponseEnabled {
		t.Error("dm auto_response_enabled should follow the legacy record")
	}
	if got.Pricing.MinimumJobPrice != domain.DefaultPricing().MinimumJobPrice {
		t.Error("legacy record must not touch the pricing namespace")
	}
}

func TestLegacyRecordWithMissingHoursKeepsOtherFields(t *testing.T) {
	userID := uuid.New()
	source := &fakeSource{
		legacy: &domain.LegacyUserRecord{
			WorkingDays: []string{"monday", "wednesday"},
		},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetScheduling(context.Background(), domain.Ref{OrganizationID: uuid.New(), UserID: &userID})

	if got.DayStart != domain.DefaultScheduling().DayStart {
		t.Errorf("day_start = %q, want default when the legacy row has no hours", got.DayStart)
	}
	if len(got.WorkingDays) != 2 || got.WorkingDays[0] != "monday" {
		t.Errorf("working_days = %v, want the legacy days despite missing hours", got.WorkingDays)
	}
}

func TestLegacyRecordIgnoredWithoutUser(t *testing.T) {
	disabled := false
	start := "05:00"
	source := &fakeSource{
		legacy: &domain.LegacyUserRecord{BusinessHoursStart: &start, AutoResponseEnabled: &disabled},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetSettings(context.Background(), domain.Ref{OrganizationID: uuid.New()})

	if got.Scheduling.DayStart != domain.DefaultScheduling().DayStart {
		t.Errorf("day_start = %q, legacy must not apply without a user ref", got.Scheduling.DayStart)
	}
}

func TestInvalidLegacyRecordDoesNotPoisonScheduling(t *testing.T) {
	userID := uuid.New()
	bad := "25:99"
	source := &fakeSource{
		legacy: &domain.LegacyUserRecord{BusinessHoursStart: &bad},
	}
	r := newTestResolver(t, source, nil)

	got := r.GetScheduling(context.Background(), domain.Ref{OrganizationID: uuid.New(), UserID: &userID})

	if got.DayStart != domain.DefaultScheduling().DayStart {
		t.Errorf("day_start = %q, want merged value without the bad legacy override", got.DayStart)
	}
}

func TestGetSettingsUsesCache(t *testing.T) {
	c, _ := redisCache(t)
	source := &fakeSource{
		org: map[string]any{"pricing": map[string]any{"tax_rate_percent": 9.0}},
	}
	r := newTestResolver(t, source, c)
	ref := domain.Ref{OrganizationID: uuid.New()}

	first := r.GetSettings(context.Background(), ref)
	if first.Pricing.TaxRatePercent != 9.0 {
		t.Fatalf("tax_rate_percent = %v, want 9.0", first.Pricing.TaxRatePercent)
	}

	// Change the source; the cached snapshot should still be served.
	source.org = map[string]any{"pricing": map[string]any{"tax_rate_percent": 5.0}}
	second := r.GetSettings(context.Background(), ref)
	if second.Pricing.TaxRatePercent != 9.0 {
		t.Errorf("tax_rate_percent = %v, want cached 9.0", second.Pricing.TaxRatePercent)
	}

	r.Invalidate(context.Background(), ref.OrganizationID)
	third := r.GetSettings(context.Background(), ref)
	if third.Pricing.TaxRatePercent != 5.0 {
		t.Errorf("tax_rate_percent = %v, want fresh 5.0 after invalidation", third.Pricing.TaxRatePercent)
	}
}

func TestCacheKeysAreScopedPerRef(t *testing.T) {
	c, _ := redisCache(t)
	teamID := uuid.New()
	source := &fakeSource{
		team: map[string]any{"pricing": map[string]any{"minimum_job_price": 300.0}},
	}
	r := newTestResolver(t, source, c)
	orgID := uuid.New()

	withTeam := r.GetSettings(context.Background(), domain.Ref{OrganizationID: orgID, TeamID: &teamID})
	withoutTeam := r.GetSettings(context.Background(), domain.Ref{OrganizationID: orgID})

	if withTeam.Pricing.MinimumJobPrice != 300.0 {
		t.Errorf("team-scoped minimum = %v, want 300.0", withTeam.Pricing.MinimumJobPrice)
	}
	if withoutTeam.Pricing.MinimumJobPrice != 150.0 {
		t.Errorf("org-scoped minimum = %v, want default 150.0 (must not share team's cache entry)", withoutTeam.Pricing.MinimumJobPrice)
	}
}

func TestCacheFailureIsFailOpen(t *testing.T) {
	c, mr := redisCache(t)
	source := &fakeSource{
		org: map[string]any{"pricing": map[string]any{"tax_rate_percent": 6.0}},
	}
	r := newTestResolver(t, source, c)
	ref := domain.Ref{OrganizationID: uuid.New()}

	mr.Close()

	got := r.GetSettings(context.Background(), ref)
	if got.Pricing.TaxRatePercent != 6.0 {
		t.Errorf("tax_rate_percent = %v, want 6.0 resolved despite dead cache", got.Pricing.TaxRatePercent)
	}
	if source.orgCalls == 0 {
		t.Error("resolver should have hit the source when the cache is down")
	}
}

func TestGetNamespaceAccessors(t *testing.T) {
	source := &fakeSource{
		org: map[string]any{
			"dm":         map[string]any{"response_delay_seconds": 120},
			"scheduling": map[string]any{"max_jobs_per_day": 4},
		},
	}
	r := newTestResolver(t, source, nil)
	ref := domain.Ref{OrganizationID: uuid.New()}

	if got := r.GetDM(context.Background(), ref); got.ResponseDelaySeconds != 120 {
		t.Errorf("response_delay_seconds = %v, want 120", got.ResponseDelaySeconds)
	}
	if got := r.GetScheduling(context.Background(), ref); got.MaxJobsPerDay != 4 {
		t.Errorf("max_jobs_per_day = %v, want 4", got.MaxJobsPerDay)
	}
	if got := r.GetWeather(context.Background(), ref); got.RainThresholdInches != domain.DefaultWeather().RainThresholdInches {
		t.Errorf("rain threshold = %v, want default", got.RainThresholdInches)
	}
}
