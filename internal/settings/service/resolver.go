package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"washpricing_backend/internal/settings/domain"
	"washpricing_backend/platform/cache"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/google/uuid"
)

// DefaultCacheTTL is how long resolved snapshots stay cached.
const DefaultCacheTTL = 300 * time.Second

// Source supplies the stored override layers. Implemented by the pgx
// repository; tests use an in-memory fake.
type Source interface {
	OrganizationOverrides(ctx context.Context, orgID uuid.UUID) (map[string]any, error)
	TeamOverrides(ctx context.Context, orgID, teamID uuid.UUID) (map[string]any, error)
	UserOverrides(ctx context.Context, orgID, userID uuid.UUID) (map[string]any, error)
	LegacyUserRecord(ctx context.Context, userID uuid.UUID) (*domain.LegacyUserRecord, error)
}

// Resolver produces validated settings snapshots by merging layered
// overrides: plan defaults, then organization, team and user layers, each
// deep-merged key by key. Results are cached with a per-organization version
// counter so invalidation never has to enumerate derived keys.
//
// The resolver never returns an error: missing data, database failures and
// cache failures all degrade to compiled-in defaults. Pricing, DM and
// scheduling behavior must stay computable under partial data-layer failure.
type Resolver struct {
	source Source
	cache  cache.Cache
	val    *validator.Validator
	log    *logger.Logger
	ttl    time.Duration
}

// NewResolver creates a settings resolver. A nil cache falls back to the
// no-op implementation.
func NewResolver(source Source, c cache.Cache, val *validator.Validator, log *logger.Logger) *Resolver {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Resolver{source: source, cache: c, val: val, log: log, ttl: DefaultCacheTTL}
}

// SetTTL overrides the cache TTL. Used by tests.
func (r *Resolver) SetTTL(ttl time.Duration) { r.ttl = ttl }

// GetSettings resolves the full settings snapshot for ref.
func (r *Resolver) GetSettings(ctx context.Context, ref domain.Ref) domain.Settings {
	key, cacheable := r.cacheKey(ctx, ref, "all")
	if cacheable {
		if raw, ok, err := r.cache.Get(ctx, key); err != nil {
			r.log.CacheError("get", key, err)
		} else if ok {
			var cached domain.Settings
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached
			}
		}
	}

	resolved := domain.Settings{
		Pricing:    r.resolvePricing(ctx, ref),
		Weather:    r.resolveWeather(ctx, ref),
		DM:         r.resolveDM(ctx, ref),
		Scheduling: r.resolveScheduling(ctx, ref),
	}

	if cacheable {
		if raw, err := json.Marshal(resolved); err == nil {
			if err := r.cache.Set(ctx, key, string(raw), r.ttl); err != nil {
				r.log.CacheError("set", key, err)
			}
		}
	}

	return resolved
}

// GetPricing resolves only the pricing namespace.
func (r *Resolver) GetPricing(ctx context.Context, ref domain.Ref) domain.PricingSettings {
	var out domain.PricingSettings
	if r.namespaceFromCache(ctx, ref, domain.NamespacePricing, &out) {
		return out
	}
	out = r.resolvePricing(ctx, ref)
	r.namespaceToCache(ctx, ref, domain.NamespacePricing, out)
	return out
}

// GetWeather resolves only the weather namespace.
func (r *Resolver) GetWeather(ctx context.Context, ref domain.Ref) domain.WeatherSettings {
	var out domain.WeatherSettings
	if r.namespaceFromCache(ctx, ref, domain.NamespaceWeather, &out) {
		return out
	}
	out = r.resolveWeather(ctx, ref)
	r.namespaceToCache(ctx, ref, domain.NamespaceWeather, out)
	return out
}

// GetDM resolves only the dm namespace.
func (r *Resolver) GetDM(ctx context.Context, ref domain.Ref) domain.DMSettings {
	var out domain.DMSettings
	if r.namespaceFromCache(ctx, ref, domain.NamespaceDM, &out) {
		return out
	}
	out = r.resolveDM(ctx, ref)
	r.namespaceToCache(ctx, ref, domain.NamespaceDM, out)
	return out
}

// GetScheduling resolves only the scheduling namespace.
func (r *Resolver) GetScheduling(ctx context.Context, ref domain.Ref) domain.SchedulingSettings {
	var out domain.SchedulingSettings
	if r.namespaceFromCache(ctx, ref, domain.NamespaceScheduling, &out) {
		return out
	}
	out = r.resolveScheduling(ctx, ref)
	r.namespaceToCache(ctx, ref, domain.NamespaceScheduling, out)
	return out
}

// Invalidate bumps the organization's cache version so all derived keys go
// stale at once, then best-effort deletes the old keys. Both steps are
// optimizations; failures are logged and ignored.
func (r *Resolver) Invalidate(ctx context.Context, orgID uuid.UUID) {
	verKey := versionKey(orgID)
	if _, err := r.cache.Incr(ctx, verKey); err != nil {
		r.log.CacheError("incr", verKey, err)
	}

	pattern := "settings:" + orgID.String() + ":*"
	keys, err := r.cache.ScanKeys(ctx, pattern)
	if err != nil {
		r.log.CacheError("scan", pattern, err)
		return
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.log.CacheError("delete", pattern, err)
	}
}

// Per-namespace resolution.

func (r *Resolver) resolvePricing(ctx context.Context, ref domain.Ref) domain.PricingSettings {
	out := domain.DefaultPricing()
	r.resolveInto(ctx, ref, domain.NamespacePricing, &out, func() any { d := domain.DefaultPricing(); return &d })
	return out
}

func (r *Resolver) resolveWeather(ctx context.Context, ref domain.Ref) domain.WeatherSettings {
	out := domain.DefaultWeather()
	r.resolveInto(ctx, ref, domain.NamespaceWeather, &out, func() any { d := domain.DefaultWeather(); return &d })
	return out
}

func (r *Resolver) resolveDM(ctx context.Context, ref domain.Ref) domain.DMSettings {
	out := domain.DefaultDM()
	r.resolveInto(ctx, ref, domain.NamespaceDM, &out, func() any { d := domain.DefaultDM(); return &d })
	if ref.UserID != nil {
		if legacy := r.legacyRecord(ctx, *ref.UserID); legacy != nil && legacy.AutoResponseEnabled != nil {
			out.AutoResponseEnabled = *legacy.AutoResponseEnabled
		}
	}
	return out
}

func (r *Resolver) resolveScheduling(ctx context.Context, ref domain.Ref) domain.SchedulingSettings {
	out := domain.DefaultScheduling()
	r.resolveInto(ctx, ref, domain.NamespaceScheduling, &out, func() any { d := domain.DefaultScheduling(); return &d })
	if ref.UserID != nil {
		if legacy := r.legacyRecord(ctx, *ref.UserID); legacy != nil {
			if legacy.BusinessHoursStart != nil && *legacy.BusinessHoursStart != "" {
				out.DayStart = *legacy.BusinessHoursStart
			}
			if legacy.BusinessHoursEnd != nil && *legacy.BusinessHoursEnd != "" {
				out.DayEnd = *legacy.BusinessHoursEnd
			}
			if len(legacy.WorkingDays) > 0 {
				out.WorkingDays = legacy.WorkingDays
			}
			// Re-validate after legacy application; a corrupt legacy row
			// must not poison the namespace either.
			if err := domain.ValidateNamespace(r.val, domain.NamespaceScheduling, &out); err != nil {
				r.log.Warn("legacy scheduling overrides invalid, using merged values without them",
					"user_id", ref.UserID.String(), "error", err.Error())
				fresh := domain.DefaultScheduling()
				r.resolveInto(ctx, ref, domain.NamespaceScheduling, &fresh, func() any { d := domain.DefaultScheduling(); return &d })
				return fresh
			}
		}
	}
	return out
}

// resolveInto merges the namespace's layered overrides into out. On any
// validation failure out is reset to defaults for this namespace only.
func (r *Resolver) resolveInto(ctx context.Context, ref domain.Ref, ns string, out any, defaults func() any) {
	doc, err := domain.ToDocument(out)
	if err != nil {
		return
	}

	for _, layer := range r.overrideLayers(ctx, ref) {
		sub, ok := layer[ns].(map[string]any)
		if !ok {
			continue
		}
		doc = domain.DeepMerge(doc, sub)
	}

	merged := defaults()
	if err := domain.FromDocument(doc, merged); err != nil {
		r.log.Warn("settings namespace failed to decode, using defaults", "namespace", ns, "error", err.Error())
		return
	}
	if err := domain.ValidateNamespace(r.val, ns, merged); err != nil {
		r.log.Warn("settings namespace failed validation, using defaults",
			"namespace", ns, "organization_id", ref.OrganizationID.String(), "error", err.Error())
		return
	}

	// Copy the validated merge result back into out.
	raw, err := json.Marshal(merged)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, out)
}

// overrideLayers fetches the stored layers least-specific first. Fetch errors
// degrade to an absent layer.
func (r *Resolver) overrideLayers(ctx context.Context, ref domain.Ref) []map[string]any {
	layers := make([]map[string]any, 0, 3)

	org, err := r.source.OrganizationOverrides(ctx, ref.OrganizationID)
	if err != nil {
		r.log.DatabaseError("settings.org_overrides", err)
	} else if org != nil {
		layers = append(layers, org)
	}

	if ref.TeamID != nil {
		team, err := r.source.TeamOverrides(ctx, ref.OrganizationID, *ref.TeamID)
		if err != nil {
			r.log.DatabaseError("settings.team_overrides", err)
		} else if team != nil {
			layers = append(layers, team)
		}
	}

	if ref.UserID != nil {
		user, err := r.source.UserOverrides(ctx, ref.OrganizationID, *ref.UserID)
		if err != nil {
			r.log.DatabaseError("settings.user_overrides", err)
		} else if user != nil {
			layers = append(layers, user)
		}
	}

	return layers
}

func (r *Resolver) legacyRecord(ctx context.Context, userID uuid.UUID) *domain.LegacyUserRecord {
	record, err := r.source.LegacyUserRecord(ctx, userID)
	if err != nil {
		r.log.DatabaseError("settings.legacy_user_record", err)
		return nil
	}
	return record
}

// Caching.

func versionKey(orgID uuid.UUID) string {
	return "settings:ver:" + orgID.String()
}

// cacheKey builds the versioned cache key for ref. The bool reports whether
// caching is usable; any cache error disables it for this call.
func (r *Resolver) cacheKey(ctx context.Context, ref domain.Ref, suffix string) (string, bool) {
	verKey := versionKey(ref.OrganizationID)
	raw, ok, err := r.cache.Get(ctx, verKey)
	if err != nil {
		r.log.CacheError("get", verKey, err)
		return "", false
	}

	version := raw
	if !ok {
		n, err := r.cache.Incr(ctx, verKey)
		if err != nil {
			r.log.CacheError("incr", verKey, err)
			return "", false
		}
		version = fmt.Sprintf("%d", n)
	}

	return fmt.Sprintf("settings:%s:v%s:%s:%s:%s:%s",
		ref.OrganizationID, version,
		uuidOrDash(ref.TeamID), uuidOrDash(ref.IntegrationID), uuidOrDash(ref.UserID),
		suffix), true
}

func (r *Resolver) namespaceFromCache(ctx context.Context, ref domain.Ref, ns string, out any) bool {
	key, cacheable := r.cacheKey(ctx, ref, ns)
	if !cacheable {
		return false
	}
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.CacheError("get", key, err)
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (r *Resolver) namespaceToCache(ctx context.Context, ref domain.Ref, ns string, value any) {
	key, cacheable := r.cacheKey(ctx, ref, ns)
	if !cacheable {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, string(raw), r.ttl); err != nil {
		r.log.CacheError("set", key, err)
	}
}

func uuidOrDash(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
