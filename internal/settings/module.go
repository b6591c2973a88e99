package settings

import (
	"time"

	"washpricing_backend/internal/events"
	apphttp "washpricing_backend/internal/http"
	"washpricing_backend/internal/settings/handler"
	"washpricing_backend/internal/settings/repository"
	"washpricing_backend/internal/settings/service"
	"washpricing_backend/platform/cache"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	resolver *service.Resolver
	repo     *repository.Repository
}

// NewModule wires the settings repository, resolver and handler. The cache
// may be nil when no Redis is configured.
func NewModule(pool *pgxpool.Pool, c cache.Cache, ttl time.Duration, val *validator.Validator, log *logger.Logger, bus events.Bus) *Module {
	repo := repository.New(pool)
	resolver := service.NewResolver(repo, c, val, log)
	if ttl > 0 {
		resolver.SetTTL(ttl)
	}
	h := handler.New(resolver, repo, val, bus)

	return &Module{
		handler:  h,
		resolver: resolver,
		repo:     repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Resolver returns the settings resolver for other modules.
func (m *Module) Resolver() *service.Resolver {
	return m.resolver
}

// RegisterRoutes mounts settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/settings", m.handler.Get)
	ctx.Protected.GET("/settings/:namespace", m.handler.GetNamespace)

	adminGroup := ctx.Admin.Group("/settings")
	adminGroup.GET("/organization", m.handler.GetOrganizationOverrides)
	adminGroup.PUT("/organization", m.handler.UpdateOrganizationOverrides)
	adminGroup.PUT("/teams/:teamID", m.handler.UpdateTeamOverrides)
	adminGroup.PUT("/users/:userID", m.handler.UpdateUserOverrides)
}
