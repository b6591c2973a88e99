package pricing

import (
	"washpricing_backend/internal/events"
	apphttp "washpricing_backend/internal/http"
	"washpricing_backend/internal/pricing/handler"
	"washpricing_backend/internal/pricing/repository"
	"washpricing_backend/internal/pricing/service"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pricing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the pricing repository, service and handler.
func NewModule(pool *pgxpool.Pool, settings service.SettingsSource, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, settings, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pricing"
}

// Repository returns the rule store for the quotes module.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pricing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/pricing/preview", m.handler.Preview)

	adminGroup := ctx.Admin.Group("/pricing/rules")
	adminGroup.GET("", m.handler.ListRules)
	adminGroup.POST("", m.handler.CreateRule)
	adminGroup.GET("/:id", m.handler.GetRule)
	adminGroup.POST("/:id/versions", m.handler.CreateRuleVersion)
}
