package quotes

import (
	"washpricing_backend/internal/events"
	apphttp "washpricing_backend/internal/http"
	"washpricing_backend/internal/quotes/handler"
	"washpricing_backend/internal/quotes/repository"
	"washpricing_backend/internal/quotes/service"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quotes bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the quotes repository, service and handler. Rule and
// settings resolution are injected from the pricing and settings modules.
func NewModule(pool *pgxpool.Pool, rules service.RuleSource, settings service.SettingsSource, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, rules, settings, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the quotes service for other modules and the scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts quote routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/quotes")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id", m.handler.Update)

	ctx.Admin.POST("/quotes/expire-due", m.handler.ExpireDue)
}
