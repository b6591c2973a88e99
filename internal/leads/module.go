package leads

import (
	"washpricing_backend/internal/events"
	apphttp "washpricing_backend/internal/http"
	"washpricing_backend/internal/leads/handler"
	"washpricing_backend/internal/leads/repository"
	"washpricing_backend/internal/leads/service"
	"washpricing_backend/platform/logger"
	"washpricing_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	autoQuote *service.AutoQuote
	repo      *repository.Repository
}

// NewModule wires the leads repository, service, auto-quote generator and
// handler. The generator subscribes to lead-created events so every new
// lead gets an eligibility check without coupling the intake path to
// quoting.
func NewModule(pool *pgxpool.Pool, quotes service.QuoteCreator, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	aq := service.NewAutoQuote(repo, quotes, bus, log)
	aq.Subscribe(bus)
	h := handler.New(svc, val)

	return &Module{
		handler:   h,
		service:   svc,
		autoQuote: aq,
		repo:      repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id", m.handler.Update)
}
