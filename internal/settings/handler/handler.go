// Package handler exposes settings resolution and admin override management
// over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"washpricing_backend/internal/events"
	"washpricing_backend/internal/settings/domain"
	"washpricing_backend/internal/settings/repository"
	"washpricing_backend/internal/settings/service"
	"washpricing_backend/internal/settings/transport"
	"washpricing_backend/platform/httpkit"
	"washpricing_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgInvalidNamespace = "unknown settings namespace"
	msgInvalidID        = "invalid ID"
)

// Handler handles settings HTTP requests.
type Handler struct {
	resolver *service.Resolver
	repo     *repository.Repository
	val      *validator.Validator
	bus      events.Bus
}

// New creates a settings handler.
func New(resolver *service.Resolver, repo *repository.Repository, val *validator.Validator, bus events.Bus) *Handler {
	return &Handler{resolver: resolver, repo: repo, val: val, bus: bus}
}

// announce publishes the settings-updated event for the audit trail.
func (h *Handler) announce(c *gin.Context, orgID uuid.UUID, layer string, actorID uuid.UUID) {
	h.bus.Publish(c.Request.Context(), events.SettingsUpdated{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		Layer:          layer,
		ActorID:        actorID,
	})
}

// Get returns the caller's fully resolved settings snapshot.
// GET /api/v1/settings
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	userID := identity.UserID()
	ref := domain.Ref{OrganizationID: identity.OrganizationID(), UserID: &userID}

	httpkit.OK(c, h.resolver.GetSettings(c.Request.Context(), ref))
}

// GetNamespace returns one namespace of the caller's resolved settings.
// GET /api/v1/settings/:namespace
func (h *Handler) GetNamespace(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	userID := identity.UserID()
	ref := domain.Ref{OrganizationID: identity.OrganizationID(), UserID: &userID}
	ctx := c.Request.Context()

	switch c.Param("namespace") {
	case domain.NamespacePricing:
		httpkit.OK(c, h.resolver.GetPricing(ctx, ref))
	case domain.NamespaceWeather:
		httpkit.OK(c, h.resolver.GetWeather(ctx, ref))
	case domain.NamespaceDM:
		httpkit.OK(c, h.resolver.GetDM(ctx, ref))
	case domain.NamespaceScheduling:
		httpkit.OK(c, h.resolver.GetScheduling(ctx, ref))
	default:
		httpkit.Error(c, http.StatusNotFound, msgInvalidNamespace, nil)
	}
}

// GetOrganizationOverrides returns the organization's stored override layer.
// GET /api/v1/admin/settings/organization
func (h *Handler) GetOrganizationOverrides(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	overrides, err := h.repo.OrganizationOverrides(c.Request.Context(), identity.OrganizationID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.OverridesResponse{Overrides: overrides})
}

// UpdateOrganizationOverrides replaces the organization's override layer.
// PUT /api/v1/admin/settings/organization
func (h *Handler) UpdateOrganizationOverrides(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	req, ok := h.bindOverrides(c)
	if !ok {
		return
	}

	orgID := identity.OrganizationID()
	if err := h.repo.SaveOrganizationOverrides(c.Request.Context(), orgID, req.Overrides); httpkit.HandleError(c, err) {
		return
	}
	h.resolver.Invalidate(c.Request.Context(), orgID)
	h.announce(c, orgID, "organization", identity.UserID())
	httpkit.OK(c, transport.OverridesResponse{Overrides: req.Overrides})
}

// UpdateTeamOverrides replaces a team's override layer.
// PUT /api/v1/admin/settings/teams/:teamID
func (h *Handler) UpdateTeamOverrides(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	teamID, err := uuid.Parse(c.Param("teamID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	req, ok := h.bindOverrides(c)
	if !ok {
		return
	}

	orgID := identity.OrganizationID()
	if err := h.repo.SaveTeamOverrides(c.Request.Context(), orgID, teamID, req.Overrides); httpkit.HandleError(c, err) {
		return
	}
	h.resolver.Invalidate(c.Request.Context(), orgID)
	h.announce(c, orgID, "team", identity.UserID())
	httpkit.OK(c, transport.OverridesResponse{Overrides: req.Overrides})
}

// UpdateUserOverrides replaces a user's override layer.
// PUT /api/v1/admin/settings/users/:userID
func (h *Handler) UpdateUserOverrides(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	req, ok := h.bindOverrides(c)
	if !ok {
		return
	}

	orgID := identity.OrganizationID()
	if err := h.repo.SaveUserOverrides(c.Request.Context(), orgID, userID, req.Overrides); httpkit.HandleError(c, err) {
		return
	}
	h.resolver.Invalidate(c.Request.Context(), orgID)
	h.announce(c, orgID, "user", identity.UserID())
	httpkit.OK(c, transport.OverridesResponse{Overrides: req.Overrides})
}

// bindOverrides parses and validates an override document. Documents that
// would leave a namespace invalid against the defaults are rejected at write
// time rather than silently reverted at read time.
func (h *Handler) bindOverrides(c *gin.Context) (transport.UpdateOverridesRequest, bool) {
	var req transport.UpdateOverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return req, false
	}
	if err := domain.ValidateOverrideDocument(h.val, req.Overrides); err != nil {
		httpkit.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return req, false
	}
	return req, true
}
