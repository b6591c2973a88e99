// Package handler exposes pricing rule administration and the quote
// preview over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"washpricing_backend/internal/pricing/service"
	"washpricing_backend/internal/pricing/transport"
	"washpricing_backend/platform/httpkit"
	"washpricing_backend/platform/validator"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid rule ID"
)

// Handler handles pricing HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a pricing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// Preview prices a request without persisting a quote.
// POST /api/v1/pricing/preview
func (h *Handler) Preview(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.service.Preview(c.Request.Context(), identity.OrganizationID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListRules returns every rule version for the caller's organization.
// GET /api/v1/admin/pricing/rules
func (h *Handler) ListRules(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	rules, err := h.service.ListRules(c.Request.Context(), identity.OrganizationID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, rules)
}

// GetRule returns one rule version.
// GET /api/v1/admin/pricing/rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	rule, err := h.service.GetRule(c.Request.Context(), identity.OrganizationID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, rule)
}

// CreateRule creates a new pricing rule.
// POST /api/v1/admin/pricing/rules
func (h *Handler) CreateRule(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	req, ok := h.bindRule(c)
	if !ok {
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), identity.OrganizationID(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, rule)
}

// CreateRuleVersion creates a new version of an existing rule.
// POST /api/v1/admin/pricing/rules/:id/versions
func (h *Handler) CreateRuleVersion(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	req, ok := h.bindRule(c)
	if !ok {
		return
	}

	rule, err := h.service.CreateRuleVersion(c.Request.Context(), identity.OrganizationID(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, rule)
}

func (h *Handler) bindRule(c *gin.Context) (transport.CreateRuleRequest, bool) {
	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return req, false
	}
	return req, true
}
