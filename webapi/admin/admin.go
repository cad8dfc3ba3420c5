// Package admin exposes provider-config management and the audit log.
package admin

import (
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/domain/providerconfig"
	"github.com/amirasaad/paylink/pkg/middleware"
	configrepo "github.com/amirasaad/paylink/pkg/repository/providerconfig"
	authsvc "github.com/amirasaad/paylink/pkg/service/auth"
	configsvc "github.com/amirasaad/paylink/pkg/service/providerconfig"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the admin endpoints. Every route needs a token with the
// admin role.
func Routes(app *fiber.App, svc *configsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	handlers := append(middleware.Authenticated(cfg.Auth.Jwt, authSvc), middleware.AdminOnly())
	g := app.Group("/api/v1/admin", handlers...)
	g.Get("/provider-configs", ListProviderConfigs(svc))
	g.Post("/provider-configs", CreateProviderConfig(svc))
	g.Get("/provider-configs/:id", GetProviderConfig(svc))
	g.Put("/provider-configs/:id", UpdateProviderConfig(svc))
	g.Delete("/provider-configs/:id", DeactivateProviderConfig(svc))
	g.Get("/audit-logs", ListAuditLogs(svc))
}

func configID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = common.ProblemDetailsJSON(c, "Invalid provider config id", domain.ErrInvalidInput, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// ListProviderConfigs lists configs, optionally filtered.
// @Summary List provider configs
// @Tags admin
// @Produce json
// @Param provider query string false "provider"
// @Param country query string false "country code"
// @Param active query bool false "only active configs"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Router /api/v1/admin/provider-configs [get]
// @Security BearerAuth
func ListProviderConfigs(svc *configsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfgs, err := svc.List(c.Context(), configrepo.Filter{
			Provider:    c.Query("provider"),
			CountryCode: c.Query("country"),
			ActiveOnly:  c.QueryBool("active", false),
		})
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		out := make([]ProviderConfigResponse, 0, len(cfgs))
		for _, cfg := range cfgs {
			out = append(out, ToProviderConfigResponse(cfg))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Provider configs fetched", out)
	}
}

// CreateProviderConfig stores a config and makes it the active one for its
// provider and country.
// @Summary Create a provider config
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateProviderConfigInput true "Provider config"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Router /api/v1/admin/provider-configs [post]
// @Security BearerAuth
func CreateProviderConfig(svc *configsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[CreateProviderConfigInput](c)
		if input == nil {
			return nil
		}
		p, _ := middleware.PrincipalFrom(c)
		cfg, err := svc.Create(c.Context(), p.UserID, configsvc.CreateInput{
			Provider:           input.Provider,
			CountryCode:        input.CountryCode,
			Environment:        providerconfig.Environment(input.Environment),
			ConsumerKey:        input.ConsumerKey,
			ConsumerSecret:     input.ConsumerSecret,
			IPNID:              input.IPNID,
			WebhookSecret:      input.WebhookSecret,
			BaseURL:            input.BaseURL,
			SettlementCurrency: input.SettlementCurrency,
		})
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Provider config created", ToProviderConfigResponse(cfg))
	}
}

// GetProviderConfig returns one config.
// @Summary Get a provider config
// @Tags admin
// @Produce json
// @Param id path string true "config id"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/v1/admin/provider-configs/{id} [get]
// @Security BearerAuth
func GetProviderConfig(svc *configsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := configID(c)
		if !ok {
			return nil
		}
		cfg, err := svc.Get(c.Context(), id)
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Provider config fetched", ToProviderConfigResponse(cfg))
	}
}

// UpdateProviderConfig applies a partial update.
// @Summary Update a provider config
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "config id"
// @Param request body UpdateProviderConfigInput true "Changed fields"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/v1/admin/provider-configs/{id} [put]
// @Security BearerAuth
func UpdateProviderConfig(svc *configsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := configID(c)
		if !ok {
			return nil
		}
		input, _ := common.BindAndValidate[UpdateProviderConfigInput](c)
		if input == nil {
			return nil
		}
		in := configsvc.UpdateInput{
			ConsumerKey:        input.ConsumerKey,
			ConsumerSecret:     input.ConsumerSecret,
			IPNID:              input.IPNID,
			WebhookSecret:      input.WebhookSecret,
			BaseURL:            input.BaseURL,
			SettlementCurrency: input.SettlementCurrency,
			IsActive:           input.IsActive,
		}
		if input.Environment != nil {
			env := providerconfig.Environment(*input.Environment)
			in.Environment = &env
		}
		p, _ := middleware.PrincipalFrom(c)
		cfg, err := svc.Update(c.Context(), p.UserID, id, in)
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Provider config updated", ToProviderConfigResponse(cfg))
	}
}

// DeactivateProviderConfig turns a config off. Rows are never deleted so the
// audit trail keeps its subject.
// @Summary Deactivate a provider config
// @Tags admin
// @Produce json
// @Param id path string true "config id"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/v1/admin/provider-configs/{id} [delete]
// @Security BearerAuth
func DeactivateProviderConfig(svc *configsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := configID(c)
		if !ok {
			return nil
		}
		p, _ := middleware.PrincipalFrom(c)
		cfg, err := svc.Deactivate(c.Context(), p.UserID, id)
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Provider config deactivated", ToProviderConfigResponse(cfg))
	}
}

// ListAuditLogs pages through the audit log, newest first.
// @Summary List audit logs
// @Tags admin
// @Produce json
// @Param limit query int false "page size (max 100)"
// @Param offset query int false "offset"
// @Success 200 {object} common.Response
// @Router /api/v1/admin/audit-logs [get]
// @Security BearerAuth
func ListAuditLogs(svc *configsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logs, err := svc.AuditLogs(c.Context(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit logs fetched", ToAuditLogResponses(logs))
	}
}
