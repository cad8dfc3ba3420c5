// Package webhook exposes the provider notification endpoint.
package webhook

import (
	"errors"
	"net/http"

	"github.com/amirasaad/paylink/infra/provider/pesapal"
	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/provider"
	webhooksvc "github.com/amirasaad/paylink/pkg/service/webhook"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Path is the notification route. Providers are registered with
// <callback base>/<provider>/<country>.
const Path = "/api/v1/webhooks/:provider/:country"

// Response acknowledges a processed notification. Reference and Status are
// empty for events that concern no transaction.
type Response struct {
	Received  bool   `json:"received"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Applied   bool   `json:"applied"`
}

// Routes registers the webhook endpoint. Only POST is served.
func Routes(app *fiber.App, svc *webhooksvc.Service) {
	app.Post(Path, Handle(svc))
	app.All(Path, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return common.ProblemDetailsJSON(c, "Method Not Allowed", nil,
			"notifications must be POSTed", fiber.StatusMethodNotAllowed)
	})
}

// Handle verifies and applies a provider notification.
// @Summary Provider notification
// @Description Receives a provider webhook. The raw body is verified before it is parsed.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param provider path string true "pesapal, paystack, flutterwave, cardissuer or stripe"
// @Param country path string true "ISO 3166 alpha-2 country"
// @Success 200 {object} Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/v1/webhooks/{provider}/{country} [post]
func Handle(svc *webhooksvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := requestHeader(c)
		res, err := svc.Handle(
			c.Context(),
			provider.Kind(c.Params("provider")),
			c.Params("country"),
			c.Body(),
			header,
		)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSignatureInvalid):
			return common.ProblemDetailsJSON(c, "Unauthorized", err, "notification could not be verified")
		case errors.Is(err, domain.ErrInvalidInput):
			return common.ProblemDetailsJSON(c, "Bad Request", err, "malformed notification")
		default:
			return common.ErrorResponse(c, err)
		}
		out := Response{Received: true, Applied: res.Applied}
		if res.Transaction != nil {
			out.Reference = res.Transaction.Reference
			out.Status = string(res.Transaction.Status)
		}
		return c.Status(fiber.StatusOK).JSON(out)
	}
}

// requestHeader copies the fasthttp headers. Pesapal IPN URLs carry their
// shared token as a query parameter, which is lifted into the header the
// adapter checks.
func requestHeader(c *fiber.Ctx) http.Header {
	h := make(http.Header)
	c.Request().Header.VisitAll(func(k, v []byte) {
		h.Add(string(k), string(v))
	})
	if token := c.Query("token"); token != "" && h.Get(pesapal.TokenHeader) == "" {
		h.Set(pesapal.TokenHeader, token)
	}
	return h
}
