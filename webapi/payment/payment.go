// Package payment exposes public payment initiation.
package payment

import (
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/provider"
	paymentsvc "github.com/amirasaad/paylink/pkg/service/payment"
	"github.com/amirasaad/paylink/webapi/common"
	txweb "github.com/amirasaad/paylink/webapi/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

// Routes registers POST /api/v1/payments behind its own limiter. The
// endpoint is unauthenticated since payers are not merchants.
func Routes(app *fiber.App, svc *paymentsvc.Service, cfg *config.App) {
	app.Post("/api/v1/payments", limiter.New(limiter.Config{
		Max:          cfg.RateLimit.PaymentMaxRequests,
		Expiration:   cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string { return "payments:" + common.ClientIP(c) },
		LimitReached: common.TooManyRequests,
	}), Initiate(svc))
}

// Initiate starts a payment with the provider routed for the merchant's country.
// @Summary Initiate a payment
// @Description Routes by merchant country and method, records a pending transaction and starts it upstream.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body InitiateInput true "Payment"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /api/v1/payments [post]
func Initiate(svc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[InitiateInput](c)
		if input == nil {
			return nil
		}
		res, err := svc.Initiate(c.Context(), paymentsvc.Request{
			MerchantID:  uuid.MustParse(input.MerchantID),
			Amount:      input.Amount,
			Currency:    input.Currency,
			Method:      method(input.PaymentMethod),
			Description: input.Description,
			RedirectURL: input.RedirectURL,
			Customer: provider.Customer{
				Email: input.Customer.Email,
				Phone: input.Customer.Phone,
				Name:  input.Customer.Name,
			},
		})
		if err != nil {
			return common.ErrorResponse(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Payment initiated", InitiateResponse{
			Transaction:  txweb.ToResponse(res.Transaction),
			RedirectURL:  res.RedirectURL,
			Instructions: res.Instructions,
		})
	}
}
