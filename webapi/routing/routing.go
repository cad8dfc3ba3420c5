// Package routing exposes the public capability lookup.
package routing

import (
	"github.com/amirasaad/paylink/pkg/rail"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Method is one collection rail available in a country.
type Method struct {
	Method             string `json:"method"`
	Provider           string `json:"provider"`
	SettlementCurrency string `json:"settlement_currency"`
}

// MethodsResponse lists what a country supports.
type MethodsResponse struct {
	Country           string   `json:"country"`
	Methods           []Method `json:"methods"`
	MobileWithdrawals bool     `json:"mobile_withdrawals"`
	BankWithdrawals   bool     `json:"bank_withdrawals"`
}

// Routes registers GET /api/v1/routing/methods.
func Routes(app *fiber.App) {
	app.Get("/api/v1/routing/methods", Methods)
}

// Methods answers which rails serve a country. An unsupported country is a
// successful empty answer, not an error.
// @Summary Payment methods for a country
// @Tags routing
// @Produce json
// @Param country query string true "ISO 3166 alpha-2 country"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /api/v1/routing/methods [get]
func Methods(c *fiber.Ctx) error {
	country := rail.NormalizeCountry(c.Query("country"))
	if len(country) != 2 {
		return common.ProblemDetailsJSON(c, "Invalid country", nil, "country must be an ISO 3166 alpha-2 code")
	}
	out := MethodsResponse{
		Country:           country,
		Methods:           []Method{},
		MobileWithdrawals: rail.DisbursementSupported(rail.AccountMobile, country),
		BankWithdrawals:   rail.DisbursementSupported(rail.AccountBank, country),
	}
	for _, r := range rail.ListRailsFor(country) {
		out.Methods = append(out.Methods, Method{
			Method:             string(r.Method),
			Provider:           r.Provider.String(),
			SettlementCurrency: r.SettlementCurrency.String(),
		})
	}
	return common.SuccessResponseJSON(c, fiber.StatusOK, "Methods fetched", out)
}
