// Package common holds the response helpers every webapi package shares:
// RFC 9457 problem details, the domain error table and request binding.
package common

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const mimeProblemJSON = "application/problem+json"

// Response is the envelope for successful answers.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457. Code is a stable machine-readable error
// name; ErrorID correlates a 500 with the server log.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	ErrorID  string `json:"error_id,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

type mapping struct {
	target error
	status int
	code   string
	title  string
}

// errorTable is ordered most specific first.
var errorTable = []mapping{
	{domain.ErrSignatureInvalid, fiber.StatusUnauthorized, "signature_invalid", "Unauthorized"},
	{domain.ErrAuthRequired, fiber.StatusUnauthorized, "auth_required", "Unauthorized"},
	{domain.ErrAccessDenied, fiber.StatusForbidden, "access_denied", "Forbidden"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "invalid_input", "Bad Request"},
	{domain.ErrTransactionNotFound, fiber.StatusNotFound, "transaction_not_found", "Not Found"},
	{domain.ErrProviderNotConfigured, fiber.StatusNotFound, "provider_not_configured", "Not Found"},
	{domain.ErrMerchantNotFound, fiber.StatusNotFound, "merchant_not_found", "Not Found"},
	{domain.ErrNotFound, fiber.StatusNotFound, "not_found", "Not Found"},
	{domain.ErrAlreadyExists, fiber.StatusConflict, "already_exists", "Conflict"},
	{domain.ErrCurrencyMismatch, fiber.StatusUnprocessableEntity, "currency_mismatch", "Unprocessable Entity"},
	{domain.ErrUnsupportedOperation, fiber.StatusUnprocessableEntity, "unsupported_operation", "Unprocessable Entity"},
	{domain.ErrRoutingUnsupported, fiber.StatusUnprocessableEntity, "routing_unsupported", "Unprocessable Entity"},
	{domain.ErrInsufficientFunds, fiber.StatusUnprocessableEntity, "insufficient_funds", "Unprocessable Entity"},
	{domain.ErrProviderUnavailable, fiber.StatusBadGateway, "provider_unavailable", "Bad Gateway"},
}

// ErrorToStatusCode maps a domain error to its HTTP status.
func ErrorToStatusCode(err error) int {
	status, _, _ := classify(err)
	return status
}

// ErrorCode maps a domain error to its stable code.
func ErrorCode(err error) string {
	_, code, _ := classify(err)
	return code
}

func classify(err error) (int, string, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.title
		}
	}
	return fiber.StatusInternalServerError, "internal_error", "Internal Server Error"
}

// ProblemDetailsJSON writes err as problem details. Optional args are a
// string detail and an int status overriding the mapped one. Unmapped
// errors are logged with an opaque error_id and never echoed.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status, code, mappedTitle := classify(err)
	if err == nil {
		status, code = fiber.StatusBadRequest, ""
	}
	pd := ProblemDetails{Type: "about:blank", Title: title, Code: code}
	if pd.Title == "" {
		pd.Title = mappedTitle
	}
	for _, a := range args {
		switch v := a.(type) {
		case string:
			pd.Detail = v
		case int:
			status = v
		}
	}
	pd.Status = status

	switch {
	case status >= fiber.StatusInternalServerError && code == "internal_error":
		pd.ErrorID = uuid.NewString()
		pd.Detail = ""
		slog.Default().Error("unhandled error",
			"error_id", pd.ErrorID, "path", c.Path(), "method", c.Method(), "error", err)
	case pd.Detail == "" && err != nil:
		pd.Detail = publicDetail(err)
	}
	pd.Instance = c.OriginalURL()
	return c.Status(status).JSON(pd, mimeProblemJSON)
}

// ErrorResponse writes err with its mapped title.
func ErrorResponse(c *fiber.Ctx, err error) error {
	return ProblemDetailsJSON(c, "", err)
}

// publicDetail keeps provider failures to their redacted detail.
func publicDetail(err error) string {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return perr.Error()
	}
	return err.Error()
}

// SuccessResponseJSON writes a Response envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindAndValidate parses the body into T and validates it. On failure it
// writes a 400 and returns nil with the cause; the handler should then
// return nil so the response is kept.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		_ = ProblemDetailsJSON(c, "Invalid request body", nil, "request body could not be parsed")
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			pd := ProblemDetails{
				Type:     "about:blank",
				Title:    "Validation failed",
				Status:   fiber.StatusBadRequest,
				Code:     "invalid_input",
				Instance: c.OriginalURL(),
				Errors:   fields,
			}
			_ = c.Status(fiber.StatusBadRequest).JSON(pd, mimeProblemJSON)
			return nil, err
		}
		_ = ProblemDetailsJSON(c, "Validation failed", nil, err.Error())
		return nil, err
	}
	return &input, nil
}

// ClientIP keys rate limits. Behind a proxy the first X-Forwarded-For hop
// wins, then X-Real-IP, then the socket address.
func ClientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get(fiber.HeaderXForwardedFor); forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}

// TooManyRequests is the limiter's LimitReached handler.
func TooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(ProblemDetails{
		Type:     "about:blank",
		Title:    "Too Many Requests",
		Status:   fiber.StatusTooManyRequests,
		Code:     "rate_limited",
		Detail:   "rate limit exceeded",
		Instance: c.OriginalURL(),
	}, mimeProblemJSON)
}
