// Package httpclient is the JSON-over-HTTP plumbing shared by the provider
// adapters: timeouts, status-code checks and redacted upstream errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amirasaad/paylink/pkg/domain"
	"github.com/amirasaad/paylink/pkg/money"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/shopspring/decimal"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// maxBody bounds how much of an upstream response is read.
const maxBody = 1 << 20

// Client performs JSON requests on behalf of one provider.
type Client struct {
	kind    provider.Kind
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a client with the given timeout applied both to the
// http.Client and to every request context.
func New(kind provider.Kind, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		kind:    kind,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger.With("provider", string(kind)),
	}
}

// Request describes one call.
type Request struct {
	Method  string
	URL     string
	Header  map[string]string
	Body    any
	Secrets []string
}

// Do sends req and decodes a 2xx JSON answer into out. Transport failures,
// non-2xx answers and undecodable bodies come back as *provider.Error.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.kind, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.kind, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		detail := "request failed"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			detail = "request timed out"
		}
		c.logger.Error("provider request failed", "method", req.Method, "error", provider.Redact(err.Error(), req.Secrets...))
		return provider.NewError(c.kind, 0, detail, err, req.Secrets...)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return provider.NewError(c.kind, resp.StatusCode, "reading response failed", err, req.Secrets...)
	}

	c.logger.Debug("provider response",
		"method", req.Method,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := provider.NewError(c.kind, resp.StatusCode, string(raw), nil, req.Secrets...)
		c.logger.Warn("provider returned non-2xx", "status", resp.StatusCode, "detail", perr.Detail)
		return perr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return provider.NewError(c.kind, resp.StatusCode, "undecodable response", err, req.Secrets...)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// WireAmount renders amount in the provider's unit. Whole-unit providers
// (multiplier 1) receive the decimal as is; minor-unit providers receive an
// integer.
func WireAmount(amount decimal.Decimal, multiplier int64) (json.Number, error) {
	if multiplier == 1 {
		return json.Number(amount.String()), nil
	}
	minor, err := money.ToMinorUnits(amount, multiplier)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return json.Number(strconv.FormatInt(minor, 10)), nil
}

// BaseURL picks the override when set, otherwise the environment default.
func BaseURL(override, sandbox, production string, isProduction bool) string {
	switch {
	case override != "":
		return override
	case isProduction:
		return production
	default:
		return sandbox
	}
}
