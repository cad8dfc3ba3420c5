package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/amirasaad/paylink/pkg/domain"
)

const (
	redactedMarker  = "[REDACTED]"
	maxDetailLength = 256
)

// Error is an upstream failure: a non-2xx answer, a timeout or an
// unreadable body. It always unwraps to domain.ErrProviderUnavailable.
// Rejected marks answers in which the provider explicitly refused the
// request, even when they arrived with a 2xx status.
type Error struct {
	Provider   Kind
	StatusCode int
	Detail     string
	Rejected   bool
	Err        error
}

// NewError builds an Error whose detail has every secret removed.
func NewError(kind Kind, status int, detail string, cause error, secrets ...string) *Error {
	return &Error{
		Provider:   kind,
		StatusCode: status,
		Detail:     Redact(detail, secrets...),
		Err:        cause,
	}
}

// NewRejection builds an Error for a request the provider refused.
func NewRejection(kind Kind, status int, detail string, secrets ...string) *Error {
	e := NewError(kind, status, detail, nil, secrets...)
	e.Rejected = true
	return e
}

// IsAmbiguous reports whether err leaves the upstream outcome unknown: a
// transport failure or timeout, a 5xx, or a 2xx whose body could not be
// read. The provider may have acted on such a request. Explicit rejections,
// 4xx answers and errors raised before anything was sent are definitive.
func IsAmbiguous(err error) bool {
	var perr *Error
	if !errors.As(err, &perr) || perr.Rejected {
		return false
	}
	switch {
	case perr.StatusCode == http.StatusRequestTimeout:
		return true
	case perr.StatusCode >= 400 && perr.StatusCode < 500:
		return false
	}
	return true
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: upstream returned %d: %s", e.Provider, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Detail)
}

// Unwrap exposes the cause when present, and the provider-unavailable class.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrProviderUnavailable, e.Err}
	}
	return []error{domain.ErrProviderUnavailable}
}

// Redact replaces every occurrence of each secret with a marker and caps
// the result length.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redactedMarker)
	}
	s = strings.TrimSpace(s)
	if len(s) > maxDetailLength {
		cut := maxDetailLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
