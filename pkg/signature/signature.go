// Package signature authenticates inbound provider notifications. Every
// verifier answers a bare bool: callers learn nothing about which check
// failed.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// Verifier checks a raw notification against a configured secret.
type Verifier interface {
	Verify(body []byte, header http.Header, secret string) bool
}

// SharedSecretHeader accepts when a header equals the secret.
type SharedSecretHeader struct {
	Header string
}

// Verify compares in constant time. Empty secret or header rejects.
func (v SharedSecretHeader) Verify(_ []byte, header http.Header, secret string) bool {
	got := header.Get(v.Header)
	if secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}

// Algorithm is the HMAC digest.
type Algorithm string

// Supported digests.
const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// HMAC accepts when a header carries the hex HMAC of the raw body.
type HMAC struct {
	Header    string
	Algorithm Algorithm
}

// Verify recomputes the digest over body.
func (v HMAC) Verify(body []byte, header http.Header, secret string) bool {
	got := strings.TrimSpace(header.Get(v.Header))
	if secret == "" || got == "" {
		return false
	}
	var h func() hash.Hash
	switch v.Algorithm {
	case SHA256:
		h = sha256.New
	case SHA512:
		h = sha512.New
	default:
		return false
	}
	provided, err := hex.DecodeString(strings.ToLower(got))
	if err != nil {
		return false
	}
	return hmac.Equal(provided, Sign(h, body, secret))
}

// Sign computes the HMAC of body.
func Sign(h func() hash.Hash, body []byte, secret string) []byte {
	mac := hmac.New(h, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignHex is Sign for the named algorithm, hex encoded. Tests and fake
// providers use it to produce valid signatures.
func SignHex(alg Algorithm, body []byte, secret string) string {
	h := sha256.New
	if alg == SHA512 {
		h = sha512.New
	}
	return hex.EncodeToString(Sign(h, body, secret))
}

// StripeSignature checks the Stripe-Signature header with the stripe SDK.
type StripeSignature struct {
	Tolerance time.Duration
}

// Verify validates the timestamp and v1 signature.
func (v StripeSignature) Verify(body []byte, header http.Header, secret string) bool {
	sig := header.Get("Stripe-Signature")
	if secret == "" || sig == "" {
		return false
	}
	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return webhook.ValidatePayloadWithTolerance(body, sig, secret, tolerance) == nil
}
