package transaction

import (
	"time"

	"github.com/amirasaad/paylink/pkg/domain/transaction"
	"github.com/google/uuid"
)

// Response is the public view of a transaction.
type Response struct {
	ID            uuid.UUID      `json:"id"`
	Type          string         `json:"type"`
	Amount        string         `json:"amount"`
	Currency      string         `json:"currency"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	Provider      string         `json:"provider"`
	CountryCode   string         `json:"country_code"`
	Reference     string         `json:"reference,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	FailedAt      *time.Time     `json:"failed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ToResponse maps a domain transaction. Amounts are decimal strings so no
// client parses money as a float.
func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:            tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount.StringFixed(2),
		Currency:      tx.Currency.String(),
		Status:        string(tx.Status),
		PaymentMethod: string(tx.PaymentMethod),
		Provider:      tx.Provider,
		CountryCode:   tx.CountryCode,
		Reference:     tx.Reference,
		Metadata:      tx.Metadata,
		CompletedAt:   tx.CompletedAt,
		FailedAt:      tx.FailedAt,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

// ToResponses maps a page of transactions.
func ToResponses(txs []*transaction.Transaction) []Response {
	out := make([]Response, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToResponse(tx))
	}
	return out
}
