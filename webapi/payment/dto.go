package payment

import (
	"github.com/amirasaad/paylink/pkg/domain/transaction"
	txweb "github.com/amirasaad/paylink/webapi/transaction"
	"github.com/shopspring/decimal"
)

// InitiateInput is the body of POST /api/v1/payments. Amount accepts a JSON
// number or a decimal string.
type InitiateInput struct {
	MerchantID    string          `json:"merchant_id" validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=card mobile_money bank_transfer"`
	Description   string          `json:"description" validate:"max=255"`
	RedirectURL   string          `json:"redirect_url" validate:"omitempty,url"`
	Customer      CustomerInput   `json:"customer"`
}

// CustomerInput identifies the payer.
type CustomerInput struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
	Name  string `json:"name" validate:"max=120"`
}

// InitiateResponse tells the payer how to continue.
type InitiateResponse struct {
	Transaction  txweb.Response `json:"transaction"`
	RedirectURL  string         `json:"redirect_url,omitempty"`
	Instructions string         `json:"instructions,omitempty"`
}

func method(s string) transaction.Method { return transaction.Method(s) }
