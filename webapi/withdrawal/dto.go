package withdrawal

import (
	txweb "github.com/amirasaad/paylink/webapi/transaction"
	"github.com/shopspring/decimal"
)

// RequestInput is the body of POST /api/v1/withdrawals.
type RequestInput struct {
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency" validate:"required,len=3"`
	AccountType string           `json:"account_type" validate:"required,oneof=mobile bank"`
	Destination DestinationInput `json:"destination"`
	Description string           `json:"description" validate:"max=255"`
}

// DestinationInput is where the payout lands. Mobile payouts need a phone;
// bank payouts are issued as a virtual card to the named holder.
type DestinationInput struct {
	Phone         string `json:"phone" validate:"omitempty,e164"`
	AccountNumber string `json:"account_number" validate:"max=34"`
	BankCode      string `json:"bank_code" validate:"max=20"`
	Name          string `json:"name" validate:"max=120"`
}

// RequestResponse reports the recorded withdrawal.
type RequestResponse struct {
	Transaction  txweb.Response `json:"transaction"`
	Instructions string         `json:"instructions,omitempty"`
}
