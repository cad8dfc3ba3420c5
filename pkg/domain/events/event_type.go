package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	EventTypePaymentInitiated      EventType = "Payment.Initiated"
	EventTypeWithdrawalRequested   EventType = "Withdrawal.Requested"
	EventTypeTransactionCompleted  EventType = "Transaction.Completed"
	EventTypeTransactionFailed     EventType = "Transaction.Failed"
	EventTypeProviderConfigChanged EventType = "ProviderConfig.Changed"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
}
