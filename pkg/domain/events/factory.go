package events

// Factories maps an event type to a constructor of its empty value. Remote
// buses use it to decode payloads back into concrete events.
func Factories() map[string]func() Event {
	return map[string]func() Event{
		EventTypePaymentInitiated.String():      func() Event { return &PaymentInitiated{} },
		EventTypeWithdrawalRequested.String():   func() Event { return &WithdrawalRequested{} },
		EventTypeTransactionCompleted.String():  func() Event { return &TransactionCompleted{} },
		EventTypeTransactionFailed.String():     func() Event { return &TransactionFailed{} },
		EventTypeProviderConfigChanged.String(): func() Event { return &ProviderConfigChanged{} },
	}
}
