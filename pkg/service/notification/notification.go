// Package notification mails merchants about their transactions. It only
// listens on the event bus; a failed mail never affects reconciliation.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/paylink/infra/notifier"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/repository"
)

// Subscriber turns transaction events into merchant mail.
type Subscriber struct {
	uow      repository.UnitOfWork
	notifier notifier.Notifier
	logger   *slog.Logger
}

// New creates a Subscriber.
func New(uow repository.UnitOfWork, n notifier.Notifier, logger *slog.Logger) *Subscriber {
	return &Subscriber{uow: uow, notifier: n, logger: logger.With("service", "notification")}
}

// Register subscribes to the events merchants hear about.
func (s *Subscriber) Register(bus eventbus.Bus) {
	for _, t := range []events.EventType{
		events.EventTypeTransactionCompleted,
		events.EventTypeTransactionFailed,
		events.EventTypeWithdrawalRequested,
	} {
		bus.Register(t.String(), s.Handle)
	}
}

// Handle sends one mail for evt. Other event types are ignored.
func (s *Subscriber) Handle(ctx context.Context, evt events.Event) error {
	var (
		te     events.TransactionEvent
		reason string
	)
	switch e := evt.(type) {
	case *events.TransactionCompleted:
		te = e.TransactionEvent
	case *events.TransactionFailed:
		te, reason = e.TransactionEvent, e.Reason
	case *events.WithdrawalRequested:
		te = e.TransactionEvent
	default:
		return nil
	}

	merchants, err := repository.Merchants(s.uow)
	if err != nil {
		return err
	}
	m, err := merchants.Get(ctx, te.UserID)
	if err != nil {
		return fmt.Errorf("notification for %s: %w", te.TransactionID, err)
	}

	body, err := notifier.RenderTransaction(notifier.TransactionMailData{
		Name:          m.Name,
		Kind:          te.Kind,
		Amount:        te.Amount.StringFixed(2),
		Currency:      te.Currency,
		Provider:      te.Provider,
		Status:        te.Status,
		Reason:        reason,
		Reference:     te.Reference,
		TransactionID: te.TransactionID.String(),
	})
	if err != nil {
		return err
	}
	msg := notifier.Message{
		To:      m.Email,
		Subject: fmt.Sprintf("Your %s is %s", te.Kind, te.Status),
		Body:    body,
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("mail not sent", "transaction_id", te.TransactionID, "error", err)
		return err
	}
	s.logger.Debug("mail sent", "transaction_id", te.TransactionID, "type", evt.Type())
	return nil
}
