// Package app wires services together and attaches the event subscribers.
package app

import (
	"context"

	"github.com/amirasaad/paylink/infra/notifier"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/service/notification"
)

// setupEventBus registers the side-channel subscribers. Nothing here may
// feed back into reconciliation.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	n := a.Deps.Notifier
	if n == nil {
		n = notifier.NewLogNotifier(a.Deps.Logger)
	}
	a.Notifications = notification.New(a.Deps.Uow, n, a.Deps.Logger)
	a.Notifications.Register(bus)

	logger := a.Deps.Logger.With("subscriber", "audit")
	bus.Register(events.EventTypeProviderConfigChanged.String(), func(_ context.Context, evt events.Event) error {
		if e, ok := evt.(*events.ProviderConfigChanged); ok {
			logger.Info("provider config changed",
				"config_id", e.ConfigID, "action", e.Action,
				"provider", e.Provider, "country", e.CountryCode)
		}
		return nil
	})
	logger.Debug("event subscribers registered")
}
