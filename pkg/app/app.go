package app

import (
	"log/slog"

	"github.com/amirasaad/paylink/infra/notifier"
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/pkg/service/auth"
	"github.com/amirasaad/paylink/pkg/service/notification"
	"github.com/amirasaad/paylink/pkg/service/payment"
	"github.com/amirasaad/paylink/pkg/service/providerconfig"
	"github.com/amirasaad/paylink/pkg/service/reconciliation"
	"github.com/amirasaad/paylink/pkg/service/transaction"
	"github.com/amirasaad/paylink/pkg/service/webhook"
	"github.com/amirasaad/paylink/pkg/service/withdrawal"
)

// Deps contains the infrastructure every service is built from.
type Deps struct {
	Uow       repository.UnitOfWork
	Providers *provider.Set
	EventBus  eventbus.Bus
	Notifier  notifier.Notifier
	Logger    *slog.Logger
}

// App is the wired service graph the webapi serves.
type App struct {
	Deps                  *Deps
	Config                *config.App
	AuthService           *auth.Service
	ReconciliationService *reconciliation.Service
	PaymentService        *payment.Service
	WithdrawalService     *withdrawal.Service
	WebhookService        *webhook.Service
	TransactionService    *transaction.Service
	ProviderConfigService *providerconfig.Service
	Notifications         *notification.Subscriber
}

// New builds every service and registers the event subscribers.
func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	recon := reconciliation.New(deps.Uow, deps.Providers, deps.EventBus, deps.Logger)
	app.ReconciliationService = recon
	app.AuthService = auth.NewWithJWT(deps.Uow, cfg.Auth.Jwt, deps.Logger)
	app.PaymentService = payment.New(deps.Uow, deps.Providers, recon, deps.EventBus, cfg.PaymentProviders, deps.Logger)
	app.WithdrawalService = withdrawal.New(deps.Uow, deps.Providers, recon, deps.EventBus, cfg.PaymentProviders, deps.Logger)
	app.WebhookService = webhook.New(deps.Uow, deps.Providers, recon, deps.Logger)
	app.TransactionService = transaction.New(deps.Uow, deps.Logger)
	app.ProviderConfigService = providerconfig.New(deps.Uow, deps.Providers, deps.EventBus, deps.Logger)
	app.setupEventBus()
	return app
}
