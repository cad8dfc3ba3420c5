// Package initializer turns configuration into live infrastructure.
package initializer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/paylink/infra"
	infraeventbus "github.com/amirasaad/paylink/infra/eventbus"
	"github.com/amirasaad/paylink/infra/migrations"
	"github.com/amirasaad/paylink/infra/notifier"
	"github.com/amirasaad/paylink/infra/provider/cardissuer"
	"github.com/amirasaad/paylink/infra/provider/flutterwave"
	"github.com/amirasaad/paylink/infra/provider/paystack"
	"github.com/amirasaad/paylink/infra/provider/pesapal"
	"github.com/amirasaad/paylink/infra/provider/stripepayment"
	infrarepo "github.com/amirasaad/paylink/infra/repository"
	"github.com/amirasaad/paylink/pkg/app"
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/amirasaad/paylink/pkg/provider"
)

// Event bus drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverKafka  = "kafka"
)

// InitializeDependencies connects to the database, runs migrations when
// enabled and builds the event bus, notifier and provider adapters. The
// returned cleanup closes whatever was opened.
func InitializeDependencies(cfg *config.App) (*app.Deps, func(), error) {
	logger := setupLogger(cfg.Log)
	deps := &app.Deps{Logger: logger}
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, cleanup, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}
	if cfg.DB.MigrateOnStart {
		if err := migrations.Up(db); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("✅ migrations applied")
	}
	deps.Uow = infrarepo.NewUoW(db)

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	if c, ok := bus.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}
	deps.EventBus = bus

	deps.Notifier = notifier.New(cfg.SMTP, logger)
	deps.Providers = initProviders(cfg.PaymentProviders, logger)
	logger.Info("providers registered", "kinds", deps.Providers.Kinds())
	return deps, cleanup, nil
}

// initProviders registers one adapter per supported provider.
func initProviders(cfg *config.PaymentProviders, logger *slog.Logger) *provider.Set {
	timeout := cfg.HTTPTimeout
	return provider.NewSet(
		pesapal.New(timeout, logger),
		paystack.New(timeout, logger),
		flutterwave.New(timeout, logger),
		cardissuer.New(timeout, logger),
		stripepayment.New(timeout, logger),
	)
}

// initEventBus picks the bus named by EVENTBUS_DRIVER. A missing setting
// for an explicit driver is an error; an unreachable broker degrades to
// the in-process async bus so payments keep flowing.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := DriverMemory
	if cfg.EventBus != nil && strings.TrimSpace(cfg.EventBus.Driver) != "" {
		driver = strings.ToLower(strings.TrimSpace(cfg.EventBus.Driver))
	}

	switch driver {
	case DriverMemory:
		return infraeventbus.NewWithMemoryAsync(logger), nil
	case DriverRedis:
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, errors.New("event bus driver redis requires REDIS_URL")
		}
		group := "paylink-notifier"
		if cfg.Kafka != nil && cfg.Kafka.GroupID != "" {
			group = cfg.Kafka.GroupID
		}
		bus, err := infraeventbus.NewWithRedis(cfg.Redis, group, logger)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	case DriverKafka:
		if cfg.Kafka == nil || len(nonEmpty(cfg.Kafka.Brokers)) == 0 {
			return nil, errors.New("event bus driver kafka requires KAFKA_BROKERS")
		}
		bus, err := infraeventbus.NewWithKafka(cfg.Kafka, logger)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	}
	return nil, fmt.Errorf("unknown event bus driver %q", driver)
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
