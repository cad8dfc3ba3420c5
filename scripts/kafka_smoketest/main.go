package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	infraeventbus "github.com/amirasaad/paylink/infra/eventbus"
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// RunSmokeTest round-trips a TransactionCompleted event through the kafka
// event bus to verify a local cluster before switching EVENTBUS_DRIVER.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_ = godotenv.Load()
	var kcfg config.Kafka
	if err := envconfig.Process("KAFKA", &kcfg); err != nil {
		logger.Error("config load failed", "error", err)
		return err
	}
	if brokers := strings.TrimSpace(os.Getenv("BROKERS")); brokers != "" {
		kcfg.Brokers = strings.Split(brokers, ",")
	}
	// A fresh group so earlier runs' offsets never hide the message.
	kcfg.GroupID = "paylink-smoketest-" + uuid.NewString()[:8]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eventType := events.EventTypeTransactionCompleted.String()
	{
		dialer := &kafka.Dialer{Timeout: 5 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", kcfg.Brokers[0])
		if err != nil {
			logger.Error("dial failed", "error", err)
			return err
		}
		defer func() { _ = conn.Close() }()
		topic := infraeventbus.TopicName(kcfg.TopicPrefix, eventType)
		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
			logger.Error("create topic failed", "topic", topic, "error", err)
			return err
		}
		logger.Info("topic ready", "topic", topic)
	}

	bus, err := infraeventbus.NewWithKafka(&kcfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := uuid.New()
	got := make(chan uuid.UUID, 1)
	bus.Register(eventType, func(_ context.Context, evt events.Event) error {
		if e, ok := evt.(*events.TransactionCompleted); ok && e.TransactionID == want {
			select {
			case got <- e.TransactionID:
			default:
			}
		}
		return nil
	})

	err = bus.Emit(ctx, &events.TransactionCompleted{TransactionEvent: events.TransactionEvent{
		ID:            uuid.New(),
		TransactionID: want,
		UserID:        uuid.New(),
		Kind:          "payment",
		Provider:      "smoketest",
		Reference:     "smoke-" + want.String()[:8],
		Amount:        decimal.RequireFromString("1.00"),
		Currency:      "USD",
		Status:        "completed",
		Timestamp:     time.Now().UTC(),
	}})
	if err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "transaction_id", want)

	select {
	case id := <-got:
		logger.Info("consumed", "transaction_id", id)
	case <-ctx.Done():
		logger.Error("timed out waiting for event", "transaction_id", want)
		return ctx.Err()
	}

	logger.Info("kafka smoke test passed")
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
