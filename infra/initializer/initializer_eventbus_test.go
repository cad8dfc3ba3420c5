package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/paylink/infra/eventbus"
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEventBus_DefaultsToMemoryAsync(t *testing.T) {
	for _, driver := range []string{"", "memory", " Memory "} {
		bus, err := initEventBus(&config.App{
			Redis:    &config.Redis{URL: "redis://localhost:6379/0"},
			EventBus: &config.EventBus{Driver: driver},
		}, discard())
		require.NoError(t, err)
		require.IsType(t, &infraeventbus.MemoryAsyncEventBus{}, bus)
	}

	bus, err := initEventBus(&config.App{}, discard())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_ExplicitRedisRequiresURL(t *testing.T) {
	_, err := initEventBus(&config.App{
		Redis:    &config.Redis{URL: ""},
		EventBus: &config.EventBus{Driver: "redis"},
	}, discard())
	require.Error(t, err)
}

func TestInitEventBus_RedisConnectionErrorFallsBackToMemoryAsync(t *testing.T) {
	bus, err := initEventBus(&config.App{
		Redis:    &config.Redis{URL: "redis://127.0.0.1:1/0", DialTimeout: 100 * time.Millisecond},
		EventBus: &config.EventBus{Driver: "redis"},
	}, discard())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_ExplicitKafkaRequiresBrokers(t *testing.T) {
	_, err := initEventBus(&config.App{
		Kafka:    &config.Kafka{Brokers: []string{" "}},
		EventBus: &config.EventBus{Driver: "kafka"},
	}, discard())
	require.Error(t, err)
}

func TestInitEventBus_KafkaConnectionErrorFallsBackToMemoryAsync(t *testing.T) {
	bus, err := initEventBus(&config.App{
		Kafka:    &config.Kafka{Brokers: []string{"127.0.0.1:1"}},
		EventBus: &config.EventBus{Driver: "kafka"},
	}, discard())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_UnknownDriver(t *testing.T) {
	_, err := initEventBus(&config.App{EventBus: &config.EventBus{Driver: "nats"}}, discard())
	require.Error(t, err)
}

func TestInitProviders_RegistersEveryKind(t *testing.T) {
	set := initProviders(&config.PaymentProviders{HTTPTimeout: time.Second}, discard())
	assert.ElementsMatch(t, []provider.Kind{
		provider.CardIssuer, provider.Flutterwave, provider.Paystack, provider.Pesapal, provider.Stripe,
	}, set.Kinds())
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[paylink]"})
	logger.Info("hello", "transaction_id", "abc")
	assert.Contains(t, buf.String(), `"transaction_id":"abc"`)
	assert.Contains(t, buf.String(), "hello")
}
