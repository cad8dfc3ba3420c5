package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue(""))
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "po****able", maskValue("postgres://user:pw@host/db?sslmode=disable"))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret-value")
	t.Setenv("EVENTBUS_DRIVER", "redis")
	t.Setenv("PAYMENT_PROVIDER_HTTP_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "test-secret-value", cfg.Auth.Jwt.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.Jwt.Expiry)
	assert.Equal(t, "redis", cfg.EventBus.Driver)
	assert.Equal(t, 5*time.Second, cfg.PaymentProviders.HTTPTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.SMTP.Enabled())
	assert.True(t, cfg.DB.MigrateOnStart)
}

func TestLoad_RequiresJwtSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "placeholder")
	require.NoError(t, os.Unsetenv("AUTH_JWT_SECRET"))
	_, err := Load("does-not-exist.env")
	assert.Error(t, err)
}

func TestFindEnvFile(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.paylinktest"), []byte("X=1\n"), 0o600))
	t.Chdir(nested)

	found, err := FindEnvFile(".env.paylinktest")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".env.paylinktest"), found)

	_, err = FindEnvFile(".env.missing-for-sure")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown event bus driver", "EVENTBUS_DRIVER", "nats"},
		{"zero payment rate limit", "RATE_LIMIT_PAYMENT_MAX_REQUESTS", "0"},
		{"negative provider timeout", "PAYMENT_PROVIDER_HTTP_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "test-secret-value")
			t.Setenv(tt.key, tt.val)
			_, err := Load("does-not-exist.env")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_NormalizesDriver(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret-value")
	t.Setenv("EVENTBUS_DRIVER", " Kafka ")
	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "kafka", cfg.EventBus.Driver)
}
