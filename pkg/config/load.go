package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var eventBusDrivers = []string{"memory", "redis", "kafka"}

// Load populates the process environment from the first env file found
// among envFiles (each searched upward from the working directory, an
// empty list meaning .env) and then decodes App from the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*App, error) {
	logger := slog.Default()
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if path, ok := firstEnvFile(envFiles); ok {
		if err := godotenv.Load(path); err != nil {
			logger.Warn("env file unreadable, using process environment", "path", path, "error", err)
		} else {
			logger.Info("Loaded environment file", "path", path)
		}
	} else {
		logger.Debug("No env file found, using process environment", "candidates", envFiles)
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"auth_jwt_secret", maskValue(cfg.Auth.Jwt.Secret),
		"auth_jwt_expiry", cfg.Auth.Jwt.Expiry,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_payment_max_requests", cfg.RateLimit.PaymentMaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"eventbus_driver", cfg.EventBus.Driver,
		"provider_http_timeout", cfg.PaymentProviders.HTTPTimeout,
		"provider_callback_url", cfg.PaymentProviders.CallbackURL,
		"smtp_host", cfg.SMTP.Host,
		"smtp_password", maskValue(cfg.SMTP.Password),
	)
	return &cfg, nil
}

// validate rejects settings envconfig cannot express as tags.
func (a *App) validate() error {
	var errs []error
	if a.Env == "" {
		a.Env = "development"
	}
	a.EventBus.Driver = strings.ToLower(strings.TrimSpace(a.EventBus.Driver))
	if !contains(eventBusDrivers, a.EventBus.Driver) {
		errs = append(errs, fmt.Errorf("EVENTBUS_DRIVER must be one of %s, got %q",
			strings.Join(eventBusDrivers, "|"), a.EventBus.Driver))
	}
	if a.RateLimit.MaxRequests <= 0 || a.RateLimit.PaymentMaxRequests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS and RATE_LIMIT_PAYMENT_MAX_REQUESTS must be positive"))
	}
	if a.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if a.Auth.Jwt.Expiry <= 0 {
		errs = append(errs, errors.New("AUTH_JWT_EXPIRY must be positive"))
	}
	if a.PaymentProviders.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_PROVIDER_HTTP_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func firstEnvFile(candidates []string) (string, bool) {
	for _, name := range candidates {
		if path, err := FindEnvFile(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// FindEnvFile walks up from the working directory looking for filename.
// An empty filename means .env.
func FindEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
