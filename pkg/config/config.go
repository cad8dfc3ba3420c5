package config

import (
	"time"
)

type DB struct {
	Url             string        `envconfig:"URL"`
	MigrateOnStart  bool          `envconfig:"MIGRATE_ON_START" default:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	ConnectTimeout  time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}
type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"paylink"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers     []string `envconfig:"BROKERS" default:"localhost:9092"`
	TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"paylink"`
	GroupID     string   `envconfig:"GROUP_ID" default:"paylink-notifier"`
}

// EventBus selects the side-channel event transport.
type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
	// PaymentMaxRequests caps the public payment endpoint per client.
	PaymentMaxRequests int `envconfig:"PAYMENT_MAX_REQUESTS" default:"20"`
}

// PaymentProviders holds settings shared by every provider adapter.
// Per-country credentials live in the provider_configs table.
type PaymentProviders struct {
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	// CallbackURL is the public base the webhook routes are mounted under,
	// e.g. https://pay.example.com/api/v1/webhooks
	CallbackURL string `envconfig:"CALLBACK_URL" default:"http://localhost:3000/api/v1/webhooks"`
	// RedirectURL is where customers land after a hosted checkout.
	RedirectURL string `envconfig:"REDIRECT_URL" default:"http://localhost:3000/payment/complete"`
}

type SMTP struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"no-reply@paylink.local"`
}

// Enabled reports whether mail should go through SMTP rather than the log.
func (s *SMTP) Enabled() bool {
	return s != nil && s.Host != ""
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[paylink]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	DB               *DB               `envconfig:"DATABASE"`
	Auth             *Auth             `envconfig:"AUTH"`
	Redis            *Redis            `envconfig:"REDIS"`
	Kafka            *Kafka            `envconfig:"KAFKA"`
	EventBus         *EventBus         `envconfig:"EVENTBUS"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
	SMTP             *SMTP             `envconfig:"SMTP"`
}

// IsProduction reports whether APP_ENV is production.
func (a *App) IsProduction() bool {
	return a.Env == "production"
}
