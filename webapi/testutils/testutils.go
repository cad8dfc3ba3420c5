// Package testutils builds a fully wired fiber app for route tests. Harness
// runs on in-memory sqlite; E2ETestSuite runs on a postgres container with
// the real migrations.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/paylink/infra/eventbus"
	"github.com/amirasaad/paylink/infra/migrations"
	infrarepo "github.com/amirasaad/paylink/infra/repository"
	"github.com/amirasaad/paylink/internal/testdb"
	"github.com/amirasaad/paylink/pkg/app"
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/provider"
	"github.com/amirasaad/paylink/pkg/repository"
	"github.com/amirasaad/paylink/webapi"
	"github.com/amirasaad/paylink/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is what testdb seeds every account with.
const Password = "password123"

// Config returns an app config suitable for tests.
func Config() *config.App {
	return &config.App{
		Env:       "test",
		Server:    &config.Server{Scheme: "http", Host: "localhost", Port: 3000},
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute, PaymentMaxRequests: 1000},
		PaymentProviders: &config.PaymentProviders{
			HTTPTimeout: 5 * time.Second,
			CallbackURL: "https://api.example.com/api/v1/webhooks",
			RedirectURL: "https://shop.example.com/done",
		},
	}
}

// Harness is a wired app plus handles on its storage and bus.
type Harness struct {
	App      *fiber.App
	Services *app.App
	Uow      repository.UnitOfWork
	Bus      *infraeventbus.MemoryEventBus
	Config   *config.App
}

func newHarness(uow repository.UnitOfWork, cfg *config.App, adapters []provider.Adapter) *Harness {
	bus := infraeventbus.NewWithMemory(slog.Default())
	services := app.New(&app.Deps{
		Uow:       uow,
		Providers: provider.NewSet(adapters...),
		EventBus:  bus,
		Logger:    slog.Default(),
	}, cfg)
	return &Harness{
		App:      webapi.SetupApp(services),
		Services: services,
		Uow:      uow,
		Bus:      bus,
		Config:   cfg,
	}
}

// NewHarness wires the app over a fresh sqlite database.
func NewHarness(t testing.TB, adapters ...provider.Adapter) *Harness {
	t.Helper()
	return NewHarnessWithConfig(t, Config(), adapters...)
}

// NewHarnessWithConfig is NewHarness with a caller-tuned config.
func NewHarnessWithConfig(t testing.TB, cfg *config.App, adapters ...provider.Adapter) *Harness {
	t.Helper()
	uow, _ := testdb.New(t)
	return newHarness(uow, cfg, adapters)
}

// Request sends a JSON request; token may be empty.
func (h *Harness) Request(t testing.TB, method, path, body, token string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := h.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Login posts credentials and returns the issued token.
func (h *Harness) Login(t testing.TB, email string) string {
	t.Helper()
	resp := h.Request(t, http.MethodPost, "/auth/login",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, Password), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

// Decode reads a common.Response and decodes its data into v.
func Decode(t testing.TB, resp *http.Response, v any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env struct {
		common.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	require.NoError(t, json.Unmarshal(env.Data, v), string(raw))
}

// Problem decodes a problem details body.
func Problem(t testing.TB, resp *http.Response) common.ProblemDetails {
	t.Helper()
	var pd common.ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}

// E2ETestSuite runs the wired app on a real Postgres using Testcontainers.
// Suites embed it and set Adapters before SetupSuite runs.
type E2ETestSuite struct {
	suite.Suite
	*Harness
	Adapters    []provider.Adapter
	pgContainer *tcpostgres.PostgresContainer
	db          *gorm.DB
}

// startPostgresContainer starts a Postgres container using Testcontainers
func (s *E2ETestSuite) startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
}

// SetupSuite starts postgres, applies the migrations and wires the app.
func (s *E2ETestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping container-backed suite in -short mode")
	}
	ctx := context.Background()

	pg, err := s.startPostgresContainer(ctx)
	s.Require().NoError(err)
	s.pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	s.Require().NoError(migrations.Up(s.db))

	cfg := Config()
	cfg.DB = &config.DB{Url: dsn}
	s.Harness = newHarness(infrarepo.NewUoW(s.db), cfg, s.Adapters)
}

// TearDownSuite cleans up the test suite resources
func (s *E2ETestSuite) TearDownSuite() {
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}

// Request is Harness.Request bound to the suite's T.
func (s *E2ETestSuite) Request(method, path, body, token string) *http.Response {
	return s.Harness.Request(s.T(), method, path, body, token)
}
