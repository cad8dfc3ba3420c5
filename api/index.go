// Package handler serves the API as a single serverless function.
package handler

import (
	"log"
	"net/http"
	"sync"

	"github.com/amirasaad/paylink/infra/initializer"
	"github.com/amirasaad/paylink/pkg/app"
	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	once sync.Once
	h    http.HandlerFunc
)

// Handler is the main entry point of the application.
// Think of it like the main() method
func Handler(w http.ResponseWriter, r *http.Request) {
	// This is needed to set the proper request path in `*fiber.Ctx`
	r.RequestURI = r.URL.String()

	once.Do(func() { h = handler() })
	h.ServeHTTP(w, r)
}

// handler builds the fiber application once per cold start. Warm
// invocations reuse the pool and bus.
func handler() http.HandlerFunc {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	// Migrations belong to the deploy step, not to every cold start.
	cfg.DB.MigrateOnStart = false
	deps, _, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		log.Fatal(err)
	}
	return adaptor.FiberApp(webapi.SetupApp(app.New(deps, cfg)))
}
