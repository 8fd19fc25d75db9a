package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-checkout/api/controllers"
	checkoutcontrollers "github.com/angelmondragon/storefront-checkout/api/controllers/checkout"
	"github.com/angelmondragon/storefront-checkout/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/pkg/config"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
)

// Dependencies groups what the HTTP surface needs from the rest of the service.
type Dependencies struct {
	DB              controllers.Pinger
	Redis           controllers.Pinger
	Idempotency     redis.IdempotencyStore
	CheckoutService checkoutsvc.Service
	Resolver        checkoutsvc.ShippingResolver
	Metrics         http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Post("/rebalance", checkoutcontrollers.Rebalance(logg))
		r.Post("/resolve", checkoutcontrollers.Resolve(deps.Resolver, logg))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", checkoutcontrollers.StartSession(deps.CheckoutService, logg))

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Use(middleware.SessionContext(logg))
				r.Get("/", checkoutcontrollers.GetSession(deps.CheckoutService, logg))
				r.Delete("/", checkoutcontrollers.CancelSession(deps.CheckoutService, logg))
				r.Put("/shipping", checkoutcontrollers.UpdateShipping(deps.CheckoutService, logg))
				r.Put("/instruments/{type}", checkoutcontrollers.UpdateInstrument(deps.CheckoutService, logg))
				r.Put("/billing-address", checkoutcontrollers.UpdateBillingAddress(deps.CheckoutService, logg))
				r.Post("/advance", checkoutcontrollers.Advance(deps.CheckoutService, logg))
				r.Post("/back", checkoutcontrollers.Back(deps.CheckoutService, logg))
			})
		})
	})

	return r
}
