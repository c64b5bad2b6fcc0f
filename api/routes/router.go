package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarlane/bazaarlane-backend/api/controllers"
	ordercontrollers "github.com/bazaarlane/bazaarlane-backend/api/controllers/orders"
	payoutcontrollers "github.com/bazaarlane/bazaarlane-backend/api/controllers/payouts"
	"github.com/bazaarlane/bazaarlane-backend/api/middleware"
	"github.com/bazaarlane/bazaarlane-backend/internal/orders"
	"github.com/bazaarlane/bazaarlane-backend/internal/payoutmethods"
	"github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	"github.com/bazaarlane/bazaarlane-backend/internal/shipping"
	"github.com/bazaarlane/bazaarlane-backend/pkg/config"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
	"github.com/bazaarlane/bazaarlane-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Orders        orders.Service
	Shipping      shipping.Service
	PayoutMethods payoutmethods.Service
	PayoutEngine  *payouts.Engine
	PayoutRecords payouts.Repository
}

// NewRouter assembles the full route tree.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	// Scheduler endpoint: gated by the shared payout key, not a bearer token.
	r.Post("/api/v1/payouts/run", payoutcontrollers.RunReconciliation(params.PayoutEngine, cfg.Payouts.SecretKey, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(params.Orders, logg))
			r.Patch("/status", ordercontrollers.UpdateStatus(params.Orders, logg))
			r.Patch("/shipping", ordercontrollers.UpdateShipping(params.Shipping, logg))
			r.Patch("/expected-delivery", ordercontrollers.UpdateExpectedDelivery(params.Shipping, logg))
			r.Post("/confirm-cod", ordercontrollers.ConfirmCOD(params.Orders, logg))
		})

		r.Route("/payout-methods", func(r chi.Router) {
			r.Get("/", payoutcontrollers.ListMethods(params.PayoutMethods, logg))
			r.Post("/", payoutcontrollers.AddMethod(params.PayoutMethods, logg))
			r.Patch("/{methodId}/activate", payoutcontrollers.SetActiveMethod(params.PayoutMethods, logg))
			r.Delete("/{methodId}", payoutcontrollers.DeleteMethod(params.PayoutMethods, logg))
		})

		r.Get("/payouts/records", payoutcontrollers.ListRecords(params.PayoutRecords, logg))
	})

	return r
}
