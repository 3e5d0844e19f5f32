package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shipquote-backend/api/controllers"
	"github.com/angelmondragon/shipquote-backend/api/middleware"
	"github.com/angelmondragon/shipquote-backend/internal/catalog"
	ordersvc "github.com/angelmondragon/shipquote-backend/internal/orders"
	"github.com/angelmondragon/shipquote-backend/internal/packages"
	provisioningsvc "github.com/angelmondragon/shipquote-backend/internal/provisioning"
	"github.com/angelmondragon/shipquote-backend/internal/quotes"
	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/redis"
	"github.com/angelmondragon/shipquote-backend/pkg/remote"
	"github.com/angelmondragon/shipquote-backend/pkg/session"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     redis.Pinger
	RedisPinger  redis.Pinger
	Sessions     *session.Store
	Assembler    *packages.Assembler
	Quotes       *quotes.Service
	Orders       *ordersvc.Enricher
	Provisioning *provisioningsvc.Service
	Catalog      *catalog.Repository
	Remote       *remote.Client
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/shipping", func(r chi.Router) {
			r.Post("/calculate", controllers.CalculateRates(deps.Assembler, deps.Quotes, deps.Sessions, cfg.Session, logg))
			r.With(middleware.OptionToken(cfg.Session, logg)).
				Post("/options", controllers.UpdateShippingOption(deps.Sessions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/package-payload", controllers.OrderPackagePayload(deps.Orders, logg))
		})

		r.Route("/provisioning", func(r chi.Router) {
			r.Post("/validate-credentials", controllers.ValidateCredentials(deps.Provisioning, deps.Remote, logg))
			r.Post("/install", controllers.Install(deps.Provisioning, logg))
			r.Post("/update", controllers.Update(deps.Provisioning, logg))
			r.Post("/uninstall", controllers.Uninstall(deps.Provisioning, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/incomplete", controllers.CatalogIncomplete(deps.Catalog, logg))
		})
	})

	return r
}
