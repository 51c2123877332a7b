package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/posterops/poster-bridge/api/controllers"
	webhookcontrollers "github.com/posterops/poster-bridge/api/controllers/webhooks"
	"github.com/posterops/poster-bridge/api/middleware"
	"github.com/posterops/poster-bridge/api/responses"
	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/internal/transactions"
	"github.com/posterops/poster-bridge/pkg/config"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/metrics"
	"github.com/posterops/poster-bridge/pkg/secrets"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	creds *secrets.Bundle,
	webhookService webhookcontrollers.PosterWebhookService,
	transactionService transactions.Service,
	catalogService catalog.Service,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
) http.Handler {
	if creds == nil {
		creds = &secrets.Bundle{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	// Set before the subrouters are mounted so they inherit the JSON
	// fallbacks instead of chi's plain-text defaults.
	r.NotFound(writeRoutingError(logg, pkgerrors.CodeNotFound, "route not found"))
	r.MethodNotAllowed(writeRoutingError(logg, pkgerrors.CodeMethodNotAllowed, "method not allowed"))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.WebhookKey(creds.WebhookAPIKey, logg)).
			Post("/webhooks/poster", webhookcontrollers.PosterWebhook(webhookService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.QueryToken(creds.QueryToken, logg))
			r.Get("/transactions", controllers.TransactionsList(transactionService, logg))
			r.Get("/transactions/sync", controllers.TransactionsSync(transactionService, logg))
			r.Get("/catalog", controllers.CatalogItems(catalogService, logg))
		})
	})

	return r
}

func writeRoutingError(logg *logger.Logger, code pkgerrors.Code, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(code, message))
	}
}
