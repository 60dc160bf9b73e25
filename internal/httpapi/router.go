package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/platform/metrics"
)

// NewRouter wires all HTTP routes: the public query API, alert management,
// the manual scraping trigger and the operational endpoints.
func NewRouter(
	cars *CarHandler,
	alerts *AlertHandler,
	scraping *ScrapingHandler,
	m *metrics.Manager,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/cars", cars.ListCars)
		api.Get("/cars/brands", cars.GetBrands)
		api.Get("/cars/{id}", cars.GetCar)
		api.Get("/cars/{id}/price-history", cars.GetPriceHistory)

		api.Post("/alerts", alerts.CreateAlert)
		api.Get("/alerts", alerts.ListUserAlerts)
		api.Delete("/alerts/{id}", alerts.DeleteAlert)
		api.Put("/alerts/{id}/active", alerts.SetAlertActive)

		api.Post("/scraping/scrape", scraping.TriggerScrape)
		api.Get("/scraping/runs", scraping.RecentRuns)
		api.Get("/scraping/runs/{id}", scraping.GetRunStatus)
	})

	return r
}
