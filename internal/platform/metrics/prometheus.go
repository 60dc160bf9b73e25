package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Manager holds the service's Prometheus metrics on its own registry.
type Manager struct {
	Registry *prometheus.Registry

	ListingsCreatedTotal  prometheus.Counter
	ListingsUpdatedTotal  prometheus.Counter
	PriceChangesTotal     prometheus.Counter
	ScrapeRunsTotal       *prometheus.CounterVec // labels: source, status
	ScrapeDurationSeconds *prometheus.HistogramVec
	ScrapeItemErrorsTotal *prometheus.CounterVec
	AlertsEvaluatedTotal  prometheus.Counter
	AlertsNotifiedTotal   prometheus.Counter
	NotifyFailuresTotal   prometheus.Counter
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Listings created on first sighting.",
		}),
		ListingsUpdatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_updated_total",
			Help:      "Listings updated on re-sighting.",
		}),
		PriceChangesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_changes_total",
			Help:      "Observed price changes across all sources.",
		}),
		ScrapeRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_runs_total",
			Help:      "Scrape runs by source and terminal status.",
		}, []string{"source", "status"}),
		ScrapeDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scrape_duration_seconds",
			Help:      "Duration of a whole scrape run per source.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		ScrapeItemErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_item_errors_total",
			Help:      "Items skipped during ingestion because persisting them failed.",
		}, []string{"source"}),
		AlertsEvaluatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_evaluated_total",
			Help:      "Alerts considered during evaluation cycles.",
		}),
		AlertsNotifiedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_notified_total",
			Help:      "Alerts that resulted in an acknowledged notification.",
		}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Notification deliveries that failed and will be retried.",
		}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingsUpdatedTotal,
		m.PriceChangesTotal,
		m.ScrapeRunsTotal,
		m.ScrapeDurationSeconds,
		m.ScrapeItemErrorsTotal,
		m.AlertsEvaluatedTotal,
		m.AlertsNotifiedTotal,
		m.NotifyFailuresTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}
