package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector tracks ledger activity on a private registry so tests
// can build as many collectors as they need without registration clashes.
type MetricsCollector struct {
	registry         *prometheus.Registry
	operationsTotal  *prometheus.CounterVec
	operationsFailed *prometheus.CounterVec
	amountMoved      prometheus.Histogram
	openAccounts     prometheus.Gauge
	activeLoans      prometheus.Gauge
	logger           *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	return &MetricsCollector{
		registry: registry,
		operationsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Completed ledger operations by kind",
		}, []string{"operation"}),
		operationsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_failed_total",
			Help: "Rejected or failed ledger operations by kind",
		}, []string{"operation"}),
		amountMoved: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_amount_moved",
			Help:    "Distribution of deposit, withdrawal and loan payment amounts",
			Buckets: prometheus.ExponentialBuckets(10, 10, 7),
		}),
		openAccounts: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "ledger_open_accounts",
			Help: "Accounts currently held by the directory",
		}),
		activeLoans: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "ledger_active_loans",
			Help: "Loans currently held by the directory",
		}),
		logger: logger,
	}
}

// RecordOperation counts one ledger operation and, when it moved money,
// observes the amount.
func (m *MetricsCollector) RecordOperation(operation string, amount float64, success bool) {
	if success {
		m.operationsTotal.WithLabelValues(operation).Inc()
		if amount > 0 {
			m.amountMoved.Observe(amount)
		}
	} else {
		m.operationsFailed.WithLabelValues(operation).Inc()
	}
}

// SetDirectorySizes updates the account and loan gauges.
func (m *MetricsCollector) SetDirectorySizes(accounts, loans int) {
	m.openAccounts.Set(float64(accounts))
	m.activeLoans.Set(float64(loans))
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
