// Package metrics exposes Prometheus counters for check cycles and
// notification delivery. A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

const namespace = "apartment_watcher"

// Recorder holds the cycle and delivery metrics.
type Recorder struct {
	registry *prometheus.Registry

	CyclesTotal         *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	ListingsFound       prometheus.Gauge
	ListingsFiltered    prometheus.Gauge
	NovelListingsTotal  prometheus.Counter
	LastCheckIndex      prometheus.Gauge
	LastSuccessUnixTime prometheus.Gauge
	DeliveriesTotal     *prometheus.CounterVec
}

// NewRecorder creates a Recorder on its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Check cycles by outcome",
		}, []string{"status"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a check cycle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~2min
		}),
		ListingsFound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_found",
			Help:      "Listings extracted in the last successful cycle",
		}),
		ListingsFiltered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_filtered",
			Help:      "Listings passing the location filter in the last successful cycle",
		}),
		NovelListingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "novel_listings_total",
			Help:      "Listings seen for the first time",
		}),
		LastCheckIndex: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_check_index",
			Help:      "Index of the last committed cycle",
		}),
		LastSuccessUnixTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed cycle",
		}),
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_deliveries_total",
			Help:      "Telegram messages by kind and outcome",
		}, []string{"kind", "status"}),
	}
}

// CycleFinished records a cycle outcome. err is the cycle error, if any.
func (r *Recorder) CycleFinished(report *models.CycleReport, err error, took time.Duration) {
	if r == nil {
		return
	}
	r.CycleDuration.Observe(took.Seconds())
	if err != nil {
		r.CyclesTotal.WithLabelValues("failed").Inc()
		return
	}
	r.CyclesTotal.WithLabelValues("success").Inc()
	r.ListingsFound.Set(float64(report.TotalFound))
	r.ListingsFiltered.Set(float64(report.TotalFiltered))
	r.NovelListingsTotal.Add(float64(report.NovelCount()))
	r.LastCheckIndex.Set(float64(report.CheckIndex))
	r.LastSuccessUnixTime.Set(float64(report.FinishedAt.Unix()))
}

// Delivery records one message to one recipient.
func (r *Recorder) Delivery(kind string, ok bool) {
	if r == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	r.DeliveriesTotal.WithLabelValues(kind, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *utils.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("[metrics] Serving Prometheus metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
