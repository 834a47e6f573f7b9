// Package metrics exposes Prometheus collectors for window maintenance and
// summary requests.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	events          *prometheus.CounterVec
	windows         prometheus.Gauge
	backfill        *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// MustNewMetrics constructs and registers the collectors on reg. Registration
// errors panic, mirroring promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recap",
			Subsystem: "window",
			Name:      "events_total",
			Help:      "Channel notifications applied to windows, by kind and outcome.",
		}, []string{"event", "outcome"}),
		windows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "recap",
			Subsystem: "window",
			Name:      "active",
			Help:      "Number of channel windows currently held in memory.",
		}),
		backfill: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recap",
			Subsystem: "window",
			Name:      "backfill_duration_seconds",
			Help:      "Time spent building a window from channel history.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recap",
			Subsystem: "summary",
			Name:      "requests_total",
			Help:      "Summary requests, by query shape and outcome.",
		}, []string{"query", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recap",
			Subsystem: "summary",
			Name:      "duration_seconds",
			Help:      "End-to-end latency of summary requests.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"query"}),
	}
	reg.MustRegister(m.events, m.windows, m.backfill, m.requests, m.requestDuration)
	return m
}

func (m *Metrics) Event(event, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) WindowOpened() {
	if m != nil {
		m.windows.Inc()
	}
}

func (m *Metrics) WindowClosed() {
	if m != nil {
		m.windows.Dec()
	}
}

func (m *Metrics) Backfill(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.backfill.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) Request(query, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(query, outcome).Inc()
	m.requestDuration.WithLabelValues(query).Observe(d.Seconds())
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
