// Package metrics exposes Prometheus collectors for the catalog pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "price_adjuster"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Uploads      *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
	Adjustments  *prometheus.CounterVec
	RowsAdjusted prometheus.Counter
	Downloads    *prometheus.CounterVec
	Sweeps       prometheus.Counter
}

// New registers all collectors, plus Go runtime and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Catalog files loaded, by format and outcome.",
		}, []string{"format", "outcome"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent decoding a catalog file.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		Adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_total",
			Help:      "Price adjustments, by outcome.",
		}, []string{"outcome"}),
		RowsAdjusted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_adjusted_total",
			Help:      "Catalog rows that received a new price.",
		}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Updated catalog downloads, by outcome.",
		}, []string{"outcome"}),
		Sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_swept_total",
			Help:      "Expired download artifacts removed.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Uploads,
		m.LoadDuration,
		m.Adjustments,
		m.RowsAdjusted,
		m.Downloads,
		m.Sweeps,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
