// Package monitoring exposes Prometheus metrics for the path registry and
// the batch pipeline.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// Path registry metrics
	PathLookups        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	DirectoriesEnsured prometheus.Counter
	ProvisionFailures  prometheus.Counter
	RegistryEntries    prometheus.Gauge

	// Batch metrics
	BatchImages   *prometheus.CounterVec
	BatchDuration prometheus.Histogram

	// Inference client metrics
	InferenceRequests *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
}

// NewMetrics creates collectors registered on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates collectors registered on reg. Tests pass their own
// registry to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PathLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldlens_path_lookups_total",
				Help: "Path registry lookups by outcome",
			},
			[]string{"outcome"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldlens_path_validation_failures_total",
				Help: "Path validation rule failures by rule name",
			},
			[]string{"rule"},
		),
		DirectoriesEnsured: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fieldlens_directories_ensured_total",
				Help: "Directories created or confirmed by provisioning",
			},
		),
		ProvisionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fieldlens_provision_failures_total",
				Help: "Directory provisioning failures",
			},
		),
		RegistryEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fieldlens_registry_entries",
				Help: "Number of resolved entries in the path registry",
			},
		),
		BatchImages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldlens_batch_images_total",
				Help: "Batch images processed by status",
			},
			[]string{"status"},
		),
		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fieldlens_batch_image_duration_seconds",
				Help:    "Per-image processing duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		InferenceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldlens_inference_requests_total",
				Help: "Inference service requests by status",
			},
			[]string{"status"},
		),
		InferenceDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fieldlens_inference_request_duration_seconds",
				Help:    "Inference request duration in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
	}
}

// ObserveBatchImage records one processed image.
func (m *Metrics) ObserveBatchImage(status string, d time.Duration) {
	m.BatchImages.WithLabelValues(status).Inc()
	m.BatchDuration.Observe(d.Seconds())
}

// ObserveInference records one inference request.
func (m *Metrics) ObserveInference(status string, d time.Duration) {
	m.InferenceRequests.WithLabelValues(status).Inc()
	m.InferenceDuration.Observe(d.Seconds())
}
