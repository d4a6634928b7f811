package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics covers the calls made to the file service and the uploads
// driven through it.
type ClientMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal     *prometheus.CounterVec
	uploadBytesTotal prometheus.Counter
	uploadBandwidth  prometheus.Histogram
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total requests sent to the file service.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docshelf",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "File service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "docshelf",
			Subsystem:   "api",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight file service requests.",
			ConstLabels: constLabels,
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "upload",
			Name:      "total",
			Help:      "Upload attempts by outcome.",
		},
		[]string{"service", "status"},
	)
	uploadBytesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "docshelf",
			Subsystem:   "upload",
			Name:        "bytes_total",
			Help:        "File bytes delivered by completed uploads.",
			ConstLabels: constLabels,
		},
	)
	uploadBandwidth := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "docshelf",
			Subsystem:   "upload",
			Name:        "bandwidth_mbps",
			Help:        "Average bandwidth of completed uploads in Mbps.",
			Buckets:     []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		uploadBytesTotal,
		uploadBandwidth,
	)

	return &ClientMetrics{
		registry:         registry,
		service:          service,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		uploadsTotal:     uploadsTotal,
		uploadBytesTotal: uploadBytesTotal,
		uploadBandwidth:  uploadBandwidth,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
