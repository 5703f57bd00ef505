// Package metrics exposes collector counters in Prometheus format.
// All methods are safe on a nil *Metrics so that components can run without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gtfisher/esp-collector/pkg/models"
)

const namespace = "esp_collector"

// Metrics holds the collector's Prometheus instruments on a private registry
type Metrics struct {
	registry *prometheus.Registry

	readingsAccepted prometheus.Counter
	sensorErrors     prometheus.Counter
	fetchErrors      prometheus.Counter
	storeErrors      prometheus.Counter
	exports          *prometheus.CounterVec
	tickDuration     prometheus.Histogram
	lastReading      prometheus.Gauge
	temperature      prometheus.Gauge
	humidity         prometheus.Gauge
}

// New creates and registers all instruments
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_accepted_total",
			Help:      "Readings committed to the store.",
		}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Readings discarded because the sensor reported zero temperature and humidity.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed attempts to fetch a reading from the sensor.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed appends to the reading store.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export deliveries by target and result.",
		}, []string{"target", "result"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of sampler ticks.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastReading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reading_timestamp_seconds",
			Help:      "Capture time of the most recent accepted reading.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Temperature of the most recent accepted reading.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Relative humidity of the most recent accepted reading.",
		}),
	}

	m.registry.MustRegister(
		m.readingsAccepted,
		m.sensorErrors,
		m.fetchErrors,
		m.storeErrors,
		m.exports,
		m.tickDuration,
		m.lastReading,
		m.temperature,
		m.humidity,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ReadingAccepted records a committed reading
func (m *Metrics) ReadingAccepted(r models.Reading) {
	if m == nil {
		return
	}

	m.readingsAccepted.Inc()
	if at, ok := r.CapturedAt(); ok {
		m.lastReading.Set(float64(at.UnixMilli()) / 1000)
	}
	if v, ok := r.Temperature.Get(); ok {
		m.temperature.Set(v)
	}
	if v, ok := r.Humidity.Get(); ok {
		m.humidity.Set(v)
	}
}

func (m *Metrics) SensorError() {
	if m == nil {
		return
	}
	m.sensorErrors.Inc()
}

func (m *Metrics) FetchError() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

func (m *Metrics) StoreError() {
	if m == nil {
		return
	}
	m.storeErrors.Inc()
}

// ExportDone records the final outcome of one export delivery
func (m *Metrics) ExportDone(target string, err error) {
	if m == nil {
		return
	}

	result := "success"
	if err != nil {
		result = "failure"
	}
	m.exports.WithLabelValues(target, result).Inc()
}

// ObserveTick records how long a sampler tick took
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
