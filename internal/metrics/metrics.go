package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for the simulation host: tick loop
// latency, executed-action volume, the live detection meter, and websocket
// client counts, plus inbound HTTP instrumentation.
type Collector struct {
	registry        *prometheus.Registry
	tickDuration    prometheus.Histogram
	actionsTotal    *prometheus.CounterVec
	detectionMeter  *prometheus.GaugeVec
	clientsGauge    prometheus.Gauge
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewCollector constructs a collector backed by its own registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fleetsim",
		Subsystem: "sim",
		Name:      "tick_duration_seconds",
		Help:      "Latency distribution for one simulation tick.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	actionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetsim",
		Subsystem: "sim",
		Name:      "actions_total",
		Help:      "Executed engagement actions by type.",
	}, []string{"type"})

	detectionMeter := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fleetsim",
		Subsystem: "sim",
		Name:      "detection_meter",
		Help:      "Current detection meter value per run.",
	}, []string{"run"})

	clientsGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleetsim",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected websocket clients.",
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fleetsim",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetsim",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	for _, collector := range []prometheus.Collector{
		tickDuration, actionsTotal, detectionMeter, clientsGauge,
		requestDuration, requestTotal,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		tickDuration:    tickDuration,
		actionsTotal:    actionsTotal,
		detectionMeter:  detectionMeter,
		clientsGauge:    clientsGauge,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// ObserveTick records the wall-clock cost of one simulation tick.
func (c *Collector) ObserveTick(d time.Duration) {
	c.tickDuration.Observe(d.Seconds())
}

// CountAction increments the executed-action counter for one action type.
func (c *Collector) CountAction(actionType string) {
	c.actionsTotal.WithLabelValues(actionType).Inc()
}

// SetMeter publishes the current detection meter for a run.
func (c *Collector) SetMeter(runID string, value float64) {
	c.detectionMeter.WithLabelValues(runID).Set(value)
}

// ClientConnected / ClientDisconnected track the websocket population.
func (c *Collector) ClientConnected()    { c.clientsGauge.Inc() }
func (c *Collector) ClientDisconnected() { c.clientsGauge.Dec() }

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)

		c.requestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
