package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the gateway.
type Metrics struct {
	// Geocoding exchange metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,empty,error}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeDropped     prometheus.Counter       // requests ignored because an exchange was active
	GeocodeCancelled   prometheus.Counter

	// Resolver metrics.
	LookupsRejected prometheus.Counter // concurrent lookups turned away with ErrBusy
	GatewayReady    prometheus.Gauge

	// Audit publisher metrics.
	LookupsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all gateway metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geocode_gateway",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API exchanges by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geocode_gateway",
			Name:      "geocode_api_duration_seconds",
			Help:      "Upstream geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geocode_gateway",
			Name:      "geocode_dropped_total",
			Help:      "Geocode requests dropped because an exchange was already active.",
		}),
		GeocodeCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geocode_gateway",
			Name:      "geocode_cancelled_total",
			Help:      "Geocode exchanges aborted by Cancel.",
		}),
		LookupsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geocode_gateway",
			Name:      "lookups_rejected_total",
			Help:      "Lookups rejected by the resolver because another lookup was in flight.",
		}),
		GatewayReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geocode_gateway",
			Name:      "ready",
			Help:      "1 when the gateway is accepting lookups, 0 while draining.",
		}),
		LookupsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geocode_gateway",
			Name:      "lookups_published_total",
			Help:      "Resolved lookups published to the audit topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geocode_gateway",
			Name:      "publish_errors_total",
			Help:      "Failures publishing resolved lookups to the audit topic.",
		}),
	}

	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.GeocodeDropped,
		m.GeocodeCancelled,
		m.LookupsRejected,
		m.GatewayReady,
		m.LookupsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geocode_gateway", Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "geocode_gateway", Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeDropped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geocode_gateway", Name: "geocode_dropped_total"}),
		GeocodeCancelled:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geocode_gateway", Name: "geocode_cancelled_total"}),
		LookupsRejected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geocode_gateway", Name: "lookups_rejected_total"}),
		GatewayReady:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "geocode_gateway", Name: "ready"}),
		LookupsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geocode_gateway", Name: "lookups_published_total"}),
		PublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geocode_gateway", Name: "publish_errors_total"}),
	}
}
