package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch results recorded by ObserveFetch.
const (
	ResultSuccess   = "success"
	ResultTransport = "transport"
	ResultStatus    = "status"
	ResultBodyRead  = "body_read"
)

// Metrics is the relay's own instrumentation. It lives in a private registry
// served on the admin listener, never mixed into the relayed /metrics body.
type Metrics struct {
	registry      *prometheus.Registry
	scrapes       prometheus.Counter
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	reachable     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scrapes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "godon_exporter_scrapes_total",
			Help: "Total scrapes served on the relay /metrics endpoint",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "godon_exporter_pushgateway_fetches_total",
			Help: "Push Gateway fetch attempts by result",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "godon_exporter_pushgateway_fetch_duration_seconds",
			Help:    "Latency of Push Gateway fetches",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		reachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "godon_exporter_pushgateway_up",
			Help: "Outcome of the last Push Gateway fetch (1=reachable, 0=unreachable)",
		}),
	}
	for _, r := range []string{ResultSuccess, ResultTransport, ResultStatus, ResultBodyRead} {
		m.fetches.WithLabelValues(r)
	}
	m.registry.MustRegister(
		m.scrapes,
		m.fetches,
		m.fetchDuration,
		m.reachable,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) IncScrapes() { m.scrapes.Inc() }

func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
	if result == ResultSuccess {
		m.reachable.Set(1)
	} else {
		m.reachable.Set(0)
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
