package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poassistant"

// Metrics holds the gateway's Prometheus collectors. Each instance owns its registry
// so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	GenerationRequests *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	StoreMutations     *prometheus.CounterVec
	SessionsActive     prometheus.Gauge
	WebSocketsActive   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		GenerationRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Generation gateway calls by operation and outcome",
		}, []string{"op", "outcome"}),

		// up to 2 minutes for model responses
		GenerationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation gateway call latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"op"}),

		StoreMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_store_mutations_total",
			Help:      "Project store mutations by operation and outcome",
		}, []string{"op", "outcome"}),

		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live working sessions",
		}),

		WebSocketsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections_active",
			Help:      "Number of open session websocket streams",
		}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveGeneration records one gateway call. A nil receiver is a no-op.
func (m *Metrics) ObserveGeneration(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.GenerationRequests.WithLabelValues(op, outcome(err)).Inc()
	m.GenerationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveStoreMutation matches projectstore.Observer.
func (m *Metrics) ObserveStoreMutation(op string, err error) {
	if m == nil {
		return
	}
	m.StoreMutations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
