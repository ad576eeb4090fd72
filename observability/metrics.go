package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the tool invocation collectors.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	inFlight     *prometheus.GaugeVec
	modelTokens  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Tool invocation duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tool_calls_in_flight",
				Help:      "Number of tool invocations currently running",
			},
			[]string{"tool"},
		),
		modelTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_total",
				Help:      "Total number of tokens used by model-backed agents",
			},
			[]string{"model"},
		),
	}

	for _, c := range []prometheus.Collector{m.callsTotal, m.callDuration, m.inFlight, m.modelTokens} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) begin(tool string) {
	if m == nil {
		return
	}

	m.inFlight.WithLabelValues(tool).Inc()
}

func (m *Metrics) end(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}

	m.inFlight.WithLabelValues(tool).Dec()
	m.callsTotal.WithLabelValues(tool, outcome).Inc()
	m.callDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// AddModelTokens records token usage of a model-backed agent.
func (m *Metrics) AddModelTokens(model string, tokens int) {
	if m == nil || tokens <= 0 {
		return
	}

	m.modelTokens.WithLabelValues(model).Add(float64(tokens))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
