package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

type transformCollectors struct {
	passesTotal        *prometheus.CounterVec
	restyleTotal       *prometheus.CounterVec
	droppedActionTotal *prometheus.CounterVec
	tokensTotal        *prometheus.CounterVec
}

func newTransformCollectors() *transformCollectors {
	return &transformCollectors{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transform",
				Name:      "passes_total",
				Help:      "Model passes by pass name and outcome.",
			},
			[]string{"service", "pass", "outcome"},
		),
		restyleTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transform",
				Name:      "restyle_total",
				Help:      "Restyle attempts by result (applied or fallback).",
			},
			[]string{"service", "result"},
		),
		droppedActionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transform",
				Name:      "dropped_next_actions_total",
				Help:      "Next actions removed by sanitization.",
			},
			[]string{"service"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "Token usage reported by the provider, by direction.",
			},
			[]string{"service", "pass", "direction", "model"},
		),
	}
}

func (c *transformCollectors) register(registry *prometheus.Registry) {
	registry.MustRegister(
		c.passesTotal,
		c.restyleTotal,
		c.droppedActionTotal,
		c.tokensTotal,
	)
}

// TransformObserver records use case events under the given service label.
type TransformObserver struct {
	service    string
	collectors *transformCollectors
}

func (m *HTTPServerMetrics) TransformObserver(service string) *TransformObserver {
	return &TransformObserver{service: service, collectors: m.transform}
}

func (o *TransformObserver) ObservePass(pass domain.Pass, model, outcome string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	o.collectors.passesTotal.WithLabelValues(o.service, string(pass), outcome).Inc()
	if promptTokens > 0 {
		o.collectors.tokensTotal.WithLabelValues(o.service, string(pass), "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		o.collectors.tokensTotal.WithLabelValues(o.service, string(pass), "out", model).Add(float64(completionTokens))
	}
}

func (o *TransformObserver) ObserveRestyle(applied bool) {
	result := "fallback"
	if applied {
		result = "applied"
	}
	o.collectors.restyleTotal.WithLabelValues(o.service, result).Inc()
}

func (o *TransformObserver) ObserveDroppedNextActions(count int) {
	if count <= 0 {
		return
	}
	o.collectors.droppedActionTotal.WithLabelValues(o.service).Add(float64(count))
}
