package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the BrewQuest Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	sideEffects *prometheus.CounterVec
	publishes   *prometheus.CounterVec
	currentWeek prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewquest",
			Name:      "weekly_transitions_total",
			Help:      "Weekly transition invocations by outcome.",
		}, []string{"outcome"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewquest",
			Name:      "side_effects_total",
			Help:      "Side effect executions by effect and result.",
		}, []string{"effect", "success"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brewquest",
			Name:      "daily_publishes_total",
			Help:      "Daily publish invocations by outcome.",
		}, []string{"outcome"}),
		currentWeek: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brewquest",
			Name:      "current_week",
			Help:      "Week number of the current state, 0 when none.",
		}),
	}

	m.registry.MustRegister(
		m.transitions,
		m.sideEffects,
		m.publishes,
		m.currentWeek,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTransition counts one weekly invocation.
func (m *Metrics) ObserveTransition(outcome string) {
	m.transitions.WithLabelValues(outcome).Inc()
}

// ObserveSideEffect counts one side effect execution.
func (m *Metrics) ObserveSideEffect(effect string, success bool) {
	m.sideEffects.WithLabelValues(effect, strconv.FormatBool(success)).Inc()
}

// ObservePublish counts one daily invocation.
func (m *Metrics) ObservePublish(outcome string) {
	m.publishes.WithLabelValues(outcome).Inc()
}

// SetCurrentWeek records the current week number.
func (m *Metrics) SetCurrentWeek(week int) {
	m.currentWeek.Set(float64(week))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
