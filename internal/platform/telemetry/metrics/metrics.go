package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restobot"

// Recorder is the subset of metric hooks the ordering core calls.
type Recorder interface {
	ObserveUpdate(kind, outcome string, elapsed time.Duration)
	OrderCreated()
	OrderTransitioned(to string)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveUpdate(string, string, time.Duration) {}
func (Nop) OrderCreated()                               {}
func (Nop) OrderTransitioned(string)                    {}

// BotMetrics holds the Prometheus collectors of the bot process.
type BotMetrics struct {
	registry    *prometheus.Registry
	updates     *prometheus.CounterVec
	latencyMS   *prometheus.HistogramVec
	ordersTotal prometheus.Counter
	transitions *prometheus.CounterVec
}

// NewBotMetrics creates and registers the bot collectors on a fresh registry.
func NewBotMetrics() (*BotMetrics, error) {
	registry := prometheus.NewRegistry()
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Total number of inbound chat updates.",
	}, []string{"kind", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "update_duration_ms",
		Help:      "Chat update handling latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"kind"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created by checkout.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transitions by target status.",
	}, []string{"to"})

	for _, collector := range []prometheus.Collector{
		updates,
		latency,
		orders,
		transitions,
		collectors.NewGoCollector(),
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return &BotMetrics{
		registry:    registry,
		updates:     updates,
		latencyMS:   latency,
		ordersTotal: orders,
		transitions: transitions,
	}, nil
}

// ObserveUpdate records one handled update.
func (m *BotMetrics) ObserveUpdate(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind, outcome).Inc()
	m.latencyMS.WithLabelValues(kind).Observe(float64(elapsed) / float64(time.Millisecond))
}

// OrderCreated records one minted order.
func (m *BotMetrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersTotal.Inc()
}

// OrderTransitioned records one status transition.
func (m *BotMetrics) OrderTransitioned(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *BotMetrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var (
	_ Recorder = Nop{}
	_ Recorder = (*BotMetrics)(nil)
)
