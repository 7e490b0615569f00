// Package metrics exposes the bot's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slhbot"

// Registry holds every collector of this package plus the Go runtime ones.
var Registry = prometheus.NewRegistry()

var (
	factory = promauto.With(Registry)

	httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by handler, method and status code.",
	}, []string{"handler", "method", "code"})

	httpLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"handler", "method"})

	chainCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "calls_total",
		Help:      "Token contract calls by method and result.",
	}, []string{"method", "result"})

	chainLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chain",
		Name:      "call_duration_seconds",
		Help:      "Token contract call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	transfers = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transfer",
		Name:      "outcomes_total",
		Help:      "Transfer attempts by outcome.",
	}, []string{"outcome"})

	transitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "conversation",
		Name:      "transitions_total",
		Help:      "Transfer conversation state transitions.",
	}, []string{"from", "to"})

	historyEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "events_total",
		Help:      "History events by delivery stage.",
	}, []string{"stage"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func ObserveHTTPRequest(handler, method string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(handler, method).Observe(duration.Seconds())
}

// ObserveChainCall records one contract call; err decides the result label.
func ObserveChainCall(method string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	chainCalls.WithLabelValues(method, result).Inc()
	chainLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveTransfer counts a finished transfer attempt.
func ObserveTransfer(outcome string) {
	transfers.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts a conversation state change.
func ObserveTransition(from, to string) {
	transitions.WithLabelValues(from, to).Inc()
}

// ObserveHistory counts history events at a delivery stage
// ("enqueued", "stored", "dropped").
func ObserveHistory(stage string) {
	historyEvents.WithLabelValues(stage).Inc()
}

// Handler exposes the metrics in Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
