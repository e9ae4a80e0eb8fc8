// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flarestudio"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	rpcCalls       *prometheus.CounterVec
	rpcLatency     *prometheus.HistogramVec
	priceFailures  *prometheus.CounterVec
	quotesServed   *prometheus.CounterVec
	epochFallbacks *prometheus.CounterVec
	binderLookups  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rpcCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "eth_call requests by network and outcome.",
		}, []string{"network", "outcome"}),
		rpcLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_call_duration_seconds",
			Help:      "eth_call latency by network.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network"}),
		priceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_failures_total",
			Help:      "Failed price lookups by network and cause.",
		}, []string{"network", "cause"}),
		quotesServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Price quotes produced by network and source (chain or cache).",
		}, []string{"network", "source"}),
		epochFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "epoch_fallbacks_total",
			Help:      "Epoch ids derived from wall-clock time instead of the manager contract.",
		}, []string{"network"}),
		binderLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "binder_lookups_total",
			Help:      "Contract binder cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRPCCall(network string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.rpcCalls.WithLabelValues(network, outcome).Inc()
	m.rpcLatency.WithLabelValues(network).Observe(took.Seconds())
}

func (m *Metrics) IncPriceFailure(network, cause string) {
	if m == nil {
		return
	}
	m.priceFailures.WithLabelValues(network, cause).Inc()
}

func (m *Metrics) IncQuote(network, source string) {
	if m == nil {
		return
	}
	m.quotesServed.WithLabelValues(network, source).Inc()
}

func (m *Metrics) IncEpochFallback(network string) {
	if m == nil {
		return
	}
	m.epochFallbacks.WithLabelValues(network).Inc()
}

// IncBinderLookup records a cache hit (true) or miss (false).
func (m *Metrics) IncBinderLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.binderLookups.WithLabelValues(result).Inc()
}
