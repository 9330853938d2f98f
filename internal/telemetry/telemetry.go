// Package telemetry instruments the encode/decode/proof pipeline with
// Prometheus metrics, grounded on the same registry-per-instance pattern
// the wider dependency pack uses for its order-book and consensus metrics.
package telemetry

import (
	"net/http"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is one Prometheus registry's worth of counters and histograms for
// the CORE pipeline: how often schemas are compiled vs served from cache,
// encode/decode latency, and proof verification outcomes.
type Metrics struct {
	registry *prometheus.Registry
	logger   log.Logger

	schemaCacheHits   prometheus.Counter
	schemaCacheMisses prometheus.Counter
	encodeLatency     prometheus.Histogram
	decodeLatency     prometheus.Histogram
	encodeErrors      prometheus.Counter
	decodeErrors      prometheus.Counter
	proofsGenerated   prometheus.Counter
	proofsVerifiedOK  prometheus.Counter
	proofsVerifiedBad prometheus.Counter
}

// New builds a Metrics instance under namespace and registers every metric
// with its own fresh registry, so multiple instances in one process (e.g.
// in tests) never collide on global defaults.
func New(namespace string, logger log.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		logger:   logger,

		schemaCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_cache_hits_total",
			Help:      "Schema loads served from the in-process cache",
		}),
		schemaCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_cache_misses_total",
			Help:      "Schema loads that required parsing SBE XML",
		}),
		encodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "encode_latency_nanoseconds",
			Help:      "SBE encode latency in nanoseconds",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		}),
		decodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_latency_nanoseconds",
			Help:      "SBE decode latency in nanoseconds",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		}),
		encodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_errors_total",
			Help:      "SBE encode calls that returned an error",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "SBE decode calls that returned an error",
		}),
		proofsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merkle_proofs_generated_total",
			Help:      "Inclusion proofs generated",
		}),
		proofsVerifiedOK: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merkle_proofs_verified_total",
			Help:      "Inclusion proofs that verified successfully",
		}),
		proofsVerifiedBad: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merkle_proofs_rejected_total",
			Help:      "Inclusion proofs that failed verification",
		}),
	}

	registry.MustRegister(
		m.schemaCacheHits,
		m.schemaCacheMisses,
		m.encodeLatency,
		m.decodeLatency,
		m.encodeErrors,
		m.decodeErrors,
		m.proofsGenerated,
		m.proofsVerifiedOK,
		m.proofsVerifiedBad,
	)

	return m
}

// Handler exposes this instance's registry on the standard Prometheus text
// format, for mounting at e.g. "/metrics".
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordSchemaCacheHit()  { m.schemaCacheHits.Inc() }
func (m *Metrics) RecordSchemaCacheMiss() { m.schemaCacheMisses.Inc() }

func (m *Metrics) ObserveEncode(nanoseconds float64, err error) {
	m.encodeLatency.Observe(nanoseconds)
	if err != nil {
		m.encodeErrors.Inc()
	}
}

func (m *Metrics) ObserveDecode(nanoseconds float64, err error) {
	m.decodeLatency.Observe(nanoseconds)
	if err != nil {
		m.decodeErrors.Inc()
	}
}

func (m *Metrics) RecordProofGenerated() { m.proofsGenerated.Inc() }

func (m *Metrics) RecordProofVerified(ok bool) {
	if ok {
		m.proofsVerifiedOK.Inc()
	} else {
		m.proofsVerifiedBad.Inc()
	}
}
