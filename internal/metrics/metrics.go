// Package metrics exposes prometheus collectors for pulse.eco traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

// Metrics records transport requests and fan-out spans. It satisfies both
// transport.Observer and pulseeco.SpanObserver.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	spans    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseeco_requests_total",
			Help: "Requests sent to pulse.eco by endpoint and HTTP status.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulseeco_request_duration_seconds",
			Help:    "Latency of pulse.eco requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"endpoint"}),
		spans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulseeco_fanout_spans_total",
			Help: "Per-interval requests issued by spanned queries.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.spans} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest records one HTTP attempt. A zero status means the request
// failed before a response arrived.
func (m *Metrics) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(endpoint, code).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveSpan counts one interval request of a spanned query.
func (m *Metrics) ObserveSpan(kind string, _ pulseeco.Interval) {
	m.spans.WithLabelValues(kind).Inc()
}
