package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports SDK events as cep_events_total and gateway
// latency as cep_latency_seconds, both labelled by NAG endpoint.
type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the SDK collectors on reg. A nil reg
// uses the default registerer. Collectors already registered by an earlier
// recorder are shared, so several accounts may export to one registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counters, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cep",
			Name:      "events_total",
			Help:      "Circular Enterprise API event counters",
		},
		[]string{"type", "endpoint"},
	))
	if err != nil {
		return nil, err
	}

	// gateway round trips run from tens of milliseconds to the request timeout
	histogram, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cep",
			Name:      "latency_seconds",
			Help:      "Circular Enterprise API gateway latency",
			Buckets:   prometheus.ExponentialBuckets(0.025, 2, 11),
		},
		[]string{"operation", "endpoint"},
	))
	if err != nil {
		return nil, err
	}

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"type":     name,
		"endpoint": labels["endpoint"],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation": name,
		"endpoint":  labels["endpoint"],
	}).Observe(d.Seconds())
}
