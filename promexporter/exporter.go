// Package promexporter exposes decoder statistics as Prometheus metrics.
package promexporter

import (
	"net/http"

	"github.com/pior/mcresp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "mcresp"

// Exporter manages Prometheus metrics export
type Exporter struct {
	registry  *prometheus.Registry
	namespace string
}

// NewExporter creates an exporter with its own registry. An empty namespace
// means DefaultNamespace.
func NewExporter(namespace string) *Exporter {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Exporter{
		registry:  prometheus.NewRegistry(),
		namespace: namespace,
	}
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// RegisterStats exposes response counters read from stats.
func (e *Exporter) RegisterStats(stats *mcresp.Stats) error {
	return e.registry.Register(NewStatsCollector(stats, e.namespace))
}

// RegisterBreaker exposes the breaker state (0=closed, 1=half-open, 2=open)
// and its failure count, labeled with the breaker name.
func (e *Exporter) RegisterBreaker(b *mcresp.ViolationBreaker) error {
	labels := prometheus.Labels{"breaker": b.Name()}

	state := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   e.namespace,
			Name:        "violation_breaker_state",
			Help:        "Violation breaker state (0=closed, 1=half-open, 2=open)",
			ConstLabels: labels,
		},
		func() float64 {
			return float64(breakerState(b.State()))
		},
	)
	failures := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   e.namespace,
			Name:        "violation_breaker_failures",
			Help:        "Failures counted by the violation breaker in its current generation",
			ConstLabels: labels,
		},
		func() float64 {
			return float64(b.Counts().TotalFailures)
		},
	)

	for _, c := range []prometheus.Collector{state, failures} {
		if err := e.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPool exposes decoder pool statistics.
func (e *Exporter) RegisterPool(pool *mcresp.DecoderPool) error {
	decoders := prometheus.NewDesc(
		prometheus.BuildFQName(e.namespace, "pool", "decoders"),
		"Decoder pool statistics",
		[]string{"state"}, nil,
	)
	acquires := prometheus.NewDesc(
		prometheus.BuildFQName(e.namespace, "pool", "acquires_total"),
		"Total decoder acquires",
		[]string{"result"}, nil,
	)
	created := prometheus.NewDesc(
		prometheus.BuildFQName(e.namespace, "pool", "decoders_created_total"),
		"Total decoders created (cumulative)",
		nil, nil,
	)

	return e.registry.Register(collectorFunc{
		descs: []*prometheus.Desc{decoders, acquires, created},
		collect: func(ch chan<- prometheus.Metric) {
			s := pool.Stats()
			ch <- prometheus.MustNewConstMetric(decoders, prometheus.GaugeValue, float64(s.TotalDecoders), "total")
			ch <- prometheus.MustNewConstMetric(decoders, prometheus.GaugeValue, float64(s.AcquiredDecoders), "active")
			ch <- prometheus.MustNewConstMetric(decoders, prometheus.GaugeValue, float64(s.IdleDecoders), "idle")
			ch <- prometheus.MustNewConstMetric(acquires, prometheus.CounterValue, float64(s.AcquireCount), "success")
			ch <- prometheus.MustNewConstMetric(acquires, prometheus.CounterValue, float64(s.CanceledAcquires), "canceled")
			ch <- prometheus.MustNewConstMetric(created, prometheus.CounterValue, float64(s.CreatedDecoders))
		},
	})
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func breakerState(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type collectorFunc struct {
	descs   []*prometheus.Desc
	collect func(ch chan<- prometheus.Metric)
}

func (c collectorFunc) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c collectorFunc) Collect(ch chan<- prometheus.Metric) {
	c.collect(ch)
}
