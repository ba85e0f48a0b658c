package promexporter

import (
	"github.com/pior/mcresp"
	"github.com/pior/mcresp/text"
	"github.com/prometheus/client_golang/prometheus"
)

// terminalKinds are the outcomes a decoder records.
var terminalKinds = []text.Kind{
	text.KindOk,
	text.KindMiss,
	text.KindHit,
	text.KindError,
	text.KindVersion,
	text.KindInvalid,
	text.KindUnknown,
}

// StatsCollector exposes an mcresp.Stats as Prometheus counters. Values are
// read from a snapshot on every scrape.
type StatsCollector struct {
	stats *mcresp.Stats

	responses     *prometheus.Desc
	responseBytes *prometheus.Desc
	errorReplies  *prometheus.Desc
	droppedErrors *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector creates a collector for stats with metric names prefixed
// by namespace.
func NewStatsCollector(stats *mcresp.Stats, namespace string) *StatsCollector {
	return &StatsCollector{
		stats: stats,
		responses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "responses_total"),
			"Total number of classified responses",
			[]string{"outcome"}, nil,
		),
		responseBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "response_bytes_total"),
			"Total bytes of classified responses",
			nil, nil,
		),
		errorReplies: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "distinct_error_replies"),
			"Number of distinct error replies tracked",
			nil, nil,
		),
		droppedErrors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "error_replies_untracked_total"),
			"Error replies not tracked individually because too many distinct replies were seen",
			nil, nil,
		),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.responses
	ch <- c.responseBytes
	ch <- c.errorReplies
	ch <- c.droppedErrors
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	for _, kind := range terminalKinds {
		ch <- prometheus.MustNewConstMetric(c.responses, prometheus.CounterValue, float64(snap.Count(kind)), kind.String())
	}
	ch <- prometheus.MustNewConstMetric(c.responseBytes, prometheus.CounterValue, float64(snap.Bytes))

	messages, dropped := c.stats.ErrorMessages()
	ch <- prometheus.MustNewConstMetric(c.errorReplies, prometheus.GaugeValue, float64(len(messages)))
	ch <- prometheus.MustNewConstMetric(c.droppedErrors, prometheus.CounterValue, float64(dropped))
}
