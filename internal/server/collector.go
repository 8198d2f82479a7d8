package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pathmend/pathmend/internal/router"
)

// Collector adapts the router's metrics snapshot to prometheus. A fresh
// snapshot is taken on every scrape; nothing is double-counted because
// the underlying counters are cumulative.
type Collector struct {
	metrics *router.Metrics

	total    *prometheus.Desc
	exact    *prometheus.Desc
	fuzzy    *prometheus.Desc
	alias    *prometheus.Desc
	notFound *prometheus.Desc
	timedOut *prometheus.Desc
	avgMs    *prometheus.Desc
	p99Ms    *prometheus.Desc
}

// NewCollector creates a collector over m.
func NewCollector(m *router.Metrics) *Collector {
	return &Collector{
		metrics: m,
		total: prometheus.NewDesc("pathmend_requests_total",
			"Total resolution requests.", nil, nil),
		exact: prometheus.NewDesc("pathmend_exact_matches_total",
			"Requests whose path existed verbatim.", nil, nil),
		fuzzy: prometheus.NewDesc("pathmend_fuzzy_matches_total",
			"Requests redirected via similarity search.", nil, nil),
		alias: prometheus.NewDesc("pathmend_alias_matches_total",
			"Requests answered by a learned or manual alias.", nil, nil),
		notFound: prometheus.NewDesc("pathmend_not_found_total",
			"Requests that produced a structured not-found response.", nil, nil),
		timedOut: prometheus.NewDesc("pathmend_timed_out_total",
			"Requests that exceeded the latency budget.", nil, nil),
		avgMs: prometheus.NewDesc("pathmend_latency_avg_ms",
			"Rolling average resolution latency in milliseconds.", nil, nil),
		p99Ms: prometheus.NewDesc("pathmend_latency_p99_ms",
			"Rolling p99 resolution latency in milliseconds.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.exact
	ch <- c.fuzzy
	ch <- c.alias
	ch <- c.notFound
	ch <- c.timedOut
	ch <- c.avgMs
	ch <- c.p99Ms
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.metrics.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.CounterValue, float64(s.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.exact, prometheus.CounterValue, float64(s.ExactMatches))
	ch <- prometheus.MustNewConstMetric(c.fuzzy, prometheus.CounterValue, float64(s.FuzzyMatches))
	ch <- prometheus.MustNewConstMetric(c.alias, prometheus.CounterValue, float64(s.AliasMatches))
	ch <- prometheus.MustNewConstMetric(c.notFound, prometheus.CounterValue, float64(s.NotFound))
	ch <- prometheus.MustNewConstMetric(c.timedOut, prometheus.CounterValue, float64(s.TimedOut))
	ch <- prometheus.MustNewConstMetric(c.avgMs, prometheus.GaugeValue, s.AverageLatencyMs)
	ch <- prometheus.MustNewConstMetric(c.p99Ms, prometheus.GaugeValue, s.P99LatencyMs)
}
