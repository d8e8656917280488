package metric

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// KeyspaceFunc reports the current number of keys per keyspace.
type KeyspaceFunc func() map[string]int

// KeyspaceCollector exports key counts as a gauge read at scrape time.
type KeyspaceCollector struct {
	source KeyspaceFunc
	keys   *prometheus.Desc
}

// NewKeyspaceCollector creates a collector that calls source on every
// scrape.
func NewKeyspaceCollector(source KeyspaceFunc) *KeyspaceCollector {
	return &KeyspaceCollector{
		source: source,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Keys currently stored, by keyspace.",
			[]string{"keyspace"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.source()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(counts[name]), name)
	}
}
