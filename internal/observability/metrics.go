// Package observability holds the per-run Prometheus counters for retrieval
// and export. The registry is private to the run; nothing is served.
package observability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure reasons used as the "reason" label on ObjectsFailed.
const (
	ReasonFetch = "fetch"
	ReasonRead  = "read"
	ReasonParse = "parse"
)

// Collector holds all Prometheus metrics for one run
type Collector struct {
	registry *prometheus.Registry

	// Retrieval metrics
	ListPages      prometheus.Counter
	ObjectsListed  prometheus.Counter
	ObjectsFetched prometheus.Counter
	ObjectsFailed  *prometheus.CounterVec
	ObjectsSkipped prometheus.Counter
	BytesRead      prometheus.Counter

	// Export metrics
	RecordsExported *prometheus.CounterVec
	FilesWritten    *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ListPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_pages_total",
			Help:      "Number of object listing pages read",
		}),
		ObjectsListed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_listed_total",
			Help:      "Number of keys returned by the listing",
		}),
		ObjectsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_fetched_total",
			Help:      "Number of feedback objects fetched and decoded",
		}),
		ObjectsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_failed_total",
			Help:      "Number of feedback objects skipped because of an error",
		}, []string{"reason"}),
		ObjectsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_filtered_total",
			Help:      "Number of decoded records dropped by the time window",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Bytes of feedback object bodies read",
		}),
		RecordsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_exported_total",
			Help:      "Records written per export format",
		}, []string{"format"}),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Export files written per format",
		}, []string{"format"}),
	}

	registry.MustRegister(
		c.ListPages,
		c.ObjectsListed,
		c.ObjectsFetched,
		c.ObjectsFailed,
		c.ObjectsSkipped,
		c.BytesRead,
		c.RecordsExported,
		c.FilesWritten,
	)

	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Snapshot gathers every sample into a flat name{labels} → value map.
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				parts := make([]string, 0, len(labels))
				for _, lp := range labels {
					parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
				}
				sort.Strings(parts)
				name += "{" + strings.Join(parts, ",") + "}"
			}
			if ctr := m.GetCounter(); ctr != nil {
				out[name] = ctr.GetValue()
			}
		}
	}
	return out, nil
}
