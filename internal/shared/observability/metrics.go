package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	DescriptorsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kextdiff_descriptors_scanned_total",
		Help: "Total number of bundle descriptors found by the scanner.",
	}, []string{"dataset"})

	ExtractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kextdiff_extraction_failures_total",
		Help: "Total number of descriptors dropped because they could not be decoded or normalized.",
	}, []string{"dataset"})

	RecordsExtracted = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kextdiff_records",
		Help: "Number of indexable records in the most recent extraction of a dataset.",
	}, []string{"dataset"})

	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kextdiff_graph_nodes_total",
		Help: "Total number of nodes in a dataset's dependency graph.",
	}, []string{"dataset"})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kextdiff_graph_edges_total",
		Help: "Total number of edges in a dataset's dependency graph.",
	}, []string{"dataset"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kextdiff_step_seconds",
		Help:    "Time spent on a pipeline step.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kextdiff_watcher_events_total",
		Help: "Total number of file system events seen while watching extensions folders.",
	})

	StepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kextdiff_step_failures_total",
		Help: "Total number of pipeline steps that ended in failure.",
	}, []string{"step"})
)

// WriteMetricsFile dumps the default registry in text exposition format,
// for node_exporter's textfile collector.
func WriteMetricsFile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
