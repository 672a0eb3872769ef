package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecalign_alignments_total",
		Help: "Total number of pairwise alignments",
	}, []string{"scorer", "status"})

	AlignmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vecalign_alignment_seconds",
		Help:    "Time taken to align a pair of sequences",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"scorer"})

	DPCells = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vecalign_dp_cells_total",
		Help: "Total number of dynamic programming cells filled",
	})

	ComparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vecalign_comparisons_total",
		Help: "Total number of alignment comparisons against a reference",
	}, []string{"status"})

	TCS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vecalign_tcs",
		Help:    "Total column score of compared alignments",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})
)

// WriteFile dumps the default registry to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
