package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codegraph_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language", "mode"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codegraph_scan_seconds",
		Help:    "Wall-clock duration of a full scan.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	ScannedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codegraph_scanned_files_total",
		Help: "Total number of files handed to the parser.",
	})

	UnparsedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codegraph_unparsed_files_total",
		Help: "Total number of files recorded as unparsed diagnostics.",
	})

	GraphSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codegraph_graph_symbols_total",
		Help: "Number of symbols in the most recently built graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codegraph_graph_edges_total",
		Help: "Number of edges in the most recently built graph.",
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codegraph_query_seconds",
		Help:    "Time spent answering a structured query.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	QueryTruncatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codegraph_query_truncated_total",
		Help: "Total number of queries that returned a partial, truncated result.",
	})

	ImpactDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codegraph_impact_seconds",
		Help:    "Time spent computing an impact report.",
		Buckets: prometheus.DefBuckets,
	})

	SnapshotWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codegraph_snapshot_write_seconds",
		Help:    "Latency for persisting a scan snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)
