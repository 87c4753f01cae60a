package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envscan_files_scanned_total",
		Help: "Total number of source files read by the import extractor.",
	})

	FilesUnreadableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envscan_files_unreadable_total",
		Help: "Total number of source files skipped because they could not be read.",
	})

	PackagesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "envscan_packages_discovered",
		Help: "Unique package names found by the most recent scan, before filtering.",
	})

	PackagesAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envscan_packages_added_total",
		Help: "Total number of package entries appended to manifests.",
	})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "envscan_scan_seconds",
		Help:    "Time spent on a full scan.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
