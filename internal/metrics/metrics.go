package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "shieldsync"
)

var (
	importDurationBuckets = []float64{1, 2, 5, 10, 30, 60, 120, 300, 600}

	// Import cycle metrics
	ImportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_runs_total",
		Help:      "Count of auto-import cycle executions.",
	}, []string{"status"})

	ImportRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_run_duration_seconds",
		Help:      "Time taken for one auto-import cycle.",
		Buckets:   importDurationBuckets,
	})

	ImportedAssetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imported_assets_total",
		Help:      "Number of assets imported into the platform.",
	}, []string{"company_id"})

	ImportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_errors_total",
		Help:      "Number of per-instance import errors.",
	}, []string{"company_id"})

	// Asset cache metrics
	CacheSyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cache_sync_duration_seconds",
		Help:      "Time taken for a full cache refresh from the platform.",
		Buckets:   importDurationBuckets,
	}, []string{"company_id"})

	CacheAssets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_assets",
		Help:      "Number of asset names cached per company.",
	}, []string{"company_id"})

	CacheLastSyncTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_last_sync_timestamp_seconds",
		Help:      "Unix timestamp of the last successful cache refresh.",
	}, []string{"company_id"})
)
