// Package metrics defines the Prometheus collectors exported by ledgerstream.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncRuns counts sync runs by trigger and outcome ("success"/"error").
	SyncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerstream_sync_runs_total",
		Help: "Sync runs by trigger and outcome",
	}, []string{"trigger", "outcome"})

	// SyncDuration observes the wall time of a full sheet sync.
	SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledgerstream_sync_duration_seconds",
		Help:    "Wall time of a full sheet sync",
		Buckets: prometheus.DefBuckets,
	})

	// SnapshotRows tracks row counts in the current snapshot by table.
	SnapshotRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ledgerstream_snapshot_rows",
		Help: "Rows in the current snapshot by table",
	}, []string{"table"})

	// SnapshotSyncedAt records when the current snapshot was synced, as a
	// Unix timestamp. Age is derived at query time.
	SnapshotSyncedAt = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledgerstream_snapshot_synced_timestamp_seconds",
		Help: "Unix timestamp of the current snapshot sync",
	})

	// APIRequests counts ledger API requests by endpoint and status code.
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerstream_api_requests_total",
		Help: "API requests by endpoint and status code",
	}, []string{"endpoint", "code"})
)

func init() {
	prometheus.MustRegister(SyncRuns, SyncDuration, SnapshotRows, SnapshotSyncedAt, APIRequests)
}

// Handler returns the HTTP handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSnapshot updates the snapshot gauges after a successful sync.
func RecordSnapshot(transactions, categories, balances int, syncedAtUnix float64) {
	SnapshotRows.WithLabelValues("transactions").Set(float64(transactions))
	SnapshotRows.WithLabelValues("categories").Set(float64(categories))
	SnapshotRows.WithLabelValues("balances").Set(float64(balances))
	SnapshotSyncedAt.Set(syncedAtUnix)
}
