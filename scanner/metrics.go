package scanner

import "github.com/prometheus/client_golang/prometheus"

// Registry is the package-level prometheus registry the scanner's
// counters and histograms are registered on. A host CLI may serve it over
// /metrics; library callers that never do so simply accumulate unserved
// metrics, which is harmless. Grounded on vjache-cie's use of
// prometheus/client_golang for its own ingestion pipeline.
var Registry = prometheus.NewRegistry()

var (
	filesScannedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_files_total",
		Help: "Total files discovered across all scans.",
	})
	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_duration_seconds",
		Help:    "Wall-clock duration of a scan run.",
		Buckets: prometheus.DefBuckets,
	})
	entitiesUpsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_entities_upserted_total",
		Help: "Total entities upserted by the scanner.",
	})
)

func init() {
	Registry.MustRegister(filesScannedTotal, scanDuration, entitiesUpsertedTotal)
}
