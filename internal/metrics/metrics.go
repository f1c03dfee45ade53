// Package metrics exposes Prometheus instrumentation for discovery and
// configuration changes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Discovery pass metrics
	DiscoveryRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchgraph_discovery_runs_total",
			Help: "Total number of discovery passes by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	DiscoveryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "switchgraph_discovery_duration_seconds",
			Help:    "Duration of one discovery pass for a device and kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	// Reconciliation effects
	EntitiesChangedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchgraph_entities_changed_total",
			Help: "Total number of entities created, updated or deleted by kind",
		},
		[]string{"kind", "change"},
	)

	MembersSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchgraph_members_skipped_total",
			Help: "Total number of memberships skipped because the interface is unknown",
		},
		[]string{"kind"},
	)

	// Configuration changes
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchgraph_mutations_total",
			Help: "Total number of configuration mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// RecordDiscovery records one finished discovery pass
func RecordDiscovery(kind string, d time.Duration, err error) {
	DiscoveryRunsTotal.WithLabelValues(kind, outcome(err)).Inc()
	DiscoveryDurationSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordChanges records the entity changes of one reconciliation
func RecordChanges(kind string, created, updated, deleted, skipped int) {
	EntitiesChangedTotal.WithLabelValues(kind, "created").Add(float64(created))
	EntitiesChangedTotal.WithLabelValues(kind, "updated").Add(float64(updated))
	EntitiesChangedTotal.WithLabelValues(kind, "deleted").Add(float64(deleted))
	MembersSkippedTotal.WithLabelValues(kind).Add(float64(skipped))
}

// RecordMutation records one configuration mutation attempt
func RecordMutation(op string, err error) {
	MutationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
