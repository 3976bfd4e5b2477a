package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "board"

// Registry is the process-wide Prometheus registry served at /metrics.
var Registry = prometheus.NewRegistry()

// SubmissionsTotal counts submissions by outcome.
var SubmissionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of submission attempts",
	},
	[]string{"outcome"}, // outcome: accepted|invalid|oversize|upload_failed|persist_failed|canceled
)

// ModerationActionsTotal counts moderation actions by action and outcome.
var ModerationActionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_actions_total",
		Help:      "Total number of moderation actions",
	},
	[]string{"action", "outcome"}, // action: approve|edit|delete, outcome: ok|denied|not_found|error
)

// MediaPreparedTotal counts media preparation outcomes.
var MediaPreparedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_prepared_total",
		Help:      "Total number of prepared media files",
	},
	[]string{"result"}, // result: transcoded|recompressed|original|transcode_failed|oversize
)

// CompatConversionsTotal counts lazy display conversions of legacy images.
var CompatConversionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compat_conversions_total",
		Help:      "Total number of lazy legacy image conversions",
	},
	[]string{"result"}, // result: converted|reused|not_legacy|error
)

// PendingEntries is the size of the moderation queue at the last digest.
var PendingEntries = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_entries",
		Help:      "Number of entries awaiting review at the last digest run",
	},
)

// Init registers the Go runtime and process collectors.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
