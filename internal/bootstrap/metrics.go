package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the bootstrap metrics. It is separate from the default
// registry so the textfile output only carries fleetboot series.
var Registry = prometheus.NewRegistry()

var (
	stateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetboot",
			Subsystem: "bootstrap",
			Name:      "state_transitions_total",
			Help:      "Total number of bootstrap state transitions",
		},
		[]string{"fleet", "from", "to"},
	)

	pollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetboot",
			Subsystem: "bootstrap",
			Name:      "poll_attempts_total",
			Help:      "Total number of poll attempts by step and result",
		},
		[]string{"fleet", "step", "result"},
	)

	bootDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fleetboot",
			Subsystem: "bootstrap",
			Name:      "duration_seconds",
			Help:      "Duration of the bootstrap sequence in seconds by final state",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5min
		},
		[]string{"fleet", "state"},
	)

	nodeRole = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fleetboot",
			Subsystem: "bootstrap",
			Name:      "role",
			Help:      "Role the local node resolved to (1 for the active role)",
		},
		[]string{"fleet", "role"},
	)
)

func init() {
	Registry.MustRegister(
		stateTransitionsTotal,
		pollAttemptsTotal,
		bootDuration,
		nodeRole,
	)
}

// recordTransitionMetric records a state transition.
func recordTransitionMetric(fleet string, from, to State) {
	stateTransitionsTotal.WithLabelValues(fleet, string(from), string(to)).Inc()
}

// recordPollAttemptMetric records one poll attempt.
func recordPollAttemptMetric(fleet, step, result string) {
	pollAttemptsTotal.WithLabelValues(fleet, step, result).Inc()
}

// recordBootMetric records the end of a bootstrap sequence.
func recordBootMetric(fleet string, final State, seconds float64) {
	bootDuration.WithLabelValues(fleet, string(final)).Observe(seconds)
}

// recordRoleMetric records the resolved role.
func recordRoleMetric(fleet, role string) {
	nodeRole.WithLabelValues(fleet, role).Set(1)
}

// WriteTextfile writes all bootstrap metrics in the text exposition format,
// atomically, for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
