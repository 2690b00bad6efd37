// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus metrics for the playback
// controller.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbeTotal tracks classification probe outcomes.
	ProbeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_probe_total",
		Help: "Total number of classification probes by outcome",
	}, []string{"outcome"})

	// ProbeDuration tracks how long classification probes take.
	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playctl_probe_duration_seconds",
		Help:    "Classification probe duration",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	})

	// EngineSelectedTotal tracks playback engine selection outcomes.
	EngineSelectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_engine_selected_total",
		Help: "Total number of engine selections by kind and reason",
	}, []string{"kind", "reason"})

	// SessionRetryTotal tracks session error retries by error class.
	SessionRetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_session_retry_total",
		Help: "Total number of in-session recovery attempts by error class",
	}, []string{"class"})

	// SessionFatalTotal tracks terminal session failures by error class.
	SessionFatalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_session_fatal_total",
		Help: "Total number of terminal session failures by error class",
	}, []string{"class"})

	// SessionTeardownTotal counts completed session teardowns.
	SessionTeardownTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playctl_session_teardown_total",
		Help: "Total number of session teardowns",
	})

	// AudioIssueTotal counts flagged audio incompatibilities by
	// detection tier.
	AudioIssueTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_audio_issue_total",
		Help: "Total number of flagged audio incompatibilities by tier",
	}, []string{"tier"})

	// SourceSwitchTotal counts user-driven source switches.
	SourceSwitchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playctl_source_switch_total",
		Help: "Total number of source switches",
	})
)

// IncProbe records a classification probe outcome.
func IncProbe(outcome string) {
	ProbeTotal.WithLabelValues(outcome).Inc()
}

// ObserveProbeDuration records the duration of a classification probe.
func ObserveProbeDuration(d time.Duration) {
	ProbeDuration.Observe(d.Seconds())
}

// IncEngineSelected records an engine selection.
func IncEngineSelected(kind, reason string) {
	EngineSelectedTotal.WithLabelValues(kind, reason).Inc()
}

// IncSessionRetry records a recovery attempt.
func IncSessionRetry(class string) {
	SessionRetryTotal.WithLabelValues(class).Inc()
}

// IncSessionFatal records a terminal session failure.
func IncSessionFatal(class string) {
	SessionFatalTotal.WithLabelValues(class).Inc()
}

// IncSessionTeardown records a completed teardown.
func IncSessionTeardown() {
	SessionTeardownTotal.Inc()
}

// IncAudioIssue records a flagged audio incompatibility.
func IncAudioIssue(tier string) {
	AudioIssueTotal.WithLabelValues(tier).Inc()
}

// IncSourceSwitch records a source switch.
func IncSourceSwitch() {
	SourceSwitchTotal.Inc()
}
