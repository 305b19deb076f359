// Package metrics holds the process-wide Prometheus collectors for scoring and calibration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuildsScored counts scoring calls by resulting tier ("undefined" when nothing could be scored)
	GuildsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildscore_guilds_scored_total",
		Help: "Total guilds scored by tier",
	}, []string{"tier"})

	// ScoreDuration tracks end-to-end scoring latency
	ScoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guildscore_score_duration_seconds",
		Help:    "Guild scoring duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
	})

	// ComponentExclusions counts components left out of a composite, by component and reason
	ComponentExclusions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildscore_component_exclusions_total",
		Help: "Components excluded from the composite by status",
	}, []string{"component", "status"})

	// CalibrationSamples counts evaluated reference guilds
	CalibrationSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildscore_calibration_samples_total",
		Help: "Total reference guilds evaluated during calibration",
	}, []string{"stratum"})

	// Uncalibrated counts lookups that found no usable profile
	Uncalibrated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildscore_uncalibrated_total",
		Help: "Total normalization lookups without a usable profile",
	}, []string{"metric"})
)
