package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingosense_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"stage"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_pipeline_runs_total",
			Help: "Total number of pipeline runs by source language and status (success, partial, failed, invalid)",
		},
		[]string{"source", "status"},
	)

	tokenOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_transliteration_tokens_total",
			Help: "Transliterated tokens by language and outcome (lexicon, transliterated, passthrough, non_latin)",
		},
		[]string{"language", "outcome"},
	)

	targetFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_pipeline_target_failures_total",
			Help: "Target translations that failed and were left out of the result",
		},
		[]string{"source", "target"},
	)
)

func observeStage(stage Stage, start time.Time) {
	stageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
