package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechcoach_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "speechcoach_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	ActiveDrafts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speechcoach_active_drafts",
			Help: "Number of session drafts currently held in memory",
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechcoach_session_transitions_total",
			Help: "Session state transitions by target state",
		},
		[]string{"state"},
	)

	DifficultyChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechcoach_difficulty_changes_total",
			Help: "Difficulty changes made by the emotion policy",
		},
		[]string{"from", "to"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechcoach_emotion_classifications_total",
			Help: "Emotion classifications by outcome (ok, fallback, discarded)",
		},
		[]string{"outcome"},
	)

	DegradedSamplers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speechcoach_emotion_degraded_samplers",
			Help: "Number of emotion samplers currently in degraded mode",
		},
	)

	Analyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechcoach_analyses_total",
			Help: "Completed session analyses by source (ai, fallback)",
		},
		[]string{"source"},
	)

	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "speechcoach_analysis_latency_seconds",
			Help: "Time spent synthesizing a session result",
		},
	)

	UploadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speechcoach_upload_failures_total",
			Help: "Combined audio uploads that failed",
		},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speechcoach_persistence_failures_total",
			Help: "Session records that could not be saved",
		},
	)
)
