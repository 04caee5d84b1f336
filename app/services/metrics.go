// Package services provides the external collaborators of the journal pipeline: blob storage, the AI service, geocoding, EXIF and PDF rendering
package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Calls to external collaborators partitioned by collaborator, operation, and outcome
	collaboratorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_calls_total",
			Help: "Total number of calls made to external collaborators",
		},
		[]string{"collaborator", "operation", "outcome"},
	)

	// Collaborator call latency in seconds
	collaboratorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collaborator_call_duration_seconds",
			Help:    "External collaborator call latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collaborator", "operation", "outcome"},
	)

	// Pipeline stage runs partitioned by stage and outcome
	pipelineStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_runs_total",
			Help: "Total number of journal pipeline stage runs",
		},
		[]string{"stage", "outcome"},
	)
)

const (
	collaboratorBlobStore = "blob_store"
	collaboratorAI        = "ai"
	collaboratorGeocoder  = "geocoder"
)

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// observeCall records one collaborator call started at start.
func observeCall(collaborator, operation string, start time.Time, err error) {
	labels := prometheus.Labels{
		"collaborator": collaborator,
		"operation":    operation,
		"outcome":      outcomeOf(err),
	}
	collaboratorCallsTotal.With(labels).Inc()
	collaboratorCallDuration.With(labels).Observe(time.Since(start).Seconds())
}

// RecordStage counts one run of a pipeline stage.
func RecordStage(stage string, err error) {
	pipelineStageTotal.WithLabelValues(stage, outcomeOf(err)).Inc()
}
