// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_stage_submissions_total",
			Help: "Total number of stage submissions by stage and result",
		},
		[]string{"stage", "result"},
	)

	ResolutionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_resolution_outcomes_total",
			Help: "Total number of identity resolution attempts by outcome",
		},
		[]string{"outcome"},
	)

	DocumentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_document_uploads_total",
			Help: "Total number of document uploads by doc type and result",
		},
		[]string{"doc_type", "result"},
	)

	DocumentUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_document_upload_duration_seconds",
			Help: "Duration of individual document uploads in seconds",
		},
		[]string{"doc_type"},
	)

	LeadsPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "leads_poll_duration_seconds",
			Help: "Duration of pending-orders poll round trips in seconds",
		},
	)

	LeadsStaleResponsesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_stale_responses_dropped_total",
			Help: "Poll responses discarded because a newer response was already applied",
		},
	)
)
