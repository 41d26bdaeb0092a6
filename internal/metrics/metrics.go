// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InterviewsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mockprep_interviews_started_total",
			Help: "Total number of interview sessions started",
		},
	)

	InterviewsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mockprep_interviews_completed_total",
			Help: "Total number of interview sessions finalized with a report",
		},
	)

	QuestionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_questions_issued_total",
			Help: "Total number of questions issued, by category",
		},
		[]string{"category"},
	)

	AnswersEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_answers_evaluated_total",
			Help: "Total number of answers evaluated, by outcome (scored or auto_fail)",
		},
		[]string{"outcome"},
	)

	LockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mockprep_session_lock_conflicts_total",
			Help: "Total number of session operations rejected by concurrency control",
		},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_llm_requests_total",
			Help: "Total number of LLM requests, by model, purpose and status",
		},
		[]string{"model", "purpose", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockprep_llm_request_duration_seconds",
			Help:    "Duration of LLM requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"model", "purpose"},
	)

	LLMRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_llm_retries_total",
			Help: "Total number of retried LLM requests, by purpose and reason",
		},
		[]string{"purpose", "reason"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_llm_tokens_total",
			Help: "Total number of LLM tokens consumed, by model and direction",
		},
		[]string{"model", "direction"},
	)

	TranscriptionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mockprep_transcription_duration_seconds",
			Help:    "Duration of audio transcription calls in seconds",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockprep_http_requests_total",
			Help: "Total number of HTTP requests, by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mockprep_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"route", "method"},
	)
)
