// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the meeting events service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_events"

// Outcome label values.
const (
	OutcomeOK           = "ok"
	OutcomeNoop         = "noop"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
	OutcomeSkipped      = "skipped"
	OutcomeRetried      = "retried"
	OutcomeDeadLettered = "dead_lettered"
)

// Metrics holds all Prometheus metrics for the service.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Webhook metrics
	WebhookDeliveries *prometheus.CounterVec

	// Job metrics
	JobsEnqueued  *prometheus.CounterVec
	JobExecutions *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	DeadLetters   *prometheus.CounterVec
	StepCache     *prometheus.CounterVec

	// Outbound request metrics
	OutboundLatency *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhookDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Total number of webhook deliveries by event type and outcome",
		}, []string{"event_type", "outcome"}),

		JobsEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Total number of background jobs enqueued",
		}, []string{"job"}),
		JobExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_executions_total",
			Help:      "Total number of job executions by job and outcome",
		}, []string{"job", "outcome"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of a single job execution in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		DeadLetters: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_dead_letters_total",
			Help:      "Total number of jobs moved to the dead letter subject",
		}, []string{"job"}),
		StepCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_step_cache_total",
			Help:      "Step result cache lookups by result (hit or miss)",
		}, []string{"result"}),

		OutboundLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbound_request_duration_seconds",
			Help:      "Latency of outbound HTTP requests by client and status class",
			Buckets:   prometheus.DefBuckets,
		}, []string{"client", "status"}),
	}
}

// ObserveWebhook counts a webhook delivery.
func (m *Metrics) ObserveWebhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookDeliveries.WithLabelValues(eventType, outcome).Inc()
}

// ObserveEnqueue counts an enqueued job.
func (m *Metrics) ObserveEnqueue(job string) {
	if m == nil {
		return
	}
	m.JobsEnqueued.WithLabelValues(job).Inc()
}

// ObserveJob records the outcome and duration of a job execution.
func (m *Metrics) ObserveJob(job, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobExecutions.WithLabelValues(job, outcome).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	if outcome == OutcomeDeadLettered {
		m.DeadLetters.WithLabelValues(job).Inc()
	}
}

// ObserveStep records a step cache lookup.
func (m *Metrics) ObserveStep(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.StepCache.WithLabelValues(result).Inc()
}

// ObserveOutbound records the latency of an outbound request.
func (m *Metrics) ObserveOutbound(client, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OutboundLatency.WithLabelValues(client, status).Observe(elapsed.Seconds())
}
