// Package metrics exposes Prometheus collectors for review activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the review counters
type Collector struct {
	reviewsTotal     *prometheus.CounterVec
	reviewErrors     *prometheus.CounterVec
	auditLogFailures prometheus.Counter
	remindersSent    prometheus.Counter
	httpRequests     *prometheus.CounterVec
}

// NewCollector registers the collectors with reg under namespace.
// A nil reg gets a private registry, which keeps tests independent.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Collector{
		reviewsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_total",
				Help:      "Graded reviews by outcome (pass or lapse)",
			},
			[]string{"outcome"},
		),
		reviewErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "review_errors_total",
				Help:      "Rejected or failed review requests by error kind",
			},
			[]string{"kind"},
		),
		auditLogFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_log_failures_total",
				Help:      "Review audit log writes that failed and were skipped",
			},
		),
		remindersSent: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_sent_total",
				Help:      "Due-review reminders delivered",
			},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// RecordReview counts a successfully graded review.
func (c *Collector) RecordReview(passed bool) {
	if c == nil {
		return
	}
	outcome := "lapse"
	if passed {
		outcome = "pass"
	}
	c.reviewsTotal.WithLabelValues(outcome).Inc()
}

// RecordReviewError counts a review request that ended in an error of the given kind.
func (c *Collector) RecordReviewError(kind string) {
	if c == nil {
		return
	}
	c.reviewErrors.WithLabelValues(kind).Inc()
}

// RecordAuditLogFailure counts a skipped audit log write.
func (c *Collector) RecordAuditLogFailure() {
	if c == nil {
		return
	}
	c.auditLogFailures.Inc()
}

// RecordReminderSent counts a delivered reminder.
func (c *Collector) RecordReminderSent() {
	if c == nil {
		return
	}
	c.remindersSent.Inc()
}

// RecordHTTPRequest counts a served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path, status string) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, path, status).Inc()
}
