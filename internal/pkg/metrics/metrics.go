// Package metrics defines the custom Prometheus metrics of the conveyor
// dashboard. Metrics register themselves with the default registry on import,
// which the /metrics endpoint exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sortify"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts credential checks.
// Label:
//   - reason: "accepted", "invalid_credentials", "backend_unavailable" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"reason"},
)

// ClassificationsTotal counts account classifications applied by session
// controllers, plus the ones discarded as stale.
// Label:
//   - state: "authenticated", "pending_approval", "denied", "anonymous" or "stale"
var ClassificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Total number of session classifications, by resulting state.",
	},
	[]string{"state"},
)

// ActiveVisitors tracks the visitor sessions currently held in memory.
var ActiveVisitors = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_visitors",
		Help:      "Current number of visitor sessions held by the server.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// SignUpsTotal counts account provisioning attempts.
// Labels:
//   - origin: "self" for the public sign-up form, "admin" for admin-created accounts
//   - result: "created" or "failed"
var SignUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of account provisioning attempts.",
	},
	[]string{"origin", "result"},
)

// ApprovalDecisionsTotal counts admin approval decisions.
// Label:
//   - decision: "approved" or "rejected"
var ApprovalDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_decisions_total",
		Help:      "Total number of approval decisions made by admins.",
	},
	[]string{"decision"},
)

// ── Task scheduler metrics ────────────────────────────────────────────────────

// TaskQueueDepth tracks the number of tasks waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var TaskQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "task_queue_depth",
		Help:      "Current number of tasks pending in each scheduler worker channel.",
	},
	[]string{"worker_id"},
)

// TaskDuration measures how long a scheduled task runs.
var TaskDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Duration of scheduled tasks from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
)

// TasksInlineTotal counts tasks run on the caller because the scheduler was not running.
var TasksInlineTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_inline_total",
		Help:      "Total number of tasks run on the calling goroutine because the scheduler was not running.",
	},
)
