// Package metrics registers the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BrowserSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "browser_sessions_active",
		Help: "Number of live browser sessions currently held by the pool.",
	})

	BrowserSessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "browser_sessions_created_total",
		Help: "Total browser sessions ever created.",
	})

	BrowserActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browser_actions_total",
		Help: "Total browser actions executed, by action kind.",
	}, []string{"action"})

	AgentRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_runs_total",
		Help: "Total agent runs finished, by agent kind and terminal status.",
	}, []string{"agent", "status"})

	AgentRunDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_run_duration_seconds",
		Help:    "Agent run wall-clock duration in seconds, by agent kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"agent"})

	QueueJobTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_job_total",
		Help: "Total queue jobs processed, by queue name and outcome.",
	}, []string{"queue", "status"})
)
