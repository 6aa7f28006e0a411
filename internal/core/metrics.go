package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// loadsTotal counts file loads by format and result.
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wrangle_loads_total",
		Help: "Total file loads by format and result",
	}, []string{"format", "result"})

	// operationsTotal counts operator runs by name and outcome
	// (applied, unchanged, not_applied, error).
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wrangle_operations_total",
		Help: "Total operator runs by operator and outcome",
	}, []string{"operator", "outcome"})

	// operationDuration tracks operator latency.
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wrangle_operation_duration_seconds",
		Help:    "Operator run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"operator"})

	// historyTotal counts undo and reset requests by whether they changed
	// the working table.
	historyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wrangle_history_total",
		Help: "Total undo and reset requests by action and result",
	}, []string{"action", "result"})

	// profileTotal counts profile requests served from cache or generated.
	profileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wrangle_profile_total",
		Help: "Total profile requests by source",
	}, []string{"source"})

	// sessionsActive tracks open sessions.
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wrangle_sessions_active",
		Help: "Number of open sessions",
	})

	// sessionsExpired counts sessions closed by the idle sweeper.
	sessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wrangle_sessions_expired_total",
		Help: "Total sessions closed after idling past their TTL",
	})
)

func boolResult(ok bool) string {
	if ok {
		return "changed"
	}
	return "noop"
}
