// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToolCallsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_completed_total",
			Help: "Total number of tool calls completed by adapter",
		},
		[]string{"tool"},
	)

	ToolCallsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_rejected_total",
			Help: "Total number of tool calls rejected by the dispatcher guards",
		},
		[]string{"tool", "error_code"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tool_call_duration_seconds",
			Help: "Duration of tool adapter execution in seconds",
		},
		[]string{"tool"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_sessions_active",
			Help: "Number of sessions currently open in the store",
		},
	)

	EscalationsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalations_routed_total",
			Help: "Total number of sessions routed to a human channel",
		},
		[]string{"route"},
	)
)
