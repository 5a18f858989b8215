// Package services – Prometheus instrumentation for the pipeline.
//
// Label cardinality is bounded by design: reasons and outcomes come from
// small fixed vocabularies.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// decisionsTotal counts response-strategy outcomes by reason.
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_strategy_decisions_total",
			Help: "Response strategy decisions by reason.",
		},
		[]string{"reason"},
	)

	// aiCallsTotal counts completions calls by kind (intent, activity,
	// chat, rollup) and outcome (ok, offline, error).
	aiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_ai_calls_total",
			Help: "Chat-completions calls by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// queuePendingGauge tracks the number of unprocessed pending inputs.
	queuePendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempo_queue_pending",
			Help: "Current number of unprocessed pending inputs.",
		},
	)

	// queueDrainsTotal counts drain attempts by outcome
	// (processed, retry, empty).
	queueDrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_queue_drains_total",
			Help: "Pending-queue drain attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(decisionsTotal, aiCallsTotal, queuePendingGauge, queueDrainsTotal)
}

func recordAICall(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	aiCallsTotal.WithLabelValues(kind, outcome).Inc()
}
