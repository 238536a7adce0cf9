package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kyc_records_enqueued_total",
		Help: "Total number of client records placed on the evaluation queue.",
	})

	RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kyc_records_dropped_total",
		Help: "Total number of client records rejected due to a full queue.",
	})

	RecordsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyc_records_evaluated_total",
		Help: "Total number of client records decided, labelled by decision.",
	}, []string{"decision"})

	RuleOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyc_rule_outcomes_total",
		Help: "Rule outcomes, labelled by rule name and outcome (pass, fail, skip).",
	}, []string{"rule", "outcome"})

	NarrativeExtractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyc_narrative_extractions_total",
		Help: "Narrative fact extractions, labelled by status.",
	}, []string{"status"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kyc_evaluation_duration_ms",
		Help:    "Per-record evaluation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kyc_queue_utilization_ratio",
		Help: "Current evaluation queue utilization (0–1).",
	})
)
