// Package metrics holds the Prometheus instruments of the relational runtime.
//
// Instruments register with the default registry on package init, the way
// promauto is used throughout the codebase. Label sets stay small: anchor
// names (tens per registry), qualifier words, and fixed outcome labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "giant"

var (
	anchorRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "anchor",
		Name:      "refresh_total",
		Help:      "Dynamic anchor refresh attempts by outcome.",
	}, []string{"anchor", "outcome"})

	conditionEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "context",
		Name:      "condition_evaluations_total",
		Help:      "Relational condition evaluations by qualifier and result.",
	}, []string{"qualifier", "result"})

	suggestedActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "context",
		Name:      "suggested_actions_total",
		Help:      "Suggested actions returned to callers by priority.",
	}, []string{"priority"})

	optimizerEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "optimizer",
		Name:      "evaluations_total",
		Help:      "Solution evaluations by score cache outcome.",
	}, []string{"cache"})

	optimizerCallbackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "optimizer",
		Name:      "callback_errors_total",
		Help:      "Objective evaluator and constraint validator failures.",
	}, []string{"kind"})

	optimizerHistorySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "optimizer",
		Name:      "history_size",
		Help:      "Scored solutions retained by the most recently active optimizer; with several optimizers the last writer wins.",
	})
)

// Refresh outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// ObserveRefresh records one dynamic anchor refresh attempt.
func ObserveRefresh(anchor string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	anchorRefreshTotal.WithLabelValues(anchor, outcome).Inc()
}

// ObserveCondition records one condition evaluation.
// A non-nil err is counted as result "error" regardless of result.
func ObserveCondition(qualifier string, result bool, err error) {
	label := "false"
	switch {
	case err != nil:
		label = "error"
	case result:
		label = "true"
	}
	conditionEvaluationsTotal.WithLabelValues(qualifier, label).Inc()
}

// ObserveSuggestedAction records an action handed to a caller.
func ObserveSuggestedAction(priority string) {
	suggestedActionsTotal.WithLabelValues(priority).Inc()
}

// ObserveEvaluation records a solution evaluation; hit reports a cache hit.
func ObserveEvaluation(hit bool) {
	if hit {
		optimizerEvaluationsTotal.WithLabelValues("hit").Inc()
		return
	}
	optimizerEvaluationsTotal.WithLabelValues("miss").Inc()
}

// ObserveCallbackError records a failing objective ("objective") or
// constraint ("constraint") callback.
func ObserveCallbackError(kind string) {
	optimizerCallbackErrorsTotal.WithLabelValues(kind).Inc()
}

// SetHistorySize reports the retained history length of the calling
// optimizer. The gauge is process-wide, so it tracks whichever optimizer
// recorded last.
func SetHistorySize(n int) {
	optimizerHistorySize.Set(float64(n))
}
