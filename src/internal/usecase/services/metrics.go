package services

import (
	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reversal_engine_operation_outcomes_total",
			Help: "Orchestrated operations by result",
		},
		[]string{"operation", "result"},
	)

	stepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reversal_engine_step_failures_total",
			Help: "Failed workflow steps by operation, step and kind",
		},
		[]string{"operation", "step", "kind"},
	)

	moneyMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reversal_engine_money_movements_total",
			Help: "Client transfers submitted by type",
		},
		[]string{"type"},
	)
)

func observeOutcome(operation string, outcome domain.Outcome) domain.Outcome {
	result := "success"
	switch {
	case outcome.IsInvalidRequest():
		result = "invalid"
	case !outcome.Success:
		result = "failure"
	}
	operationOutcomes.WithLabelValues(operation, result).Inc()
	return outcome
}

func observeError(operation string, err error) error {
	result := "success"
	if err != nil {
		result = "failure"
	}
	operationOutcomes.WithLabelValues(operation, result).Inc()
	return err
}
