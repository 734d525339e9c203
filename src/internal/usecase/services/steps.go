package services

import (
	"context"
	"errors"

	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

type stepKind string

const (
	// moneyStep moves funds. After one fails, later money steps are skipped.
	moneyStep stepKind = "money"
	// recordStep writes evidence about effects already committed. It always runs.
	recordStep stepKind = "record"
)

var errStepSkipped = errors.New("step skipped after earlier money movement failure")

type stepResult struct {
	name    string
	kind    stepKind
	err     error
	skipped bool
}

// stepRunner executes workflow steps in order and never undoes a step that succeeded.
type stepRunner struct {
	operation   string
	fields      logger.Fields
	moneyHalted bool
	results     []stepResult
	onFailure   func(ctx context.Context, name string, err error)
}

func newStepRunner(operation string, fields logger.Fields) *stepRunner {
	return &stepRunner{operation: operation, fields: fields}
}

func (r *stepRunner) money(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return r.run(ctx, name, moneyStep, fn)
}

func (r *stepRunner) record(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return r.run(ctx, name, recordStep, fn)
}

func (r *stepRunner) run(ctx context.Context, name string, kind stepKind, fn func(ctx context.Context) error) error {
	if kind == moneyStep && r.moneyHalted {
		r.results = append(r.results, stepResult{name: name, kind: kind, err: errStepSkipped, skipped: true})
		logger.Info(r.operation+" step skipped", r.stepFields(name, kind))
		return errStepSkipped
	}

	err := fn(ctx)
	r.results = append(r.results, stepResult{name: name, kind: kind, err: err})
	if err == nil {
		return nil
	}

	if kind == moneyStep {
		r.moneyHalted = true
	}
	stepFailures.WithLabelValues(r.operation, name, string(kind)).Inc()
	logger.Error(r.operation+" step failed", err, r.stepFields(name, kind))
	if r.onFailure != nil {
		r.onFailure(ctx, name, err)
	}
	return err
}

// firstErr returns the first failure that was not a skip.
func (r *stepRunner) firstErr() error {
	for _, res := range r.results {
		if res.err != nil && !res.skipped {
			return res.err
		}
	}
	return nil
}

func (r *stepRunner) firstFailedStep() string {
	for _, res := range r.results {
		if res.err != nil && !res.skipped {
			return res.name
		}
	}
	return ""
}

func (r *stepRunner) stepFields(name string, kind stepKind) logger.Fields {
	fields := logger.Fields{"step": name, "kind": string(kind)}
	for k, v := range r.fields {
		fields[k] = v
	}
	return fields
}
