// Package executor runs the ordered remote-operation pipelines that settle a
// planned trade on one or both venues.
package executor

import (
	"context"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
)

// stepOutcome is what one step's run function reports back to the pipeline.
type stepOutcome struct {
	skipped bool
	note    string
	amount  uint64
	err     error
}

func skip(note string) stepOutcome {
	return stepOutcome{skipped: true, note: note}
}

func done(amount uint64, note string) stepOutcome {
	return stepOutcome{amount: amount, note: note}
}

func fail(err error) stepOutcome {
	return stepOutcome{err: err}
}

// stepDef pairs a step kind with the closure that performs it.
type stepDef struct {
	kind domain.StepKind
	run  func(ctx context.Context) stepOutcome
}

// pipeline advances a venue's step sequence strictly left to right. Exactly
// one step is Loading at a time; completion or skip promotes the next step,
// an error halts the pipeline and leaves later steps Pending.
type pipeline struct {
	venue    domain.VenueKind
	steps    []domain.ExecutionStep
	defs     []stepDef
	observer domain.StepObserver
}

func newPipeline(venue domain.VenueKind, defs []stepDef, observer domain.StepObserver) *pipeline {
	if observer == nil {
		observer = domain.NopObserver{}
	}
	steps := make([]domain.ExecutionStep, len(defs))
	for i, d := range defs {
		steps[i] = domain.ExecutionStep{Kind: d.kind, Status: domain.StatusPending}
	}
	return &pipeline{venue: venue, steps: steps, defs: defs, observer: observer}
}

func (p *pipeline) transition(i int, status domain.StepStatus) {
	p.steps[i].Status = status
	p.observer.StepChanged(p.venue, i, p.steps[i])
	if status.Terminal() {
		metrics.ExecutionSteps.WithLabelValues(
			p.venue.String(), p.steps[i].Kind.String(), status.String(),
		).Inc()
	}
}

// run executes the pipeline. It returns the first step error, if any; the
// step list always reflects what was attempted. A cancelled context counts as
// that step failing with the cancellation reason — the in-flight remote call,
// once issued, is never interrupted mid-step.
func (p *pipeline) run(ctx context.Context) error {
	for i := range p.defs {
		if err := ctx.Err(); err != nil {
			p.steps[i].Err = "cancelled by caller: " + err.Error()
			p.transition(i, domain.StatusError)
			return err
		}

		p.transition(i, domain.StatusLoading)
		out := p.defs[i].run(ctx)

		switch {
		case out.err != nil:
			p.steps[i].Err = out.err.Error()
			p.transition(i, domain.StatusError)
			return out.err
		case out.skipped:
			p.steps[i].Note = out.note
			p.transition(i, domain.StatusSkipped)
		default:
			p.steps[i].Amount = out.amount
			p.steps[i].Note = out.note
			p.transition(i, domain.StatusComplete)
		}
	}
	return nil
}
