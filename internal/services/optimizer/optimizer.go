// Package optimizer searches for the split ratio between the two venues that
// maximizes combined swap output.
package optimizer

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
)

const (
	// MaxIterations bounds the ternary narrowing; combined with the integer
	// ratio grid this is far more than [0,100] ever needs.
	MaxIterations = 10

	// ratioMin/ratioMax are the search bounds; both endpoints degenerate to
	// single-venue trades and are always evaluated.
	ratioMin = 0
	ratioMax = 100
)

var (
	// ErrNoUsableRatio is returned when both endpoint evaluations fail, i.e.
	// neither venue can produce a quote for any part of the trade.
	ErrNoUsableRatio = errors.New("optimizer: no usable split ratio")
)

// QuoteFunc fetches a venue's output quote for one input amount. A zero input
// amount must yield a zero quote without a remote call.
type QuoteFunc func(ctx context.Context, amountIn uint64) (domain.Quote, error)

// PlanFunc computes the two funding plans for one candidate ratio. The
// implementation is expected to reserve plan A's claims before computing plan
// B; the optimizer only cares about the adjusted amounts.
type PlanFunc func(ratio uint8) (planPool, planDirect domain.FundingPlan)

// Optimizer drives the planners and the two venue quote functions through a
// bounded ternary search over the integer ratio grid [0,100].
type Optimizer struct {
	maxIterations int
}

func New(maxIterations int) *Optimizer {
	if maxIterations <= 0 {
		maxIterations = MaxIterations
	}
	return &Optimizer{maxIterations: maxIterations}
}

// evaluation is one probed ratio with its quotes. usable is false when a
// quote call failed; such points are never candidates but do not abort the
// search.
type evaluation struct {
	ratio      uint8
	planPool   domain.FundingPlan
	planDirect domain.FundingPlan
	quotePool  domain.Quote
	quoteDir   domain.Quote
	totalOut   uint64
	usable     bool
}

// Search runs the ternary search and returns the plan pair for the best ratio
// found, re-verified with one final quote pass.
//
// The combined-output curve is assumed unimodal (each venue's marginal price
// worsens with size), but fee cliffs near the edges break smoothness, so two
// corrections apply: when an endpoint beats both interior probes the bracket
// narrows toward that endpoint, and the answer is always the global best over
// every evaluated point, never just the final bracket. Convergence is a
// stopping heuristic, not a correctness guarantee.
func (o *Optimizer) Search(
	ctx context.Context,
	total uint64,
	plan PlanFunc,
	quotePool, quoteDirect QuoteFunc,
) (*domain.SplitPlan, error) {
	cache := make(map[uint8]evaluation, o.maxIterations*2+2)

	eval := func(ratio uint8) evaluation {
		if ev, ok := cache[ratio]; ok {
			return ev
		}
		ev := o.evaluate(ctx, ratio, plan, quotePool, quoteDirect)
		cache[ratio] = ev
		return ev
	}

	left, right := uint8(ratioMin), uint8(ratioMax)
	fLeft := eval(left)
	fRight := eval(right)
	if !fLeft.usable && !fRight.usable {
		return nil, ErrNoUsableRatio
	}

	best := better(fLeft, fRight)

	iterations := 0
	for right-left > 1 && iterations < o.maxIterations {
		iterations++

		third := (right - left) / 3
		m1 := left + third
		m2 := right - third
		if m1 == left {
			m1++
		}
		if m2 == right {
			m2--
		}
		if m2 < m1 {
			m2 = m1
		}

		f1 := eval(m1)
		f2 := eval(m2)
		best = better(best, better(f1, f2))

		// Fee-driven non-smoothness near the edges: when an endpoint
		// dominates both probes, narrow toward it instead of following the
		// naive rule.
		switch {
		case fLeft.usable && outOf(fLeft) > outOf(f1) && outOf(fLeft) > outOf(f2):
			right = m1
			fRight = f1
		case fRight.usable && outOf(fRight) > outOf(f1) && outOf(fRight) > outOf(f2):
			left = m2
			fLeft = f2
		case outOf(f1) < outOf(f2):
			left = m1
			fLeft = f1
		default:
			right = m2
			fRight = f2
		}
	}

	if !best.usable {
		return nil, ErrNoUsableRatio
	}
	metrics.OptimizerIterations.Observe(float64(iterations))

	// Quotes age while the search runs; re-verify the winner before handing
	// it to execution.
	final := o.evaluate(ctx, best.ratio, plan, quotePool, quoteDirect)
	if final.usable {
		best = final
	}

	return &domain.SplitPlan{
		Ratio:                best.ratio,
		PlanPool:             best.planPool,
		PlanDirect:           best.planDirect,
		OutPool:              best.quotePool.AmountOut,
		OutDirect:            best.quoteDir.AmountOut,
		TotalOut:             best.totalOut,
		PriceImpactPoolBps:   best.quotePool.PriceImpactBps,
		PriceImpactDirectBps: best.quoteDir.PriceImpactBps,
	}, nil
}

// evaluate prices one candidate ratio: plan both venues with cross
// reservations, then quote both adjusted amounts in parallel.
func (o *Optimizer) evaluate(
	ctx context.Context,
	ratio uint8,
	plan PlanFunc,
	quotePool, quoteDirect QuoteFunc,
) evaluation {
	planPool, planDirect := plan(ratio)

	ev := evaluation{ratio: ratio, planPool: planPool, planDirect: planDirect}
	if planPool.IsZero() && planDirect.IsZero() {
		return ev
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if planPool.IsZero() {
			return nil
		}
		q, err := quotePool(gctx, planPool.AdjustedAmount)
		if err != nil {
			return err
		}
		ev.quotePool = q
		return nil
	})
	g.Go(func() error {
		if planDirect.IsZero() {
			return nil
		}
		q, err := quoteDirect(gctx, planDirect.AdjustedAmount)
		if err != nil {
			return err
		}
		ev.quoteDir = q
		return nil
	})

	if err := g.Wait(); err != nil {
		// Unusable candidate, not a search failure.
		metrics.OptimizerQuoteFailures.Inc()
		return ev
	}

	ev.totalOut = ev.quotePool.AmountOut + ev.quoteDir.AmountOut
	ev.usable = ev.totalOut > 0
	return ev
}

func outOf(ev evaluation) uint64 {
	if !ev.usable {
		return 0
	}
	return ev.totalOut
}

func better(a, b evaluation) evaluation {
	if !b.usable {
		return a
	}
	if !a.usable || b.totalOut > a.totalOut {
		return b
	}
	return a
}
