package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/venue-router/internal/domain"
)

const testTotal = uint64(1_000_000)

// feeFreePlan splits the total at an integer percentage with no fee
// deductions, which makes expected outputs exact.
func feeFreePlan(total uint64) PlanFunc {
	return func(ratio uint8) (domain.FundingPlan, domain.FundingPlan) {
		amountDirect := total * uint64(ratio) / 100
		amountPool := total - amountDirect
		return domain.FundingPlan{FromDeposited: amountPool, AdjustedAmount: amountPool},
			domain.FundingPlan{FromWallet: amountDirect, AdjustedAmount: amountDirect}
	}
}

// Quadratic-impact curves with distinct depths; the combined output peaks at
// ratio 50 exactly.
func poolCurve(ctx context.Context, amountIn uint64) (domain.Quote, error) {
	return domain.Quote{
		AmountIn:  amountIn,
		AmountOut: 2*amountIn - amountIn*amountIn/1_000_000,
	}, nil
}

func directCurve(ctx context.Context, amountIn uint64) (domain.Quote, error) {
	return domain.Quote{
		AmountIn:  amountIn,
		AmountOut: 3*amountIn - amountIn*amountIn/500_000,
	}, nil
}

func TestSearchFindsInteriorOptimum(t *testing.T) {
	var planCalls int
	plan := feeFreePlan(testTotal)
	counted := func(ratio uint8) (domain.FundingPlan, domain.FundingPlan) {
		planCalls++
		return plan(ratio)
	}

	split, err := New(0).Search(context.Background(), testTotal, counted, poolCurve, directCurve)
	require.NoError(t, err)

	assert.Equal(t, uint8(50), split.Ratio)
	assert.Equal(t, uint64(1_750_000), split.TotalOut)
	assert.Equal(t, split.TotalOut, split.OutPool+split.OutDirect)
	assert.Equal(t, uint64(500_000), split.PlanPool.AdjustedAmount)
	assert.Equal(t, uint64(500_000), split.PlanDirect.AdjustedAmount)

	// Every ratio is planned at most once during the search plus one
	// re-verification of the winner.
	assert.LessOrEqual(t, planCalls, 2*MaxIterations+3)
}

func TestSearchPrefersSingleVenueWhenDominant(t *testing.T) {
	// No price impact, the direct venue simply pays 4x the pool rate; the
	// best split routes everything there.
	flatPool := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		return domain.Quote{AmountIn: amountIn, AmountOut: amountIn / 2}, nil
	}
	flatDirect := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		return domain.Quote{AmountIn: amountIn, AmountOut: amountIn * 2}, nil
	}

	split, err := New(0).Search(context.Background(), testTotal, feeFreePlan(testTotal), flatPool, flatDirect)
	require.NoError(t, err)

	assert.Equal(t, uint8(100), split.Ratio)
	assert.Equal(t, uint64(2_000_000), split.TotalOut)
	assert.True(t, split.PlanPool.IsZero())
}

func TestSearchToleratesTransientQuoteFailures(t *testing.T) {
	// The pool venue errors for two interior amounts; those candidates become
	// unusable but the search still reaches the true optimum.
	flakyPool := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		if amountIn == 670_000 || amountIn == 660_000 {
			return domain.Quote{}, errors.New("venue timeout")
		}
		return poolCurve(ctx, amountIn)
	}

	split, err := New(0).Search(context.Background(), testTotal, feeFreePlan(testTotal), flakyPool, directCurve)
	require.NoError(t, err)

	assert.Equal(t, uint8(50), split.Ratio)
	assert.Equal(t, uint64(1_750_000), split.TotalOut)
}

func TestSearchFailsWhenNoEndpointUsable(t *testing.T) {
	dead := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		return domain.Quote{}, errors.New("venue down")
	}

	_, err := New(0).Search(context.Background(), testTotal, feeFreePlan(testTotal), dead, dead)
	require.ErrorIs(t, err, ErrNoUsableRatio)
}

func TestSearchFailsWhenNothingPlannable(t *testing.T) {
	zeroPlan := func(ratio uint8) (domain.FundingPlan, domain.FundingPlan) {
		return domain.FundingPlan{}, domain.FundingPlan{}
	}

	_, err := New(0).Search(context.Background(), testTotal, zeroPlan, poolCurve, directCurve)
	require.ErrorIs(t, err, ErrNoUsableRatio)
}

func TestSearchSkipsQuotesForZeroLegs(t *testing.T) {
	// At the endpoints one leg is zero; its quote function must not be called.
	var poolCalls, directCalls int
	countingPool := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		poolCalls++
		require.NotZero(t, amountIn)
		return poolCurve(ctx, amountIn)
	}
	countingDirect := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		directCalls++
		require.NotZero(t, amountIn)
		return directCurve(ctx, amountIn)
	}

	_, err := New(0).Search(context.Background(), testTotal, feeFreePlan(testTotal), countingPool, countingDirect)
	require.NoError(t, err)
	assert.Positive(t, poolCalls)
	assert.Positive(t, directCalls)
}

func BenchmarkSearch(b *testing.B) {
	opt := New(0)
	plan := feeFreePlan(testTotal)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = opt.Search(ctx, testTotal, plan, poolCurve, directCurve)
	}
}
