package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
)

var (
	ErrNothingToExecute = errors.New("executor: plan funds nothing")
)

// RemoteOps is the capability surface a venue exposes for settlement. Every
// call is a suspension point; timeouts belong to the transport behind the
// implementation, not to the orchestrator.
type RemoteOps interface {
	Approve(ctx context.Context, token, spender solana.PublicKey, amount uint64) error
	Transfer(ctx context.Context, token solana.PublicKey, amount uint64) error
	// Deposit moves funds into pool custody and reports the actual custodied
	// amount, which may differ from the requested one by a fee.
	Deposit(ctx context.Context, token solana.PublicKey, amount uint64) (uint64, error)
	Withdraw(ctx context.Context, token solana.PublicKey, amount uint64) error
	Swap(ctx context.Context, pair domain.TokenPair, amountIn, minAmountOut uint64) (domain.SwapOutcome, error)
}

// Request is one venue's share of a trade, carrying everything the pipeline
// needs: the plan that triggered it (authoritative — later UI state is not
// consulted), the quote it was priced against, and the allowance observed at
// planning time.
type Request struct {
	Pair      domain.TokenPair
	Token     domain.TokenInfo
	Plan      domain.FundingPlan
	QuotedOut uint64
	Allowance uint64
	Prefs     domain.ExecutionPrefs
}

// Orchestrator executes funding plans against the two venues' remote
// operations. It performs no retries; callers refresh balances and replan
// after any outcome, success or failure, since partial progress changes real
// on-chain state.
type Orchestrator struct {
	poolOps       RemoteOps
	directOps     RemoteOps
	poolSpender   solana.PublicKey
	directSpender solana.PublicKey

	defaultSlippageBps uint16
}

func NewOrchestrator(
	poolOps, directOps RemoteOps,
	poolSpender, directSpender solana.PublicKey,
	defaultSlippageBps uint16,
) *Orchestrator {
	if defaultSlippageBps == 0 {
		defaultSlippageBps = 50
	}
	return &Orchestrator{
		poolOps:            poolOps,
		directOps:          directOps,
		poolSpender:        poolSpender,
		directSpender:      directSpender,
		defaultSlippageBps: defaultSlippageBps,
	}
}

// ExecutePool runs the pool-custody venue pipeline for one plan.
func (o *Orchestrator) ExecutePool(ctx context.Context, req Request, observer domain.StepObserver) domain.VenueResult {
	return o.runVenue(ctx, domain.VenuePoolCustody, req, observer, nil)
}

// ExecuteDirect runs the direct-transfer venue pipeline for one plan.
func (o *Orchestrator) ExecuteDirect(ctx context.Context, req Request, observer domain.StepObserver) domain.VenueResult {
	return o.runVenue(ctx, domain.VenueDirectTransfer, req, observer, nil)
}

// ExecuteSplit runs both venue pipelines concurrently. When both plans move
// undeposited custody funds, the single combined deposit is issued once for
// the sum behind a rendezvous barrier, so the fee for what is logically one
// custody operation is paid once. One venue's failure never cancels the
// other's in-flight steps; overall success requires both.
//
// The observer receives transitions from both pipelines concurrently and must
// tolerate that.
func (o *Orchestrator) ExecuteSplit(ctx context.Context, poolReq, directReq Request, observer domain.StepObserver) domain.ExecutionResult {
	var barrier *custodyBarrier
	if poolReq.Plan.FromUndeposited > 0 && directReq.Plan.FromUndeposited > 0 {
		combined := poolReq.Plan.FromUndeposited + directReq.Plan.FromUndeposited
		token := poolReq.Pair.In
		barrier = newCustodyBarrier(combined, func(ctx context.Context, amount uint64) (uint64, error) {
			metrics.CombinedCustodyMoves.Inc()
			return o.poolOps.Deposit(ctx, token, amount)
		})
	}

	var (
		wg        sync.WaitGroup
		poolRes   domain.VenueResult
		directRes domain.VenueResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		poolRes = o.runVenue(ctx, domain.VenuePoolCustody, poolReq, observer, barrier)
	}()
	go func() {
		defer wg.Done()
		directRes = o.runVenue(ctx, domain.VenueDirectTransfer, directReq, observer, barrier)
	}()
	wg.Wait()

	res := domain.ExecutionResult{
		Pool:    &poolRes,
		Direct:  &directRes,
		Success: poolRes.Success() && directRes.Success(),
	}
	if res.Success {
		metrics.Executions.WithLabelValues("success").Inc()
	} else {
		metrics.Executions.WithLabelValues("failure").Inc()
	}
	return res
}

func (o *Orchestrator) runVenue(
	ctx context.Context,
	venue domain.VenueKind,
	req Request,
	observer domain.StepObserver,
	barrier *custodyBarrier,
) domain.VenueResult {
	start := time.Now()
	result := domain.VenueResult{Venue: venue}

	if req.Plan.IsZero() {
		result.Err = ErrNothingToExecute.Error()
		return result
	}

	var p *pipeline
	state := &venueState{swapIn: req.Plan.AdjustedAmount}
	if venue == domain.VenuePoolCustody {
		p = newPipeline(venue, o.poolSteps(req, state, barrier), observer)
	} else {
		p = newPipeline(venue, o.directSteps(req, state, barrier), observer)
	}

	err := p.run(ctx)
	result.Steps = p.steps
	result.AmountIn = state.swapIn
	result.AmountOut = state.swapOut
	if err != nil {
		result.Err = err.Error()
		log.Error().Err(err).Str("venue", venue.String()).Msg("[orchestrator] pipeline halted")
	}

	metrics.ExecutionDuration.WithLabelValues(venue.String()).Observe(time.Since(start).Seconds())
	return result
}

// venueState threads each step's authoritative output into the next step's
// input explicitly, instead of closures mutating shared plan fields.
type venueState struct {
	swapIn  uint64
	swapOut uint64
}

// poolSteps builds the pool-custody pipeline:
// Prepare -> Deposit -> Swap -> Withdraw.
func (o *Orchestrator) poolSteps(req Request, state *venueState, barrier *custodyBarrier) []stepDef {
	plan := req.Plan
	token := req.Token

	prepareKind := domain.StepTransfer
	if token.Standard.RequiresAllowance() {
		prepareKind = domain.StepApprove
	}

	return []stepDef{
		{kind: prepareKind, run: func(ctx context.Context) stepOutcome {
			if plan.FromWallet == 0 {
				return skip("funds already in custody")
			}
			if token.Standard.RequiresAllowance() {
				if req.Allowance >= plan.FromWallet {
					return skip("existing approval reused")
				}
				if err := o.poolOps.Approve(ctx, token.Mint, o.poolSpender, plan.FromWallet); err != nil {
					return fail(fmt.Errorf("approve: %w", err))
				}
				return done(plan.FromWallet, "")
			}
			if err := o.poolOps.Transfer(ctx, token.Mint, plan.FromWallet); err != nil {
				return fail(fmt.Errorf("transfer: %w", err))
			}
			return done(plan.FromWallet, "")
		}},
		{kind: domain.StepDeposit, run: func(ctx context.Context) stepOutcome {
			if plan.FromUndeposited == 0 && plan.FromWallet == 0 {
				return skip("fully funded from deposited balance")
			}

			if barrier != nil {
				// The combined deposit covers both venues' undeposited funds.
				if _, err := barrier.await(ctx); err != nil {
					return fail(fmt.Errorf("combined deposit: %w", err))
				}
				if plan.FromWallet > 0 {
					if _, err := o.poolOps.Deposit(ctx, token.Mint, plan.FromWallet); err != nil {
						return fail(fmt.Errorf("deposit: %w", err))
					}
				}
				// Fees were already priced into the plan; the plan's adjusted
				// amount stays authoritative.
				return done(state.swapIn, "combined custody deposit")
			}

			actual, err := o.poolOps.Deposit(ctx, token.Mint, plan.FromUndeposited+plan.FromWallet)
			if err != nil {
				return fail(fmt.Errorf("deposit: %w", err))
			}
			// The venue's answer wins over our fee arithmetic.
			state.swapIn = plan.FromDeposited + actual
			return done(actual, "")
		}},
		{kind: domain.StepSwap, run: func(ctx context.Context) stepOutcome {
			minOut := minAmountOut(req.QuotedOut, o.slippage(req.Prefs))
			outcome, err := o.poolOps.Swap(ctx, req.Pair, state.swapIn, minOut)
			if err != nil {
				return fail(fmt.Errorf("swap: %w", err))
			}
			state.swapOut = outcome.AmountOut
			return done(outcome.AmountOut, "")
		}},
		{kind: domain.StepWithdraw, run: func(ctx context.Context) stepOutcome {
			if req.Prefs.KeepOutputInPool {
				return skip("output kept in pool by preference")
			}
			if err := o.poolOps.Withdraw(ctx, req.Pair.Out, state.swapOut); err != nil {
				return fail(fmt.Errorf("withdraw: %w", err))
			}
			return done(state.swapOut, "")
		}},
	}
}

// directSteps builds the direct-transfer pipeline:
// Withdraw (optional) -> Transfer/Approve -> Swap.
func (o *Orchestrator) directSteps(req Request, state *venueState, barrier *custodyBarrier) []stepDef {
	plan := req.Plan
	token := req.Token

	prepareKind := domain.StepTransfer
	if token.Standard.RequiresAllowance() {
		prepareKind = domain.StepApprove
	}

	return []stepDef{
		{kind: domain.StepWithdraw, run: func(ctx context.Context) stepOutcome {
			gross := plan.CustodySourced()
			if gross == 0 {
				return skip("wallet balance sufficient")
			}
			if plan.FromUndeposited > 0 {
				if barrier != nil {
					if _, err := barrier.await(ctx); err != nil {
						return fail(fmt.Errorf("combined deposit: %w", err))
					}
				} else {
					if _, err := o.poolOps.Deposit(ctx, token.Mint, plan.FromUndeposited); err != nil {
						return fail(fmt.Errorf("deposit before withdraw: %w", err))
					}
				}
			}
			if err := o.poolOps.Withdraw(ctx, token.Mint, gross); err != nil {
				return fail(fmt.Errorf("withdraw: %w", err))
			}
			return done(gross, "")
		}},
		{kind: prepareKind, run: func(ctx context.Context) stepOutcome {
			if token.Standard.RequiresAllowance() {
				// No pull step needed, the venue's swap performs the pull.
				if req.Allowance >= plan.AdjustedAmount {
					return skip("existing approval reused")
				}
				if err := o.directOps.Approve(ctx, token.Mint, o.directSpender, plan.AdjustedAmount); err != nil {
					return fail(fmt.Errorf("approve: %w", err))
				}
				return done(plan.AdjustedAmount, "")
			}
			if err := o.directOps.Transfer(ctx, token.Mint, plan.AdjustedAmount); err != nil {
				return fail(fmt.Errorf("transfer: %w", err))
			}
			return done(plan.AdjustedAmount, "")
		}},
		{kind: domain.StepSwap, run: func(ctx context.Context) stepOutcome {
			minOut := minAmountOut(req.QuotedOut, o.slippage(req.Prefs))
			outcome, err := o.directOps.Swap(ctx, req.Pair, state.swapIn, minOut)
			if err != nil {
				return fail(fmt.Errorf("swap: %w", err))
			}
			state.swapOut = outcome.AmountOut
			return done(outcome.AmountOut, "")
		}},
	}
}

func (o *Orchestrator) slippage(prefs domain.ExecutionPrefs) uint16 {
	if prefs.SlippageBps > 0 {
		return prefs.SlippageBps
	}
	return o.defaultSlippageBps
}

// minAmountOut widens a quoted output into the minimum the swap will accept:
// quoted * (10000 - slippageBps) / 10000, computed in 256-bit space so large
// base-unit amounts cannot overflow.
func minAmountOut(quoted uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0
	}
	v := uint256.NewInt(quoted)
	v.Mul(v, uint256.NewInt(10000-uint64(slippageBps)))
	v.Div(v, uint256.NewInt(10000))
	return v.Uint64()
}
