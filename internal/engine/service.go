// Package engine wires the planners, the split optimizer and the execution
// orchestrator behind one DI service. It is the only surface callers (HTTP or
// a scheduler) talk to.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/venue-router/internal/adapters/venue"
	"github.com/hxuan190/venue-router/internal/config"
	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
	"github.com/hxuan190/venue-router/internal/services"
	"github.com/hxuan190/venue-router/internal/services/executor"
	"github.com/hxuan190/venue-router/internal/services/optimizer"
	"github.com/hxuan190/venue-router/internal/services/planner"
	"github.com/hxuan190/venue-router/internal/services/registry"
)

const ENGINE_SERVICE = "engine-service"

var (
	ErrZeroAmount = errors.New("engine: amount must be positive")
)

// Service is the routing engine facade. Balances are fetched fresh before
// every planning pass; plans are never cached across calls.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	registrySvc *registry.Service

	poolClient   *venue.Client
	directClient *venue.Client

	fundingPlanner    *planner.FundingPlanner
	withdrawalPlanner *planner.WithdrawalPlanner
	splitOptimizer    *optimizer.Optimizer
	orchestrator      *executor.Orchestrator

	poolSpender   solana.PublicKey
	directSpender solana.PublicKey

	conf *config.EngineConfig
}

func (svc *Service) ID() string {
	return ENGINE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.conf = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	venueConf := c.GetConfig(config.VENUE_CONFIG_KEY).(*config.VenueConfig)
	svc.registrySvc = c.Instance(registry.TOKEN_REGISTRY_SERVICE).(*registry.Service)

	timeout := time.Duration(venueConf.RequestTimeoutMs) * time.Millisecond
	svc.poolClient = venue.NewClient(domain.VenuePoolCustody, venueConf.PoolVenueURL, timeout)
	svc.directClient = venue.NewClient(domain.VenueDirectTransfer, venueConf.DirectVenueURL, timeout)

	if venueConf.PoolSpender != "" {
		spender, err := solana.PublicKeyFromBase58(venueConf.PoolSpender)
		if err != nil {
			return fmt.Errorf("invalid pool spender: %w", err)
		}
		svc.poolSpender = spender
	}
	if venueConf.DirectSpender != "" {
		spender, err := solana.PublicKeyFromBase58(venueConf.DirectSpender)
		if err != nil {
			return fmt.Errorf("invalid direct spender: %w", err)
		}
		svc.directSpender = spender
	}

	svc.fundingPlanner = planner.NewFundingPlanner()
	svc.withdrawalPlanner = planner.NewWithdrawalPlanner()
	svc.splitOptimizer = optimizer.New(svc.conf.OptimizerMaxIterations)
	svc.orchestrator = executor.NewOrchestrator(
		svc.poolClient, svc.directClient,
		svc.poolSpender, svc.directSpender,
		uint16(svc.conf.DefaultSlippageBps),
	)

	return nil
}

// snapshot collects the fund-location balances and the allowance toward one
// spender, fanning the four queries out in parallel. The custody fields come
// from the pool venue, the only venue with a custody ledger.
func (svc *Service) snapshot(ctx context.Context, pair domain.TokenPair, spender solana.PublicKey) (domain.Balances, uint64, error) {
	var (
		balances  domain.Balances
		allowance uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		amount, err := svc.poolClient.WalletBalance(gctx, pair.In)
		if err != nil {
			return fmt.Errorf("wallet balance: %w", err)
		}
		balances.Wallet = amount
		return nil
	})
	g.Go(func() error {
		amount0, _, err := svc.poolClient.CustodyDeposited(gctx, pair)
		if err != nil {
			return fmt.Errorf("deposited balance: %w", err)
		}
		balances.Deposited = amount0
		return nil
	})
	g.Go(func() error {
		amount, err := svc.poolClient.CustodyUndeposited(gctx, pair.In)
		if err != nil {
			return fmt.Errorf("undeposited balance: %w", err)
		}
		balances.Undeposited = amount
		return nil
	})
	g.Go(func() error {
		if spender.IsZero() {
			return nil
		}
		amount, err := svc.poolClient.Allowance(gctx, pair.In, spender)
		if err != nil {
			return fmt.Errorf("allowance: %w", err)
		}
		allowance = amount
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Balances{}, 0, err
	}
	return balances, allowance, nil
}

// PlanFunding runs the pool-custody FundingPlanner against live balances.
func (svc *Service) PlanFunding(ctx context.Context, pair domain.TokenPair, amount uint64) (domain.FundingPlan, error) {
	if amount == 0 {
		return domain.FundingPlan{}, ErrZeroAmount
	}
	token, err := svc.registrySvc.Lookup(pair.In)
	if err != nil {
		return domain.FundingPlan{}, err
	}

	balances, allowance, err := svc.snapshot(ctx, pair, svc.poolSpender)
	if err != nil {
		return domain.FundingPlan{}, err
	}

	plan := svc.fundingPlanner.Plan(amount, balances, domain.Reservation{}, allowance, token)
	svc.observePlan("pool", plan)
	return plan, nil
}

// PlanWithdrawal runs the direct-transfer WithdrawalPlanner against live
// balances.
func (svc *Service) PlanWithdrawal(ctx context.Context, pair domain.TokenPair, amount uint64) (domain.FundingPlan, error) {
	if amount == 0 {
		return domain.FundingPlan{}, ErrZeroAmount
	}
	token, err := svc.registrySvc.Lookup(pair.In)
	if err != nil {
		return domain.FundingPlan{}, err
	}

	balances, allowance, err := svc.snapshot(ctx, pair, svc.directSpender)
	if err != nil {
		return domain.FundingPlan{}, err
	}

	plan := svc.withdrawalPlanner.Plan(amount, balances, domain.Reservation{}, allowance, token)
	svc.observePlan("direct", plan)
	return plan, nil
}

// OptimizeSplit searches for the ratio of the total routed to the direct
// venue that maximizes combined output. One balance snapshot backs the whole
// search; the planners stay pure over it.
func (svc *Service) OptimizeSplit(ctx context.Context, pair domain.TokenPair, total uint64) (*domain.SplitPlan, error) {
	if total == 0 {
		return nil, ErrZeroAmount
	}
	token, err := svc.registrySvc.Lookup(pair.In)
	if err != nil {
		return nil, err
	}

	balances, poolAllowance, err := svc.snapshot(ctx, pair, svc.poolSpender)
	if err != nil {
		return nil, err
	}
	var directAllowance uint64
	if !svc.directSpender.IsZero() {
		directAllowance, err = svc.poolClient.Allowance(ctx, pair.In, svc.directSpender)
		if err != nil {
			return nil, fmt.Errorf("direct allowance: %w", err)
		}
	}

	plan := func(ratio uint8) (domain.FundingPlan, domain.FundingPlan) {
		amountDirect := portion(total, ratio)
		amountPool := total - amountDirect

		planPool := svc.fundingPlanner.Plan(amountPool, balances, domain.Reservation{}, poolAllowance, token)
		planDirect := svc.withdrawalPlanner.Plan(amountDirect, balances, planPool.Reserve(), directAllowance, token)
		return planPool, planDirect
	}

	quotePool := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		return svc.poolClient.Quote(ctx, pair, amountIn)
	}
	quoteDirect := func(ctx context.Context, amountIn uint64) (domain.Quote, error) {
		return svc.directClient.Quote(ctx, pair, amountIn)
	}

	split, err := svc.splitOptimizer.Search(ctx, total, plan, quotePool, quoteDirect)
	if err != nil {
		return nil, err
	}

	svc.logger.Info().
		Uint8("ratio", split.Ratio).
		Uint64("totalOut", split.TotalOut).
		Msg("split optimized")
	return split, nil
}

// Execute settles a previously optimized split plan. The plan is
// authoritative: amounts are re-derived from it, not from later UI state.
// Ratios of 0 and 100 degenerate to single-venue executions.
func (svc *Service) Execute(ctx context.Context, pair domain.TokenPair, split domain.SplitPlan, prefs domain.ExecutionPrefs, observer domain.StepObserver) (domain.ExecutionResult, error) {
	token, err := svc.registrySvc.Lookup(pair.In)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	// Allowances may have moved since planning; the pipelines re-check.
	var poolAllowance, directAllowance uint64
	if token.Standard.RequiresAllowance() {
		if !svc.poolSpender.IsZero() {
			if poolAllowance, err = svc.poolClient.Allowance(ctx, pair.In, svc.poolSpender); err != nil {
				return domain.ExecutionResult{}, fmt.Errorf("pool allowance: %w", err)
			}
		}
		if !svc.directSpender.IsZero() {
			if directAllowance, err = svc.poolClient.Allowance(ctx, pair.In, svc.directSpender); err != nil {
				return domain.ExecutionResult{}, fmt.Errorf("direct allowance: %w", err)
			}
		}
	}

	poolReq := executor.Request{
		Pair:      pair,
		Token:     token,
		Plan:      split.PlanPool,
		QuotedOut: split.OutPool,
		Allowance: poolAllowance,
		Prefs:     prefs,
	}
	directReq := executor.Request{
		Pair:      pair,
		Token:     token,
		Plan:      split.PlanDirect,
		QuotedOut: split.OutDirect,
		Allowance: directAllowance,
		Prefs:     prefs,
	}

	switch {
	case split.PlanDirect.IsZero() && split.PlanPool.IsZero():
		return domain.ExecutionResult{}, executor.ErrNothingToExecute
	case split.PlanDirect.IsZero():
		res := svc.orchestrator.ExecutePool(ctx, poolReq, observer)
		svc.observeExecution(res.Success())
		return domain.ExecutionResult{Pool: &res, Success: res.Success()}, nil
	case split.PlanPool.IsZero():
		res := svc.orchestrator.ExecuteDirect(ctx, directReq, observer)
		svc.observeExecution(res.Success())
		return domain.ExecutionResult{Direct: &res, Success: res.Success()}, nil
	default:
		return svc.orchestrator.ExecuteSplit(ctx, poolReq, directReq, observer), nil
	}
}

func (svc *Service) observeExecution(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	metrics.Executions.WithLabelValues(result).Inc()
}

func (svc *Service) observePlan(venueLabel string, plan domain.FundingPlan) {
	result := "funded"
	if plan.IsZero() {
		result = "cannot_fund"
	}
	metrics.PlanRequests.WithLabelValues(venueLabel, result).Inc()
}

// portion splits a total by an integer percentage without 128-bit overflow.
func portion(total uint64, pct uint8) uint64 {
	if pct >= 100 {
		return total
	}
	return total/100*uint64(pct) + total%100*uint64(pct)/100
}
