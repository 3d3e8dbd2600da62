package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/venue-router/internal/domain"
)

type remoteCall struct {
	op     string
	amount uint64
}

// fakeOps records every remote call in order. It must be safe for concurrent
// use because split execution drives two pipelines at once.
type fakeOps struct {
	mu    sync.Mutex
	calls []remoteCall

	approveErr  error
	transferErr error
	depositErr  error
	withdrawErr error
	swapErr     error

	// depositActual overrides the custodied amount a Deposit reports;
	// nil echoes the requested amount.
	depositActual func(amount uint64) uint64
	swapOut       uint64
}

func (f *fakeOps) record(op string, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, remoteCall{op: op, amount: amount})
}

func (f *fakeOps) recorded() []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remoteCall(nil), f.calls...)
}

func (f *fakeOps) count(op string) int {
	n := 0
	for _, c := range f.recorded() {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeOps) Approve(ctx context.Context, token, spender solana.PublicKey, amount uint64) error {
	f.record("approve", amount)
	return f.approveErr
}

func (f *fakeOps) Transfer(ctx context.Context, token solana.PublicKey, amount uint64) error {
	f.record("transfer", amount)
	return f.transferErr
}

func (f *fakeOps) Deposit(ctx context.Context, token solana.PublicKey, amount uint64) (uint64, error) {
	f.record("deposit", amount)
	if f.depositErr != nil {
		return 0, f.depositErr
	}
	if f.depositActual != nil {
		return f.depositActual(amount), nil
	}
	return amount, nil
}

func (f *fakeOps) Withdraw(ctx context.Context, token solana.PublicKey, amount uint64) error {
	f.record("withdraw", amount)
	return f.withdrawErr
}

func (f *fakeOps) Swap(ctx context.Context, pair domain.TokenPair, amountIn, minAmountOut uint64) (domain.SwapOutcome, error) {
	f.record("swap", amountIn)
	if f.swapErr != nil {
		return domain.SwapOutcome{}, f.swapErr
	}
	out := f.swapOut
	if out == 0 {
		out = amountIn
	}
	return domain.SwapOutcome{AmountOut: out}, nil
}

func newTestOrchestrator(pool, direct *fakeOps) *Orchestrator {
	return NewOrchestrator(pool, direct, solana.PublicKey{}, solana.PublicKey{}, 50)
}

func pushRequest(plan domain.FundingPlan, quotedOut uint64) Request {
	return Request{
		Token:     domain.TokenInfo{Symbol: "PUSH", Standard: domain.StandardPushTransfer, Fee: 10_000},
		Plan:      plan,
		QuotedOut: quotedOut,
	}
}

func pullRequest(plan domain.FundingPlan, quotedOut, allowance uint64) Request {
	return Request{
		Token:     domain.TokenInfo{Symbol: "PULL", Standard: domain.StandardApprovePull, Fee: 10_000},
		Plan:      plan,
		QuotedOut: quotedOut,
		Allowance: allowance,
	}
}

func stepStatuses(steps []domain.ExecutionStep) []domain.StepStatus {
	out := make([]domain.StepStatus, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}

func TestExecutePoolHappyPath(t *testing.T) {
	pool := &fakeOps{swapOut: 970_000}
	pool.depositActual = func(uint64) uint64 { return 990_000 }
	o := newTestOrchestrator(pool, &fakeOps{})

	req := pushRequest(domain.FundingPlan{
		FromUndeposited: 300_000,
		FromWallet:      700_000,
		AdjustedAmount:  980_000,
		FeesCharged:     20_000,
	}, 900_000)

	res := o.ExecutePool(context.Background(), req, nil)
	require.True(t, res.Success())

	assert.Equal(t, []domain.StepStatus{
		domain.StatusComplete, domain.StatusComplete, domain.StatusComplete, domain.StatusComplete,
	}, stepStatuses(res.Steps))

	// Deposit covers undeposited plus wallet funds; the venue's reported
	// custodied amount becomes the swap input.
	assert.Equal(t, []remoteCall{
		{op: "transfer", amount: 700_000},
		{op: "deposit", amount: 1_000_000},
		{op: "swap", amount: 990_000},
		{op: "withdraw", amount: 970_000},
	}, pool.recorded())
	assert.Equal(t, uint64(990_000), res.AmountIn)
	assert.Equal(t, uint64(970_000), res.AmountOut)
}

func TestExecutePoolSkipsSettledSteps(t *testing.T) {
	pool := &fakeOps{swapOut: 480_000}
	o := newTestOrchestrator(pool, &fakeOps{})

	req := pushRequest(domain.FundingPlan{
		FromDeposited:  500_000,
		AdjustedAmount: 500_000,
	}, 480_000)
	req.Prefs.KeepOutputInPool = true

	res := o.ExecutePool(context.Background(), req, nil)
	require.True(t, res.Success())

	assert.Equal(t, []domain.StepStatus{
		domain.StatusSkipped, domain.StatusSkipped, domain.StatusComplete, domain.StatusSkipped,
	}, stepStatuses(res.Steps))

	// Everything is already custodied and the output stays pooled, so the
	// swap is the only remote call.
	assert.Equal(t, []remoteCall{{op: "swap", amount: 500_000}}, pool.recorded())
}

func TestExecutePoolReusesExistingApproval(t *testing.T) {
	pool := &fakeOps{}
	o := newTestOrchestrator(pool, &fakeOps{})

	req := pullRequest(domain.FundingPlan{
		FromWallet:     200_000,
		AdjustedAmount: 190_000,
		FeesCharged:    10_000,
	}, 180_000, 1_000_000)

	res := o.ExecutePool(context.Background(), req, nil)
	require.True(t, res.Success())

	assert.Equal(t, domain.StepApprove, res.Steps[0].Kind)
	assert.Equal(t, domain.StatusSkipped, res.Steps[0].Status)
	assert.Equal(t, "existing approval reused", res.Steps[0].Note)
	assert.Zero(t, pool.count("approve"))
	assert.Equal(t, 1, pool.count("deposit"))
}

func TestExecutePoolHaltsOnFailureLeavingRestPending(t *testing.T) {
	pool := &fakeOps{transferErr: errors.New("insufficient balance")}
	o := newTestOrchestrator(pool, &fakeOps{})

	req := pushRequest(domain.FundingPlan{
		FromWallet:     500_000,
		AdjustedAmount: 490_000,
		FeesCharged:    10_000,
	}, 480_000)

	res := o.ExecutePool(context.Background(), req, nil)
	require.False(t, res.Success())

	assert.Equal(t, []domain.StepStatus{
		domain.StatusError, domain.StatusPending, domain.StatusPending, domain.StatusPending,
	}, stepStatuses(res.Steps))
	assert.Contains(t, res.Steps[0].Err, "insufficient balance")
	assert.Zero(t, pool.count("deposit"))
	assert.Zero(t, pool.count("swap"))
}

func TestExecuteDirectWalletOnly(t *testing.T) {
	pool := &fakeOps{}
	direct := &fakeOps{swapOut: 88_000}
	o := newTestOrchestrator(pool, direct)

	req := pushRequest(domain.FundingPlan{
		FromWallet:     90_000,
		AdjustedAmount: 90_000,
		FeesCharged:    10_000,
	}, 88_000)

	res := o.ExecuteDirect(context.Background(), req, nil)
	require.True(t, res.Success())

	assert.Equal(t, []domain.StepStatus{
		domain.StatusSkipped, domain.StatusComplete, domain.StatusComplete,
	}, stepStatuses(res.Steps))
	assert.Empty(t, pool.recorded())
	assert.Equal(t, []remoteCall{
		{op: "transfer", amount: 90_000},
		{op: "swap", amount: 90_000},
	}, direct.recorded())
}

func TestExecuteDirectCascadesThroughCustody(t *testing.T) {
	pool := &fakeOps{}
	direct := &fakeOps{}
	o := newTestOrchestrator(pool, direct)

	req := pushRequest(domain.FundingPlan{
		FromDeposited:   100_000,
		FromUndeposited: 210_000,
		AdjustedAmount:  290_000,
		FeesCharged:     30_000,
	}, 280_000)

	res := o.ExecuteDirect(context.Background(), req, nil)
	require.True(t, res.Success())

	// Undeposited funds are deposited first so one withdrawal can cover the
	// whole gross amount; the custody calls land on the pool venue.
	assert.Equal(t, []remoteCall{
		{op: "deposit", amount: 210_000},
		{op: "withdraw", amount: 310_000},
	}, pool.recorded())
	assert.Equal(t, []remoteCall{
		{op: "transfer", amount: 290_000},
		{op: "swap", amount: 290_000},
	}, direct.recorded())
}

func TestExecuteSplitIssuesOneCombinedDeposit(t *testing.T) {
	pool := &fakeOps{}
	direct := &fakeOps{}
	o := newTestOrchestrator(pool, direct)

	poolReq := pushRequest(domain.FundingPlan{
		FromUndeposited: 150_000,
		AdjustedAmount:  140_000,
		FeesCharged:     10_000,
	}, 130_000)
	poolReq.Prefs.KeepOutputInPool = true
	directReq := pushRequest(domain.FundingPlan{
		FromUndeposited: 100_000,
		AdjustedAmount:  90_000,
		FeesCharged:     20_000,
	}, 85_000)

	res := o.ExecuteSplit(context.Background(), poolReq, directReq, nil)
	require.True(t, res.Success)
	require.NotNil(t, res.Pool)
	require.NotNil(t, res.Direct)
	assert.True(t, res.Pool.Success())
	assert.True(t, res.Direct.Success())

	// Both pipelines need the same undeposited funds moved; the deposit is
	// issued exactly once for the combined amount.
	require.Equal(t, 1, pool.count("deposit"))
	for _, c := range pool.recorded() {
		if c.op == "deposit" {
			assert.Equal(t, uint64(250_000), c.amount)
		}
	}
	// The only withdrawal is the direct venue pulling its gross share out of
	// custody; the pool output stays pooled by preference.
	assert.Equal(t, 1, pool.count("withdraw"))
	assert.Equal(t, uint64(140_000), res.Pool.AmountIn)
}

func TestExecuteSplitIsolatesVenueFailure(t *testing.T) {
	pool := &fakeOps{}
	direct := &fakeOps{swapErr: errors.New("price moved")}
	o := newTestOrchestrator(pool, direct)

	poolReq := pushRequest(domain.FundingPlan{
		FromDeposited:  400_000,
		AdjustedAmount: 400_000,
	}, 390_000)
	directReq := pushRequest(domain.FundingPlan{
		FromWallet:     90_000,
		AdjustedAmount: 90_000,
		FeesCharged:    10_000,
	}, 85_000)

	res := o.ExecuteSplit(context.Background(), poolReq, directReq, nil)

	assert.False(t, res.Success)
	assert.True(t, res.Pool.Success())
	require.False(t, res.Direct.Success())
	assert.Contains(t, res.Direct.Err, "price moved")

	// The pool venue still completed its whole pipeline.
	assert.Equal(t, 1, pool.count("swap"))
	assert.Equal(t, 1, pool.count("withdraw"))
}

func TestExecuteRejectsZeroPlan(t *testing.T) {
	o := newTestOrchestrator(&fakeOps{}, &fakeOps{})

	res := o.ExecutePool(context.Background(), pushRequest(domain.FundingPlan{}, 0), nil)

	assert.False(t, res.Success())
	assert.Equal(t, ErrNothingToExecute.Error(), res.Err)
	assert.Empty(t, res.Steps)
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []domain.StepStatus
}

func (r *recordingObserver) StepChanged(venue domain.VenueKind, index int, step domain.ExecutionStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, step.Status)
}

func TestObserverSeesEveryTransition(t *testing.T) {
	pool := &fakeOps{}
	o := newTestOrchestrator(pool, &fakeOps{})
	obs := &recordingObserver{}

	req := pushRequest(domain.FundingPlan{
		FromDeposited:  500_000,
		AdjustedAmount: 500_000,
	}, 480_000)

	res := o.ExecutePool(context.Background(), req, obs)
	require.True(t, res.Success())

	// Loading then a terminal state, for each of the four steps.
	require.Len(t, obs.transitions, 8)
	for i := 0; i < len(obs.transitions); i += 2 {
		assert.Equal(t, domain.StatusLoading, obs.transitions[i])
		assert.True(t, obs.transitions[i+1].Terminal())
	}
}

func TestCancelledContextFailsNextStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := &fakeOps{}
	o := newTestOrchestrator(pool, &fakeOps{})

	req := pushRequest(domain.FundingPlan{
		FromDeposited:  500_000,
		AdjustedAmount: 500_000,
	}, 480_000)

	res := o.ExecutePool(ctx, req, nil)
	require.False(t, res.Success())
	assert.Equal(t, domain.StatusError, res.Steps[0].Status)
	assert.Contains(t, res.Steps[0].Err, "cancelled by caller")
	assert.Empty(t, pool.recorded())
}

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name     string
		quoted   uint64
		bps      uint16
		expected uint64
	}{
		{name: "default 50 bps", quoted: 1_000_000, bps: 50, expected: 995_000},
		{name: "zero slippage keeps the quote", quoted: 1_000_000, bps: 0, expected: 1_000_000},
		{name: "full slippage accepts anything", quoted: 1_000_000, bps: 10_000, expected: 0},
		{name: "rounds down", quoted: 999, bps: 50, expected: 994},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, minAmountOut(tt.quoted, tt.bps))
		})
	}
}
