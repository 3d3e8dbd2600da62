package planner

import (
	"testing"

	"github.com/hxuan190/venue-router/internal/domain"
)

// TestWithdrawalPlanScenarios covers the wallet-first ladder of the direct
// venue: wallet funds move for one transfer fee, deposited funds add a
// withdrawal fee, undeposited funds add a deposit fee on top unless the split
// counterpart already pays for that deposit.
func TestWithdrawalPlanScenarios(t *testing.T) {
	tests := []struct {
		name        string
		requested   uint64
		balances    domain.Balances
		reservation domain.Reservation
		allowance   uint64
		token       domain.TokenInfo
		expected    domain.FundingPlan
	}{
		{
			name:      "request swallowed by the transfer fee",
			requested: testFee,
			balances:  domain.Balances{Wallet: 1_000_000},
			token:     pushToken(),
			expected:  domain.FundingPlan{},
		},
		{
			name:      "pull request swallowed by transfer plus approve fee",
			requested: 2 * testFee,
			balances:  domain.Balances{Wallet: 1_000_000},
			allowance: 0,
			token:     pullToken(),
			expected:  domain.FundingPlan{},
		},
		{
			name:      "wallet alone covers the net amount",
			requested: 100_000,
			balances:  domain.Balances{Wallet: 500_000},
			token:     pushToken(),
			expected: domain.FundingPlan{
				FromWallet:     90_000,
				AdjustedAmount: 90_000,
				FeesCharged:    testFee,
			},
		},
		{
			name:      "insufficient allowance adds an approve fee",
			requested: 100_000,
			balances:  domain.Balances{Wallet: 500_000},
			allowance: 0,
			token:     pullToken(),
			expected: domain.FundingPlan{
				FromWallet:     80_000,
				AdjustedAmount: 80_000,
				FeesCharged:    2 * testFee,
				NeedsApproval:  true,
			},
		},
		{
			name:      "sub-fee deficit shrinks instead of withdrawing",
			requested: 100_000,
			balances:  domain.Balances{Wallet: 85_000},
			token:     pushToken(),
			expected: domain.FundingPlan{
				FromWallet:     85_000,
				AdjustedAmount: 85_000,
				FeesCharged:    testFee,
			},
		},
		{
			name:      "deposited funds cover the deficit with one withdrawal",
			requested: 200_000,
			balances:  domain.Balances{Wallet: 50_000, Deposited: 1_000_000},
			token:     pushToken(),
			expected: domain.FundingPlan{
				FromDeposited:  140_000,
				FromWallet:     50_000,
				AdjustedAmount: 180_000,
				FeesCharged:    2 * testFee,
			},
		},
		{
			name:      "cascade drains deposited then undeposited funds",
			requested: 300_000,
			balances:  domain.Balances{Deposited: 100_000, Undeposited: 500_000},
			token:     pushToken(),
			expected: domain.FundingPlan{
				FromDeposited:   100_000,
				FromUndeposited: 210_000,
				AdjustedAmount:  290_000,
				FeesCharged:     3 * testFee,
			},
		},
		{
			name:        "counterpart reservation waives the deposit fee",
			requested:   300_000,
			balances:    domain.Balances{Deposited: 100_000, Undeposited: 500_000},
			reservation: domain.Reservation{Undeposited: 100_000},
			token:       pushToken(),
			expected: domain.FundingPlan{
				FromDeposited:   100_000,
				FromUndeposited: 200_000,
				AdjustedAmount:  290_000,
				FeesCharged:     2 * testFee,
			},
		},
		{
			name:      "custody fragment below its own fees is left behind",
			requested: 50_000,
			balances:  domain.Balances{Wallet: 25_000, Deposited: 8_000},
			token:     pushToken(),
			expected: domain.FundingPlan{
				FromWallet:     25_000,
				AdjustedAmount: 25_000,
				FeesCharged:    testFee,
			},
		},
		{
			name:      "nothing recoverable collapses to the zero plan",
			requested: 50_000,
			balances:  domain.Balances{Wallet: 5_000},
			token:     pushToken(),
			expected:  domain.FundingPlan{},
		},
	}

	wp := NewWithdrawalPlanner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := wp.Plan(tt.requested, tt.balances, tt.reservation, tt.allowance, tt.token)
			if plan != tt.expected {
				t.Errorf("plan mismatch:\n got  %+v\n want %+v", plan, tt.expected)
			}
			assertPlanConsistent(t, tt.requested, tt.balances, tt.reservation, plan)
		})
	}
}

// TestSplitPlansNeverDoubleClaim pairs the two planners the way a split trade
// does and checks that the combined claims stay within the shared balances.
func TestSplitPlansNeverDoubleClaim(t *testing.T) {
	balances := domain.Balances{Wallet: 400_000, Deposited: 250_000, Undeposited: 150_000}
	token := pushToken()

	planPool := NewFundingPlanner().Plan(500_000, balances, domain.Reservation{}, 0, token)
	planDirect := NewWithdrawalPlanner().Plan(300_000, balances, planPool.Reserve(), 0, token)

	if total := planPool.FromDeposited + planDirect.FromDeposited; total > balances.Deposited {
		t.Errorf("deposited over-claimed: %d > %d", total, balances.Deposited)
	}
	if total := planPool.FromUndeposited + planDirect.FromUndeposited; total > balances.Undeposited {
		t.Errorf("undeposited over-claimed: %d > %d", total, balances.Undeposited)
	}
	if total := planPool.FromWallet + planDirect.FromWallet; total > balances.Wallet {
		t.Errorf("wallet over-claimed: %d > %d", total, balances.Wallet)
	}
}

func BenchmarkWithdrawalPlan(b *testing.B) {
	wp := NewWithdrawalPlanner()
	balances := domain.Balances{Wallet: 50_000, Deposited: 100_000, Undeposited: 500_000}
	token := pushToken()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = wp.Plan(300_000, balances, domain.Reservation{}, 0, token)
	}
}
