// Package planner computes funding plans for the two venue kinds. Planners
// are pure functions over balance snapshots: they never issue remote calls,
// never mutate their inputs, and signal "cannot fund" with a zero plan rather
// than an error.
package planner

import (
	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
)

// FundingPlanner sources a pool-custody trade from the three fund locations,
// cheapest first: deposited funds move for free, undeposited funds cost one
// deposit fee, wallet funds cost one transfer fee plus one approve fee when a
// fresh allowance grant is needed. Every fee is deducted from the adjusted
// amount, not from the principal moved.
type FundingPlanner struct{}

func NewFundingPlanner() *FundingPlanner {
	return &FundingPlanner{}
}

// Plan computes how the requested amount is funded given a balance snapshot,
// the counterpart's reservation, and the current allowance toward the pool
// venue. A request at or below one fee can never clear its own cost and
// returns the zero plan.
func (fp *FundingPlanner) Plan(
	requested uint64,
	balances domain.Balances,
	reservation domain.Reservation,
	allowance uint64,
	token domain.TokenInfo,
) domain.FundingPlan {
	fee := token.Fee
	if requested <= fee {
		return domain.FundingPlan{}
	}

	var plan domain.FundingPlan

	availDeposited := balances.AvailableDeposited(reservation)
	if availDeposited >= requested {
		// Already-custodied funds trade for free.
		plan.FromDeposited = requested
		plan.AdjustedAmount = requested
		return plan
	}

	plan.FromDeposited = availDeposited
	remaining := requested - availDeposited
	adjusted := requested
	var fees uint64

	availUndeposited := balances.AvailableUndeposited(reservation)
	if availUndeposited > 0 {
		take := min64(availUndeposited, remaining)
		needsWallet := remaining > take

		// Undeposited funds can only be swept on their own for push tokens;
		// for pull tokens the sweep rides along with a wallet deposit.
		movable := token.Standard == domain.StandardPushTransfer || needsWallet

		switch {
		case !movable:
			// Unreachable custody fragment: leave it, wallet covers the rest.
		case take <= fee && !needsWallet:
			// Moving it costs more than it contributes and avoids no other
			// fee: dust.
			adjusted -= take
			remaining -= take
			metrics.DustAbsorbed.Inc()
		default:
			plan.FromUndeposited = take
			remaining -= take
			adjusted -= fee
			fees += fee
		}
	}

	if remaining > 0 {
		availWallet := balances.AvailableWallet(reservation)
		take := min64(availWallet, remaining)
		shortfall := remaining - take

		if take > 0 {
			walletFees := fee
			if token.Standard.RequiresAllowance() && allowance < take {
				walletFees += fee
				plan.NeedsApproval = true
			}

			if take <= walletFees+fee {
				// Net wallet contribution would be at or below one fee unit:
				// a doomed transfer. Drop the wallet leg entirely.
				adjusted -= take
				plan.NeedsApproval = false
				metrics.DustAbsorbed.Inc()
			} else {
				plan.FromWallet = take
				adjusted -= walletFees
				fees += walletFees
			}
		}

		// Whatever no source can cover simply is not traded.
		adjusted -= shortfall
	}

	if adjusted <= fee && plan.FromDeposited == 0 {
		// The surviving amount cannot clear a single further operation.
		return domain.FundingPlan{}
	}

	plan.AdjustedAmount = adjusted
	plan.FeesCharged = fees
	return plan
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
