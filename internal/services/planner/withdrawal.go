package planner

import (
	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/metrics"
)

// WithdrawalPlanner prepares a direct-transfer venue trade. That venue cannot
// reach into pool custody itself; it only accepts a wallet transfer (push
// tokens) or a wallet pull against an allowance. The planner therefore
// computes how much must first be withdrawn from pool custody into the wallet,
// preferring deposited funds, cascading into undeposited ones, and absorbing
// sub-fee fragments as dust.
//
// In the returned plan FromDeposited/FromUndeposited are gross custody
// withdrawals, FromWallet is the wallet principal already available, and
// AdjustedAmount is the net amount that reaches the venue.
type WithdrawalPlanner struct{}

func NewWithdrawalPlanner() *WithdrawalPlanner {
	return &WithdrawalPlanner{}
}

// Plan accepts the counterpart FundingPlanner's reservation so a split trade
// never claims the same custodied unit twice. A reserved undeposited amount
// also signals that the counterpart already pays for a pending deposit of
// those funds, so this plan's cascade skips the deposit fee.
func (wp *WithdrawalPlanner) Plan(
	requested uint64,
	balances domain.Balances,
	reservation domain.Reservation,
	allowance uint64,
	token domain.TokenInfo,
) domain.FundingPlan {
	fee := token.Fee

	// The venue transfer itself always costs one fee; an allowance grant, when
	// the existing one cannot cover the request, costs one more.
	var plan domain.FundingPlan
	fees := fee
	if token.Standard.RequiresAllowance() && allowance < requested {
		fees += fee
		plan.NeedsApproval = true
	}
	if requested <= fees {
		return domain.FundingPlan{}
	}
	adjusted := requested - fees

	availWallet := balances.AvailableWallet(reservation)
	if availWallet >= adjusted {
		plan.FromWallet = adjusted
		plan.AdjustedAmount = adjusted
		plan.FeesCharged = fees
		return plan
	}

	deficit := adjusted - availWallet
	if deficit <= fee {
		// Withdrawing a sub-fee deficit would cost more than it recovers.
		adjusted -= deficit
		metrics.DustAbsorbed.Inc()
		if adjusted <= fee {
			return domain.FundingPlan{}
		}
		plan.FromWallet = adjusted
		plan.AdjustedAmount = adjusted
		plan.FeesCharged = fees
		return plan
	}

	plan.FromWallet = availWallet

	availDeposited := balances.AvailableDeposited(reservation)
	if availDeposited >= deficit+fee {
		// One withdrawal, fee paid out of the withdrawn amount.
		adjusted -= fee
		fees += fee
		plan.FromDeposited = adjusted - availWallet + fee
		plan.AdjustedAmount = adjusted
		plan.FeesCharged = fees
		return plan
	}

	// Cascade: drain deposited funds, then deposit-and-withdraw undeposited
	// ones. The withdrawal fee is charged once; the deposit fee is skipped
	// when the counterpart has already reserved a pending deposit of the same
	// underlying funds.
	withdrawFees := fee
	availUndeposited := balances.AvailableUndeposited(reservation)
	if availUndeposited > 0 && availDeposited < deficit+fee && reservation.Undeposited == 0 {
		withdrawFees += fee
	}

	grossNeed := deficit + withdrawFees
	plan.FromDeposited = min64(availDeposited, grossNeed)
	plan.FromUndeposited = min64(availUndeposited, grossNeed-plan.FromDeposited)
	gross := plan.FromDeposited + plan.FromUndeposited

	if gross <= withdrawFees {
		// Custody cannot contribute anything net of its own fees.
		plan.FromDeposited = 0
		plan.FromUndeposited = 0
		withdrawFees = 0
		gross = 0
		metrics.DustAbsorbed.Inc()
	}
	recovered := gross - withdrawFees
	if recovered > deficit {
		recovered = deficit
	}

	// Any part of the deficit custody cannot cover, and any leftover below one
	// fee unit after the cascade, shrinks the adjusted amount.
	adjusted = availWallet + recovered
	fees += withdrawFees

	if adjusted <= fee {
		return domain.FundingPlan{}
	}
	plan.AdjustedAmount = adjusted
	plan.FeesCharged = fees
	return plan
}
