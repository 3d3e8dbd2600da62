package domain

// FundingPlan describes how a requested trade amount is sourced from the three
// fund locations. From* fields are gross claims against each source;
// AdjustedAmount is the amount left tradeable after every network fee the plan
// incurs has been deducted. AdjustedAmount <= requested always holds, and a
// zero AdjustedAmount means the trade cannot be funded.
//
// The WithdrawalPlanner reuses this shape with withdrawal semantics:
// FromDeposited/FromUndeposited are gross amounts pulled out of pool custody
// to top up the wallet, FromWallet is the wallet principal already available,
// and AdjustedAmount is the net amount transferable to the direct venue.
type FundingPlan struct {
	FromDeposited   uint64 `json:"fromDeposited"`
	FromUndeposited uint64 `json:"fromUndeposited"`
	FromWallet      uint64 `json:"fromWallet"`
	AdjustedAmount  uint64 `json:"adjustedAmount"`

	// FeesCharged is the total network fee deducted along the chosen path.
	FeesCharged uint64 `json:"feesCharged"`

	// NeedsApproval is set when the plan's wallet movement requires a fresh
	// allowance grant (existing allowance insufficient).
	NeedsApproval bool `json:"needsApproval,omitempty"`
}

// IsZero reports whether the plan funds nothing.
func (p FundingPlan) IsZero() bool {
	return p.AdjustedAmount == 0
}

// CustodySourced is the total pulled from venue custody (deposited plus
// undeposited).
func (p FundingPlan) CustodySourced() uint64 {
	return p.FromDeposited + p.FromUndeposited
}

// Reserve converts the plan's claims into a Reservation for the counterpart
// planner of a split trade.
func (p FundingPlan) Reserve() Reservation {
	return Reservation{
		Wallet:      p.FromWallet,
		Deposited:   p.FromDeposited,
		Undeposited: p.FromUndeposited,
	}
}

// SplitPlan combines the two venue plans for one logical trade. Ratio is the
// percentage of the total routed to the direct-transfer venue; 0 and 100
// degenerate to single-venue trades. PlanDirect is always computed with
// PlanPool's claims reserved, so the two never double-claim a custodied unit.
type SplitPlan struct {
	Ratio uint8 `json:"ratio"`

	PlanPool   FundingPlan `json:"planPool"`
	PlanDirect FundingPlan `json:"planDirect"`

	// Quoted outputs at the winning ratio, re-verified with a final quote pass.
	OutPool   uint64 `json:"outPool"`
	OutDirect uint64 `json:"outDirect"`
	TotalOut  uint64 `json:"totalOut"`

	PriceImpactPoolBps   uint16 `json:"priceImpactPoolBps"`
	PriceImpactDirectBps uint16 `json:"priceImpactDirectBps"`
}
