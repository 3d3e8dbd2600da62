package domain

import (
	"github.com/gagliardetto/solana-go"
)

// TokenStandard describes how a token moves between a wallet and a venue.
type TokenStandard uint8

const (
	// StandardPushTransfer tokens are moved by a plain transfer signed by the
	// holder; the venue credits whatever lands on its custody address.
	StandardPushTransfer TokenStandard = iota
	// StandardApprovePull tokens require an allowance grant before the venue
	// can pull them from the wallet.
	StandardApprovePull
	// StandardApprovePullLegacy behaves like StandardApprovePull but the venue
	// cannot report a custody balance for pending transfers, so undeposited
	// funds are invisible to it.
	StandardApprovePullLegacy
)

func (s TokenStandard) String() string {
	switch s {
	case StandardPushTransfer:
		return "PushTransfer"
	case StandardApprovePull:
		return "ApprovePull"
	case StandardApprovePullLegacy:
		return "ApprovePullLegacy"
	default:
		return "UNKNOWN"
	}
}

// RequiresAllowance reports whether moving wallet funds needs an approve call.
func (s TokenStandard) RequiresAllowance() bool {
	return s == StandardApprovePull || s == StandardApprovePullLegacy
}

// TokenInfo holds the static facts the planners need about a token: its
// transfer standard and the fixed network fee charged per remote operation,
// denominated in the token's base units. Immutable once fetched.
type TokenInfo struct {
	Mint     solana.PublicKey `json:"mint"`
	Symbol   string           `json:"symbol,omitempty"`
	Standard TokenStandard    `json:"standard"`
	Fee      uint64           `json:"fee"`
	Decimals uint8            `json:"decimals,omitempty"`
}

// Balances is a snapshot of the three fund locations for one token at one
// venue. Snapshots are immutable; only successful remote operations change the
// underlying state, and callers re-fetch before every planning pass.
type Balances struct {
	Wallet      uint64 `json:"wallet"`
	Deposited   uint64 `json:"deposited"`
	Undeposited uint64 `json:"undeposited"`
}

// Reservation records amounts the counterpart planner of a split trade has
// already claimed from the shared balances. A reservation never exceeds the
// balance field it offsets; Available* clamp defensively anyway.
type Reservation struct {
	Wallet      uint64 `json:"wallet"`
	Deposited   uint64 `json:"deposited"`
	Undeposited uint64 `json:"undeposited"`
}

// AvailableWallet returns the wallet balance not claimed by the reservation.
func (b Balances) AvailableWallet(r Reservation) uint64 {
	return clampSub(b.Wallet, r.Wallet)
}

func (b Balances) AvailableDeposited(r Reservation) uint64 {
	return clampSub(b.Deposited, r.Deposited)
}

func (b Balances) AvailableUndeposited(r Reservation) uint64 {
	return clampSub(b.Undeposited, r.Undeposited)
}

func clampSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// VenueKind distinguishes the two trading backends the engine routes across.
type VenueKind uint8

const (
	// VenuePoolCustody requires funds to be deposited into a shared pool
	// contract before trading.
	VenuePoolCustody VenueKind = iota
	// VenueDirectTransfer accepts funds sent or approved directly to the
	// trading contract per call.
	VenueDirectTransfer
)

func (v VenueKind) String() string {
	switch v {
	case VenuePoolCustody:
		return "pool"
	case VenueDirectTransfer:
		return "direct"
	default:
		return "UNKNOWN"
	}
}
