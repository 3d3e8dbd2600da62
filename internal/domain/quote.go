package domain

import (
	"github.com/gagliardetto/solana-go"
)

// TokenPair is the traded pair; amounts in are denominated in In, quotes out
// in Out.
type TokenPair struct {
	In  solana.PublicKey `json:"in"`
	Out solana.PublicKey `json:"out"`
}

// Quote is the opaque answer of a venue's pricing function for one input
// amount. How the venue prices internally is not modeled here.
type Quote struct {
	AmountIn       uint64 `json:"amountIn"`
	AmountOut      uint64 `json:"amountOut"`
	PriceImpactBps uint16 `json:"priceImpactBps"`
}

// SwapOutcome is what a venue's swap call reports back.
type SwapOutcome struct {
	AmountOut uint64 `json:"amountOut"`
}
