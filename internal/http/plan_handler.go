package http

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/engine"
	"github.com/hxuan190/venue-router/internal/http/httputil"
	"github.com/hxuan190/venue-router/internal/services/registry"
)

type PlanHandler struct {
	engineSvc *engine.Service
}

func NewPlanHandler(engineSvc *engine.Service) *PlanHandler {
	return &PlanHandler{engineSvc: engineSvc}
}

func (h *PlanHandler) Root() string {
	return "/plan"
}

func (h *PlanHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/funding", h.getFundingPlan)
	pub.GET("/withdrawal", h.getWithdrawalPlan)
}

// PlanRequest represents the parameters for a funding or withdrawal plan
type PlanRequest struct {
	// Input token mint address (base58 public key)
	TokenIn string `form:"tokenIn" binding:"required"`

	// Output token mint address (base58 public key)
	TokenOut string `form:"tokenOut" binding:"required"`

	// Requested trade amount in smallest token units
	Amount string `form:"amount" binding:"required"`
}

// PlanResponse is the computed funding plan. A plan with adjustedAmount 0
// means the trade cannot be funded; that is an answer, not an error.
type PlanResponse struct {
	FromDeposited   uint64 `json:"fromDeposited"`
	FromUndeposited uint64 `json:"fromUndeposited"`
	FromWallet      uint64 `json:"fromWallet"`
	AdjustedAmount  uint64 `json:"adjustedAmount"`
	FeesCharged     uint64 `json:"feesCharged"`
	NeedsApproval   bool   `json:"needsApproval"`
	CanFund         bool   `json:"canFund"`
}

func (h *PlanHandler) getFundingPlan(c *gin.Context) {
	pair, amount, ok := parsePlanRequest(c)
	if !ok {
		return
	}

	plan, err := h.engineSvc.PlanFunding(c.Request.Context(), pair, amount)
	if err != nil {
		writePlanError(c, err)
		return
	}
	httputil.Success(c, planResponse(plan))
}

func (h *PlanHandler) getWithdrawalPlan(c *gin.Context) {
	pair, amount, ok := parsePlanRequest(c)
	if !ok {
		return
	}

	plan, err := h.engineSvc.PlanWithdrawal(c.Request.Context(), pair, amount)
	if err != nil {
		writePlanError(c, err)
		return
	}
	httputil.Success(c, planResponse(plan))
}

func planResponse(plan domain.FundingPlan) PlanResponse {
	return PlanResponse{
		FromDeposited:   plan.FromDeposited,
		FromUndeposited: plan.FromUndeposited,
		FromWallet:      plan.FromWallet,
		AdjustedAmount:  plan.AdjustedAmount,
		FeesCharged:     plan.FeesCharged,
		NeedsApproval:   plan.NeedsApproval,
		CanFund:         !plan.IsZero(),
	}
}

func parsePlanRequest(c *gin.Context) (domain.TokenPair, uint64, bool) {
	var req PlanRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return domain.TokenPair{}, 0, false
	}
	return parsePairAmount(c, req.TokenIn, req.TokenOut, req.Amount)
}

func parsePairAmount(c *gin.Context, tokenIn, tokenOut, amount string) (domain.TokenPair, uint64, bool) {
	in, err := solana.PublicKeyFromBase58(tokenIn)
	if err != nil {
		httputil.BadRequest(c, "invalid tokenIn: "+err.Error())
		return domain.TokenPair{}, 0, false
	}
	out, err := solana.PublicKeyFromBase58(tokenOut)
	if err != nil {
		httputil.BadRequest(c, "invalid tokenOut: "+err.Error())
		return domain.TokenPair{}, 0, false
	}
	value, err := strconv.ParseUint(amount, 10, 64)
	if err != nil || value == 0 {
		httputil.BadRequest(c, "invalid amount")
		return domain.TokenPair{}, 0, false
	}
	return domain.TokenPair{In: in, Out: out}, value, true
}

func writePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrUnknownToken):
		httputil.NotFound(c, err.Error())
	case errors.Is(err, engine.ErrZeroAmount):
		httputil.BadRequest(c, err.Error())
	default:
		httputil.InternalError(c, err.Error())
	}
}
