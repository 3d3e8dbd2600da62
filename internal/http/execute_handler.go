package http

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/engine"
	"github.com/hxuan190/venue-router/internal/http/httputil"
	"github.com/hxuan190/venue-router/internal/services/executor"
)

type ExecuteHandler struct {
	engineSvc *engine.Service
}

func NewExecuteHandler(engineSvc *engine.Service) *ExecuteHandler {
	return &ExecuteHandler{engineSvc: engineSvc}
}

func (h *ExecuteHandler) Root() string {
	return "/execute"
}

func (h *ExecuteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.execute)
}

// ExecuteRequest settles a previously optimized plan. The submitted plan is
// authoritative; the engine does not re-derive amounts from fresher state.
type ExecuteRequest struct {
	TokenIn  string `json:"tokenIn" binding:"required"`
	TokenOut string `json:"tokenOut" binding:"required"`

	Plan domain.SplitPlan `json:"plan" binding:"required"`

	KeepOutputInPool bool   `json:"keepOutputInPool"`
	SlippageBps      uint16 `json:"slippageBps"`
}

func (h *ExecuteHandler) execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	in, err := solana.PublicKeyFromBase58(req.TokenIn)
	if err != nil {
		httputil.BadRequest(c, "invalid tokenIn: "+err.Error())
		return
	}
	out, err := solana.PublicKeyFromBase58(req.TokenOut)
	if err != nil {
		httputil.BadRequest(c, "invalid tokenOut: "+err.Error())
		return
	}
	pair := domain.TokenPair{In: in, Out: out}

	prefs := domain.ExecutionPrefs{
		KeepOutputInPool: req.KeepOutputInPool,
		SlippageBps:      req.SlippageBps,
	}

	result, err := h.engineSvc.Execute(c.Request.Context(), pair, req.Plan, prefs, domain.NopObserver{})
	if err != nil {
		if errors.Is(err, executor.ErrNothingToExecute) {
			httputil.Unprocessable(c, err.Error())
			return
		}
		writePlanError(c, err)
		return
	}

	// Step-level failures are structured outcomes, not HTTP errors; the
	// caller inspects per-venue step lists either way.
	httputil.Success(c, result)
}
