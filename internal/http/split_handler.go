package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/venue-router/internal/engine"
	"github.com/hxuan190/venue-router/internal/http/httputil"
	"github.com/hxuan190/venue-router/internal/services/optimizer"
)

type SplitHandler struct {
	engineSvc *engine.Service
}

func NewSplitHandler(engineSvc *engine.Service) *SplitHandler {
	return &SplitHandler{engineSvc: engineSvc}
}

func (h *SplitHandler) Root() string {
	return "/split"
}

func (h *SplitHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getSplit)
}

// SplitRequest asks for the output-maximizing split of one trade across the
// two venues.
type SplitRequest struct {
	TokenIn  string `form:"tokenIn" binding:"required"`
	TokenOut string `form:"tokenOut" binding:"required"`
	Amount   string `form:"amount" binding:"required"`
}

func (h *SplitHandler) getSplit(c *gin.Context) {
	var req SplitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	pair, amount, ok := parsePairAmount(c, req.TokenIn, req.TokenOut, req.Amount)
	if !ok {
		return
	}

	split, err := h.engineSvc.OptimizeSplit(c.Request.Context(), pair, amount)
	if err != nil {
		if errors.Is(err, optimizer.ErrNoUsableRatio) {
			httputil.Unprocessable(c, err.Error())
			return
		}
		writePlanError(c, err)
		return
	}
	httputil.Success(c, split)
}
