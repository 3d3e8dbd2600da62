package http

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/venue-router/internal/domain"
	"github.com/hxuan190/venue-router/internal/http/httputil"
	"github.com/hxuan190/venue-router/internal/services/registry"
)

type TokenHandler struct {
	registrySvc *registry.Service
}

func NewTokenHandler(registrySvc *registry.Service) *TokenHandler {
	return &TokenHandler{registrySvc: registrySvc}
}

func (h *TokenHandler) Root() string {
	return "/tokens"
}

func (h *TokenHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:mint", h.getToken)
	admin.POST("", h.registerToken)
}

// RegisterTokenRequest describes a token policy: its transfer standard and
// the fixed network fee per operation in base units.
type RegisterTokenRequest struct {
	Mint     string `json:"mint" binding:"required"`
	Symbol   string `json:"symbol"`
	Standard uint8  `json:"standard"`
	Fee      uint64 `json:"fee"`
	Decimals uint8  `json:"decimals"`
}

func (h *TokenHandler) getToken(c *gin.Context) {
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		httputil.BadRequest(c, "invalid mint: "+err.Error())
		return
	}

	info, err := h.registrySvc.Lookup(mint)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownToken) {
			httputil.NotFound(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, info)
}

func (h *TokenHandler) registerToken(c *gin.Context) {
	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		httputil.BadRequest(c, "invalid mint: "+err.Error())
		return
	}
	if req.Standard > uint8(domain.StandardApprovePullLegacy) {
		httputil.BadRequest(c, "unknown token standard")
		return
	}

	info := domain.TokenInfo{
		Mint:     mint,
		Symbol:   req.Symbol,
		Standard: domain.TokenStandard(req.Standard),
		Fee:      req.Fee,
		Decimals: req.Decimals,
	}
	if err := h.registrySvc.Register(info); err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, info)
}
