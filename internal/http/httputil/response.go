package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/venue-router/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func WriteError(c *gin.Context, err *common.HttpError) {
	c.JSON(err.StatusCode, Response{
		Success: false,
		Error:   err.Message,
		Code:    err.Code,
	})
}

func BadRequest(c *gin.Context, err string) {
	WriteError(c, common.HTTPErrorBadRequest(err))
}

func InternalError(c *gin.Context, err string) {
	WriteError(c, common.HTTPErrorInternalError(err))
}

func NotFound(c *gin.Context, err string) {
	WriteError(c, common.HTTPErrorNotFound(err))
}

func Unprocessable(c *gin.Context, err string) {
	WriteError(c, common.HTTPErrorUnprocessable(err))
}
