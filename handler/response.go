package handler

import (
	"errors"
	"net/http"

	"dinein_order/errno"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CodeError   = 0
	CodeSuccess = 1
)

// Response 统一返回结构
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func ResponseSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Data: data})
}

// ResponseError 业务错误原样返回，其余错误只记录日志
func ResponseError(c *gin.Context, err error) {
	status := httpStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("rid")),
			zap.Error(err))
		msg = "internal error"
	}
	c.JSON(status, Response{Code: CodeError, Msg: msg})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, errno.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errno.ErrOwnership):
		return http.StatusForbidden
	case errors.Is(err, errno.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errno.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
