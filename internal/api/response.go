package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/logger"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError 按错误码映射HTTP状态并输出统一错误体
func respondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if e, ok := err.(*errors.AppError); ok {
		appErr = e
	} else {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		logger.LogError(appErr, "请求处理失败")
	}

	body := gin.H{
		"code":    int(appErr.Code),
		"message": appErr.Message,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.HTTPStatus(), body)
}

// respondBadRequest 请求体解析失败
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "INVALID_REQUEST",
		Message: "请求参数错误",
		Details: err.Error(),
	})
}
