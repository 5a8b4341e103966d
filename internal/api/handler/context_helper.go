package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "noafarin/evaluation-service/pkg/errors"
	"noafarin/evaluation-service/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// handleServiceError 按错误分类映射 HTTP 状态码
// 4xx 返回可读的错误信息；其余错误已在 Service 层记录日志，这里只返回通用 500
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 30001, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidState):
		response.Conflict(c, 30002, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 30003, err.Error())
	default:
		response.InternalError(c)
	}
}
