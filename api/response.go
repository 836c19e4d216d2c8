package api

import (
	"net/http"

	"credential-proxy/service"

	"github.com/gin-gonic/gin"
)

// 错误响应统一为 {code, error}，code 为稳定的业务错误分类
func writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	c.JSON(statusOf(kind), gin.H{
		"code":  string(kind),
		"error": err.Error(),
	})
}

func abortError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	c.AbortWithStatusJSON(statusOf(kind), gin.H{
		"code":  string(kind),
		"error": err.Error(),
	})
}

// statusOf 业务错误分类到 http 状态码的映射
func statusOf(kind service.ErrKind) int {
	switch kind {
	case service.KindValidation, service.KindMalformedID:
		return http.StatusBadRequest
	case service.KindAuth:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindLedger, service.KindStorage, service.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
