package api

import (
	"credential-proxy/service"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie = "session_token"
	ctxSessionKey = "session"
)

// requireLogin 会话校验中间件，登录态写入请求上下文
func (h *handlers) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			abortError(c, service.E(service.KindAuth, "authentication required"))
			return
		}

		sess, err := h.svc.SessionUser(c.Request.Context(), token)
		if err != nil {
			abortError(c, err)
			return
		}

		c.Set(ctxSessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *service.SessionInfo {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	return v.(*service.SessionInfo)
}
