package api

import (
	"net/http"

	"credential-proxy/service"

	"github.com/gin-gonic/gin"
)

func (h *handlers) authGroup(r *gin.Engine) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/check-session", h.CheckSession)
}

func (h *handlers) Register(c *gin.Context) {
	var req service.RegisterRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		writeError(c, service.E(service.KindValidation, "invalid request body"))
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *handlers) Login(c *gin.Context) {
	var req service.LoginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		writeError(c, service.E(service.KindValidation, "invalid request body"))
		return
	}

	sess, token, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	maxAge := int(h.sessionTTL().Seconds())
	c.SetCookie(sessionCookie, token, maxAge, "/", "", false, true)

	c.JSON(http.StatusOK, sess)
}

func (h *handlers) Logout(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err == nil && token != "" {
		h.svc.Logout(c.Request.Context(), token)
	}

	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// CheckSession 无会话时不报错，返回 logged_in false
func (h *handlers) CheckSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}

	sess, err := h.svc.SessionUser(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logged_in":   true,
		"user_id":     sess.UserID,
		"username":    sess.Username,
		"email":       sess.Email,
		"address":     sess.Address,
		"private_key": sess.PrivateKey,
	})
}
