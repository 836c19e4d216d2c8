package api

import (
	"net/http"
	"strconv"

	"credential-proxy/service"

	"github.com/gin-gonic/gin"
)

func (h *handlers) userGroup(r *gin.Engine) {
	g := r.Group("/user", h.requireLogin())
	{
		g.GET("/:userId/recent-activity", h.RecentActivity)
		g.GET("/:userId/activity-stats", h.ActivityStats)
		g.GET("/:userId/credentials", h.UserCredentials)
	}
}

// pathUserID 解析路径中的用户 id；requireOwn 为 true 时只允许本人访问
func (h *handlers) pathUserID(c *gin.Context, requireOwn bool) (int, bool) {
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		writeError(c, service.E(service.KindValidation, "invalid user id"))
		return 0, false
	}

	if requireOwn {
		sess := currentSession(c)
		if sess == nil || sess.UserID != userID {
			writeError(c, service.E(service.KindForbidden, "unauthorized"))
			return 0, false
		}
	}

	return userID, true
}

func (h *handlers) RecentActivity(c *gin.Context) {
	userID, ok := h.pathUserID(c, true)
	if !ok {
		return
	}

	resp, err := h.svc.RecentActivity(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) ActivityStats(c *gin.Context) {
	userID, ok := h.pathUserID(c, true)
	if !ok {
		return
	}

	resp, err := h.svc.ActivityStats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) UserCredentials(c *gin.Context) {
	userID, ok := h.pathUserID(c, false)
	if !ok {
		return
	}

	resp, err := h.svc.UserCredentials(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
