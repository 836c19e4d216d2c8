package api

import (
	"net/http"
	"time"

	"credential-proxy/db"

	"github.com/gin-gonic/gin"
)

func (h *handlers) miscGroup(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
}

func (h *handlers) Health(c *gin.Context) {
	dbStatus := "connected"
	if err := db.Ping(); err != nil {
		dbStatus = "disconnected"
	}

	chainStatus := "connected"
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		chainStatus = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services": gin.H{
			"database":   dbStatus,
			"blockchain": chainStatus,
			"ipfs":       "available",
		},
	})
}

func (h *handlers) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
