package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"credential-proxy/config"
	"credential-proxy/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handlers struct {
	svc *service.Service
	cfg *config.Config
	log *zap.Logger
}

func (h *handlers) sessionTTL() time.Duration {
	hours := h.cfg.Server.SessionTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

type Option func(*gin.Engine)

// register 注册app的路由配置
func register(options *[]Option, opts ...Option) {
	*options = append(*options, opts...)
}

// groupInit 初始化路由
func (h *handlers) groupInit() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = h.cfg.Server.MaxUploadBytes

	options := make([]Option, 0)
	register(&options, h.authGroup, h.credentialGroup, h.userGroup, h.miscGroup)

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Run 启动http服务，随上下文取消优雅退出
func Run(ctx context.Context, svc *service.Service, log *zap.Logger) error {
	cfg := config.GetConfigInstance()
	h := &handlers{svc: svc, cfg: cfg, log: log}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: h.groupInit(),
	}

	// 启动http server
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server exited", zap.Error(err))
			return
		}
	}()

	<-ctx.Done()

	return server.Shutdown(context.Background())
}
