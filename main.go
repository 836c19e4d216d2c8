package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credential-proxy/api"
	"credential-proxy/chain"
	"credential-proxy/config"
	"credential-proxy/db"
	"credential-proxy/notify"
	"credential-proxy/service"
	"credential-proxy/storage"

	"go.uber.org/zap"
)

func main() {
	err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	cfg := config.GetConfigInstance()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	gdb := db.GetGormDb()
	if cfg.Gorm.EnableAutoMigrate {
		err = db.AutoMigrate(gdb)
		if err != nil {
			logger.Fatal("auto migrate failed", zap.Error(err))
		}
	}

	err = chain.Init()
	if err != nil {
		logger.Fatal("init chain client failed", zap.Error(err))
	}

	svc := service.New(
		gdb,
		chain.GetClient(),
		storage.NewIPFS(cfg.IPFS.APIAddr, cfg.IPFS.Gateway),
		notify.NewMailer(cfg.Mail),
		logger,
		service.Options{
			FrontendURL:  cfg.Server.FrontendURL,
			SessionTTL:   time.Duration(cfg.Server.SessionTTLHours) * time.Hour,
			DefaultBlock: cfg.Chain.DefaultBlock,
		},
	)

	// 账户池灌入，重复启动自动跳过已有地址
	err = svc.SeedAccounts(cfg.Chain.AccountsFile)
	if err != nil {
		logger.Warn("seed account pool failed, registration will be unavailable", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	wp := service.NewWorkerPool(4, ctx, cancel)

	// api 服务
	err = wp.Submit(func(ctx context.Context) error {
		return api.Run(ctx, svc, logger)
	})
	if err != nil {
		logger.Fatal("submit api task failed", zap.Error(err))
	}

	// 镜像对账任务
	interval := time.Duration(cfg.Chain.ReconcileIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	err = wp.Submit(func(ctx context.Context) error {
		return svc.RunReconcile(ctx, interval)
	})
	if err != nil {
		logger.Fatal("submit reconcile task failed", zap.Error(err))
	}

	wp.Start()

	// 捕捉系统quit信号
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	<-signals

	wp.Stop()
}
