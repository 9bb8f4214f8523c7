package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/cache/redis"
	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/ctrl"
	hdl "github.com/quotegrid/quotegrid/internal/hdl/http"
	"github.com/quotegrid/quotegrid/internal/observability/metrics/prometheus"
	"github.com/quotegrid/quotegrid/internal/observability/tracing/jaeger"
	"github.com/quotegrid/quotegrid/internal/repo/db"
	"github.com/quotegrid/quotegrid/internal/repo/mem"
	"github.com/quotegrid/quotegrid/internal/smtp"
	"go.uber.org/zap"
)

const configPath = ".env"

func mustRegisterLogger(mode string) {
	switch mode {
	case "prod":
		zap.ReplaceGlobals(zap.Must(zap.NewProduction()))
	case "dev":
		zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))
	}
}

// newRepo selects the store implementation once at startup. Everything above
// it only ever sees the ctrl.AppRepo contract.
func newRepo(conf config.Config) ctrl.AppRepo {
	switch conf.Store {
	case "memory":
		zap.L().Warn("Using in-memory store, state will not survive a restart")
		return mem.New()
	default:
		return db.New(conf)
	}
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			zap.L().Panic("panic occurred", zap.Any("error", err))
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := config.MustLoad(configPath)
	mustRegisterLogger(conf.Server.Mode)

	go prometheus.New(conf.Server.Port + 5).Start(ctx)
	go jaeger.Start(ctx, conf.ServiceName, conf.Jaeger)

	au := auth.New(conf)
	cache := redis.New(conf.Redis)
	repo := newRepo(conf)
	svc := ctrl.New(au, repo, cache, smtp.New(conf))
	h := hdl.New(au, svc, conf.Server.Mode)

	go func() {
		t := time.NewTicker(config.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := svc.SweepExpiredTokens(ctx); err != nil {
					zap.L().Warn("Failed to sweep expired tokens", zap.Error(err))
				}
			}
		}
	}()

	zap.L().Info(
		fmt.Sprintf(
			"Starting server on %v://%v:%v",
			conf.Server.Scheme,
			conf.Server.Domain,
			conf.Server.Port,
		),
	)
	go h.Start(conf.Server.Port)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-c

	zap.L().Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := h.Close(shutdownCtx); err != nil {
		zap.L().Warn("Error closing handler", zap.Error(err))
	}

	if err := cache.Close(); err != nil {
		zap.L().Warn("Failed to close connection to Redis", zap.Error(err))
	}

	if err := repo.Close(shutdownCtx); err != nil {
		zap.L().Warn("Error closing repository", zap.Error(err))
	}

	os.Exit(0)
}
