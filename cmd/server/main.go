// Package main はセッション認証サーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yourusername/session-auth/internal/auth"
	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/logging"
	"github.com/yourusername/session-auth/internal/metrics"
	"github.com/yourusername/session-auth/internal/server"
	"github.com/yourusername/session-auth/internal/sessionstore"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logging.New("release").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)
	logger := logging.New(cfg.GinMode)
	if cfg.GeneratedSessionSecret {
		logger.Warn("SESSION_SECRET is not set; using a random key, sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	stores, err := setupStores(ctx, cfg)
	if err != nil {
		logger.Error("failed to set up stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	hasher, err := auth.NewHasher(cfg.PasswordHashCost, cfg.HashConcurrency, m)
	if err != nil {
		logger.Error("failed to create password hasher", "error", err)
		os.Exit(1)
	}

	sessionStore := sessionstore.NewStore(stores.sessions, cfg.SessionTTL(), []byte(cfg.SessionSecret))

	jobManager, err := setupJobs(cfg, stores.sessions, logger, m)
	if err != nil {
		logger.Error("failed to set up jobs", "error", err)
		os.Exit(1)
	}
	if jobManager != nil {
		if err := jobManager.Start(); err != nil {
			logger.Error("failed to start jobs", "error", err)
			os.Exit(1)
		}
	}

	router, err := server.NewRouter(server.Dependencies{
		Config:   cfg,
		Users:    stores.users,
		Sessions: sessionStore,
		Hasher:   hasher,
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	// サーバーの起動
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "mode", cfg.GinMode,
			"session_backend", cfg.SessionBackend, "user_store", cfg.UserStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped with error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server", "error", err)
	}
	if jobManager != nil {
		if err := jobManager.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down jobs", "error", err)
		}
	}
	logger.Info("server stopped")
}
