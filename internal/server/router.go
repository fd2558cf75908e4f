// Package server はルーティングとミドルウェアの配線を行います。
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/session-auth/internal/auth"
	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/metrics"
	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/users"
	"github.com/yourusername/session-auth/internal/views"
)

// Dependencies はルーターの構築に必要な部品です。
type Dependencies struct {
	Config   *config.Config
	Users    users.Store
	Sessions *sessionstore.Store
	Hasher   auth.PasswordHasher
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // nil の場合 /metrics は登録しない
}

// NewRouter は Gin エンジンを組み立てます。
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config

	tmpl, err := views.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.SetHTMLTemplate(tmpl)

	// セッションストアの設定（クッキーにはセッションIDのみを載せる）
	deps.Sessions.Options(auth.CookieOptions(cfg))
	router.Use(sessions.Sessions(auth.SessionCookieName, deps.Sessions))
	router.Use(auth.SessionLock(deps.Sessions, auth.SessionCookieName, sessionstore.NewLocker()))

	// CORSミドルウェアの設定
	if cfg.CORSAllowedOrigins != "" {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}

	setupRoutes(router, deps)
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "session-auth",
	})
}

// setupRoutes はページと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", handleHealth)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authManager := auth.NewManager(deps.Config, deps.Users, deps.Hasher, deps.Logger, deps.Metrics)

	pages := router.Group("")
	pages.Use(authManager.LoadPrincipal())
	{
		pages.GET("/", authManager.HomePage)
		pages.GET("/login", authManager.LoginPage)
		pages.GET("/signup", authManager.SignupPage)
		pages.POST("/login", authManager.Login)
		pages.POST("/signup", authManager.Signup)
		pages.GET("/logout", authManager.Logout)

		pages.GET("/userpage", authManager.RequireLogin(), authManager.UserPage)
	}
}
