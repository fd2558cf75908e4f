// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/metrics"
	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/users"
)

const (
	SessionCookieName = "sid"

	// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
	ContextUserKey = "auth.user"
	// ContextMessagesKey は、このリクエストで取り出したメッセージのキーです。
	ContextMessagesKey = "auth.messages"

	userPagePath = "/userpage"
)

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	verifier     *Verifier
	registrar    *Registrar
	principals   *PrincipalMapper
	logger       *slog.Logger
	metrics      *metrics.Metrics
	cookie       sessions.Options
	redirectPath string
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, store users.Store, hasher PasswordHasher, logger *slog.Logger, m *metrics.Metrics) *Manager {
	redirect := cfg.UnauthenticatedRedirect
	if redirect == "" {
		redirect = "/"
	}
	return &Manager{
		verifier:     NewVerifier(store, hasher, logger),
		registrar:    NewRegistrar(store, hasher),
		principals:   NewPrincipalMapper(store),
		logger:       logger,
		metrics:      m,
		cookie:       CookieOptions(cfg),
		redirectPath: redirect,
	}
}

// CookieOptions はセッションクッキーのオプションを返します。
func CookieOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		m.metrics.ObserveLogin("invalid_input")
		m.renderError(c, http.StatusBadRequest, "login.html", "INVALID_INPUT", "ユーザー名とパスワードを入力してください")
		return
	}

	ctx := c.Request.Context()
	result, err := m.verifier.Verify(ctx, form.Username, form.Password)
	if err != nil {
		if isCanceled(err) {
			m.logger.InfoContext(ctx, "login canceled", "username", form.Username, "error", err)
			m.metrics.ObserveLogin("canceled")
		} else {
			m.logger.ErrorContext(ctx, "login lookup failed", "username", form.Username, "error", err)
			m.metrics.ObserveLogin("error")
		}
		m.respondWithError(c, "login.html", err)
		return
	}
	if !result.OK {
		if result.Reason == ReasonInternal {
			m.metrics.ObserveLogin("error")
			m.respondWithError(c, "login.html", ErrHashing)
			return
		}
		// 理由は区別せずに返す（ユーザー名の列挙を防ぐ）
		m.logger.InfoContext(ctx, "login rejected", "username", form.Username, "reason", result.Reason)
		m.metrics.ObserveLogin("invalid_credentials")
		m.respondWithError(c, "login.html", ErrAuthentication)
		return
	}

	if err := m.establish(c, result.PrincipalID, result.Username); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist login session", "user_id", result.PrincipalID, "error", err)
		m.metrics.SessionSaveFailed()
		m.metrics.ObserveLogin("error")
		m.renderError(c, http.StatusInternalServerError, "login.html", "SESSION_SAVE_FAILED", "セッションの保存に失敗しました。もう一度ログインしてください")
		return
	}

	m.metrics.ObserveLogin("success")
	c.Redirect(http.StatusSeeOther, userPagePath)
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBind(&sub); err != nil {
		m.metrics.ObserveSignup("invalid_input")
		m.renderError(c, http.StatusBadRequest, "signup.html", "INVALID_INPUT", "入力内容を確認してください")
		return
	}

	ctx := c.Request.Context()
	user, err := m.registrar.Signup(ctx, sub)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			m.metrics.ObserveSignup("invalid_input")
		case errors.Is(err, ErrDuplicateUsername):
			m.metrics.ObserveSignup("conflict")
		default:
			m.logger.ErrorContext(ctx, "signup failed", "username", sub.Username, "error", err)
			m.metrics.ObserveSignup("error")
		}
		m.respondWithError(c, "signup.html", err)
		return
	}

	// ユーザー作成はコミット済み。ここでの失敗は「改めてログインしてもらう」扱いにする
	if err := m.establish(c, m.principals.Serialize(user), user.Username); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist signup session", "user_id", user.ID, "error", err)
		m.metrics.SessionSaveFailed()
		m.metrics.ObserveSignup("created_without_session")
		m.renderError(c, http.StatusInternalServerError, "login.html", "SESSION_SAVE_FAILED", "アカウントは作成されました。ログインしてください")
		return
	}

	m.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	m.metrics.ObserveSignup("success")
	c.Redirect(http.StatusSeeOther, userPagePath)
}

// Logout は GET /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	opts := m.cookie
	opts.MaxAge = -1
	session.Options(opts)
	if err := session.Save(); err != nil {
		m.logger.ErrorContext(c.Request.Context(), "failed to delete session", "error", err)
		m.metrics.SessionSaveFailed()
		m.renderError(c, http.StatusInternalServerError, "homepage.html", "SESSION_SAVE_FAILED", "セッションの削除に失敗しました")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// establish はログイン済みとしてセッションを保存します。
// セッションIDは振り直し、有効期限は保存時点から延長されます。
func (m *Manager) establish(c *gin.Context, principalID, username string) error {
	session := sessions.Default(c)
	sessionstore.Regenerate(session)
	session.Set(sessionstore.PrincipalKey, principalID)
	session.AddFlash(fmt.Sprintf("ようこそ、%s さん", username))
	return session.Save()
}

func (m *Manager) respondWithError(c *gin.Context, page string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		m.renderError(c, http.StatusBadRequest, page, "VALIDATION_ERROR", validationMessage(err))
	case errors.Is(err, ErrDuplicateUsername):
		m.renderError(c, http.StatusConflict, page, "USERNAME_TAKEN", "このユーザー名は既に使われています")
	case errors.Is(err, ErrAuthentication):
		m.renderError(c, http.StatusUnauthorized, page, "INVALID_CREDENTIALS", "ユーザー名またはパスワードが正しくありません")
	case isCanceled(err):
		m.renderError(c, http.StatusServiceUnavailable, page, "REQUEST_CANCELED", "リクエストがタイムアウトしました。もう一度お試しください")
	default:
		m.renderError(c, http.StatusInternalServerError, page, "INTERNAL_ERROR", "サーバー内部でエラーが発生しました")
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, errPasswordMismatch):
		return "パスワードが一致しません"
	case errors.Is(err, errPasswordTooLong):
		return "パスワードが長すぎます"
	default:
		return "ユーザー名とパスワードを入力してください"
	}
}
