package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/users"
)

// SessionIDReader はクッキーから検証済みのセッションIDを取り出せるストアです。
type SessionIDReader interface {
	SessionID(r *http.Request, name string) (string, bool)
}

// SessionLock は同じセッションIDを持つリクエストを直列化するミドルウェアです。
// セッションの読み込みから保存までを1リクエストずつ行わせます。
func SessionLock(ids SessionIDReader, name string, locker *sessionstore.Locker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ids.SessionID(c.Request, name)
		if !ok {
			c.Next()
			return
		}
		unlock := locker.Lock(id)
		defer unlock()
		c.Next()
	}
}

// LoadPrincipal はセッションからログインユーザーを復元し、メッセージを取り出すミドルウェアです。
// ユーザーが見つからない場合は匿名として処理を続けます。
func (m *Manager) LoadPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session := sessions.Default(c)
		dirty := false

		if principalID, ok := session.Get(sessionstore.PrincipalKey).(string); ok && principalID != "" {
			user, err := m.principals.Deserialize(ctx, principalID)
			switch {
			case err == nil:
				c.Set(ContextUserKey, user)
			case errors.Is(err, ErrUnknownPrincipal):
				m.logger.WarnContext(ctx, "session refers to unknown user", "user_id", principalID)
				m.metrics.UnknownPrincipal()
				session.Delete(sessionstore.PrincipalKey)
				dirty = true
			default:
				// ストア障害ではセッションを消さず、このリクエストだけ匿名扱いにする
				m.logger.ErrorContext(ctx, "failed to load session user", "user_id", principalID, "error", err)
			}
		}

		if flashes := session.Flashes(); len(flashes) > 0 {
			messages := make([]string, len(flashes))
			for i, f := range flashes {
				messages[i] = fmt.Sprint(f)
			}
			c.Set(ContextMessagesKey, messages)
			dirty = true
		}

		if dirty {
			if err := session.Save(); err != nil {
				m.logger.ErrorContext(ctx, "failed to save session", "error", err)
				m.metrics.SessionSaveFailed()
				m.renderError(c, http.StatusInternalServerError, "homepage.html", "SESSION_SAVE_FAILED", "セッションの保存に失敗しました")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// RequireLogin はログイン済みのリクエストだけを通すミドルウェアです。
// 未ログインの場合はトップページへリダイレクトします。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusFound, m.redirectPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser はこのリクエストで復元したログインユーザーを返します。
func CurrentUser(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*users.User)
	return user, ok && user != nil
}

// Messages はこのリクエストで取り出したメッセージを返します。
func Messages(c *gin.Context) []string {
	v, ok := c.Get(ContextMessagesKey)
	if !ok {
		return nil
	}
	messages, _ := v.([]string)
	return messages
}
