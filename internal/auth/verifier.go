package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourusername/session-auth/internal/users"
)

// 認証失敗の理由（ログ用。クライアントには出さない）
const (
	ReasonNoSuchUser      = "no such user"
	ReasonInvalidPassword = "invalid password"
	ReasonInternal        = "internal error"
)

// Result は1回のログイン試行の結果です。
type Result struct {
	OK          bool
	PrincipalID string
	Username    string
	Reason      string
}

// Success は認証成功の Result を返します。
func Success(principalID, username string) Result {
	return Result{OK: true, PrincipalID: principalID, Username: username}
}

// Failure は認証失敗の Result を返します。
func Failure(reason string) Result {
	return Result{Reason: reason}
}

// Verifier はユーザー名とパスワードを照合します。
type Verifier struct {
	users  users.Store
	hasher PasswordHasher
	logger *slog.Logger
}

// NewVerifier は Verifier を作成します。
func NewVerifier(store users.Store, hasher PasswordHasher, logger *slog.Logger) *Verifier {
	return &Verifier{users: store, hasher: hasher, logger: logger}
}

// Verify は資格情報を1回だけ検証します。ストア参照以外の副作用はありません。
// ストアの I/O エラーと ctx の終了だけを error として返します。
func (v *Verifier) Verify(ctx context.Context, username, password string) (Result, error) {
	user, err := v.users.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Failure(ReasonNoSuchUser), nil
		}
		if isCanceled(err) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	ok, err := v.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if isCanceled(err) {
			return Result{}, err
		}
		v.logger.ErrorContext(ctx, "password verification failed", "user_id", user.ID, "error", err)
		return Failure(ReasonInternal), nil
	}
	if !ok {
		return Failure(ReasonInvalidPassword), nil
	}
	return Success(user.ID, user.Username), nil
}
