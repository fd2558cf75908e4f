package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/session-auth/internal/users"
)

// Submission はサインアップフォームの入力です。保存はしません。
type Submission struct {
	Username        string `form:"username"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}

// NormalizeUsername は保存・照合の前にユーザー名を正規化します。
// サインアップとログインで同じ規則を使うこと。
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Registrar は新規ユーザーの登録を行います。
type Registrar struct {
	users  users.Store
	hasher PasswordHasher
	newID  func() string
}

// NewRegistrar は Registrar を作成します。
func NewRegistrar(store users.Store, hasher PasswordHasher) *Registrar {
	return &Registrar{
		users:  store,
		hasher: hasher,
		newID:  uuid.NewString,
	}
}

// Signup は入力を検証し、パスワードをハッシュ化してユーザーを作成します。
// 検証エラーの場合はハッシュ計算もストア書き込みも行いません。
func (r *Registrar) Signup(ctx context.Context, sub Submission) (*users.User, error) {
	username := NormalizeUsername(sub.Username)
	if username == "" || sub.Password == "" {
		return nil, errMissingCredentials
	}
	if sub.Password != sub.ConfirmPassword {
		return nil, errPasswordMismatch
	}

	hash, err := r.hasher.Hash(ctx, sub.Password)
	if err != nil {
		return nil, err
	}

	user, err := r.users.Create(ctx, &users.User{
		ID:           r.newID(),
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return user, nil
}
