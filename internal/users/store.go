package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound は該当ユーザーが存在しないことを表します。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername はユーザー名の一意制約違反を表します。
	ErrDuplicateUsername = errors.New("username already exists")
)

// Store はユーザーレコードの保存先です。
type Store interface {
	// Create は ID・ユーザー名・パスワードハッシュを持つユーザーを保存します。
	Create(ctx context.Context, user *User) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByID は ID とユーザー名のみを返します（PasswordHash は空）。
	FindByID(ctx context.Context, id string) (*User, error)
}
