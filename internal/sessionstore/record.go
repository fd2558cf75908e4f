// Package sessionstore はサーバー側に保存するセッションと、その gin-contrib/sessions 向けストアを提供します。
package sessionstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound はセッションが存在しない（または期限切れ）ことを表します。
var ErrNotFound = errors.New("session not found")

// Record はバックエンドに保存するセッションの中身です。
type Record struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principalId,omitempty"`
	Messages    []string  `json:"messages,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired は now 時点で期限切れかどうかを返します。
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now)
}

// Backend はセッションIDをキーにした永続化先です。
// 実装は並行利用に対して安全である必要があります。
type Backend interface {
	// Load は存在しない・期限切れの場合 ErrNotFound を返します。
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, record *Record) error
	Delete(ctx context.Context, id string) error
}

// Pruner は期限切れセッションの一括削除ができるバックエンドが実装します。
type Pruner interface {
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}
