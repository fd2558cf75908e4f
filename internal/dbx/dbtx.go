// Package dbx はリポジトリ間で共有する小さなDB抽象を提供します。
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// database/sql 用の pgx ドライバー
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBTX はリポジトリが利用する database/sql のサブセットです。
// *sql.DB と *sql.Tx の両方が満たします。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolOptions はコネクションプールの設定です。
type PoolOptions struct {
	MaxConns    int
	IdleTimeout time.Duration
}

// OpenPostgres は pgx ドライバーで接続を開き、疎通確認まで行います。
func OpenPostgres(ctx context.Context, dsn string, opts PoolOptions) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	if opts.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(opts.IdleTimeout)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}
