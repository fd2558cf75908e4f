package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/dbx"
	"github.com/yourusername/session-auth/internal/jobs"
	"github.com/yourusername/session-auth/internal/metrics"
	"github.com/yourusername/session-auth/internal/migrations"
	"github.com/yourusername/session-auth/internal/sessionstore"
	"github.com/yourusername/session-auth/internal/users"
)

type appStores struct {
	users    users.Store
	sessions sessionstore.Backend
	closers  []func() error
}

func (s *appStores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// setupStores は設定に応じてユーザーストアとセッションバックエンドを用意します。
func setupStores(ctx context.Context, cfg *config.Config) (*appStores, error) {
	stores := &appStores{}

	var db *sql.DB
	if cfg.UserStore == config.BackendPostgres || cfg.SessionBackend == config.BackendPostgres {
		var err error
		db, err = dbx.OpenPostgres(ctx, cfg.DatabaseURL(), dbx.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			IdleTimeout: time.Duration(cfg.DBIdleTimeoutMS) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, db.Close)

		if err := migrations.Up(ctx, db); err != nil {
			stores.Close()
			return nil, err
		}
	}

	switch cfg.UserStore {
	case config.BackendPostgres:
		stores.users = users.NewPostgresStore(db)
	default:
		stores.users = users.NewMemoryStore()
	}

	switch cfg.SessionBackend {
	case config.BackendPostgres:
		stores.sessions = sessionstore.NewPostgresBackend(db)
	case config.BackendRedis:
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("failed to parse session redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		stores.closers = append(stores.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			stores.Close()
			return nil, fmt.Errorf("failed to connect session redis: %w", err)
		}
		stores.sessions = sessionstore.NewRedisBackend(rdb)
	default:
		stores.sessions = sessionstore.NewMemoryBackend()
	}

	return stores, nil
}

// setupJobs は期限切れセッションの定期掃除を用意します。
// キュー未設定、またはバックエンド側で失効する場合は nil を返します。
func setupJobs(cfg *config.Config, backend sessionstore.Backend, logger *slog.Logger, m *metrics.Metrics) (*jobs.Manager, error) {
	if cfg.QueueRedisURL == "" {
		return nil, nil
	}
	pruner, ok := backend.(sessionstore.Pruner)
	if !ok {
		logger.Info("session backend expires records itself; pruning disabled", "backend", cfg.SessionBackend)
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, err
	}
	runs := jobs.NewRunStore(redis.NewClient(opt), 24*time.Hour)
	return jobs.NewManager(cfg, pruner, runs, logger, m)
}
