// Package jobs は期限切れセッションの定期掃除を Asynq で実行します。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/metrics"
	"github.com/yourusername/session-auth/internal/sessionstore"
)

const (
	// TaskTypePruneSessions は期限切れセッション掃除のタスク名です。
	TaskTypePruneSessions = "sessions:prune"

	queueName = "maintenance"
)

// Manager は掃除タスクの投入・定期実行・ワーカーをまとめたものです。
type Manager struct {
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	interval  time.Duration
	pruner    sessionstore.Pruner
	runs      *RunStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewManager は Manager を初期化します。runs が nil の場合は実行記録を残しません。
func NewManager(cfg *config.Config, pruner sessionstore.Pruner, runs *RunStore, logger *slog.Logger, m *metrics.Metrics) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if pruner == nil {
		return nil, errors.New("pruner is nil")
	}
	opt, err := asynq.ParseRedisURI(cfg.QueueRedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queueName: 1,
			},
		},
	)
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	mux := asynq.NewServeMux()
	manager := &Manager{
		client:    client,
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		interval:  cfg.SessionPruneInterval(),
		pruner:    pruner,
		runs:      runs,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
	mux.HandleFunc(TaskTypePruneSessions, manager.handlePruneTask)
	return manager, nil
}

func newPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypePruneSessions, nil, asynq.Queue(queueName), asynq.MaxRetry(1))
}

// Start はワーカーとスケジューラをバックグラウンドで起動します。
func (m *Manager) Start() error {
	cronspec := fmt.Sprintf("@every %s", m.interval)
	if _, err := m.scheduler.Register(cronspec, newPruneTask(), asynq.Unique(m.interval)); err != nil {
		return fmt.Errorf("failed to register prune schedule: %w", err)
	}

	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			m.logger.Error("asynq server stopped with error", "error", err)
		}
	}()
	go func() {
		if err := m.scheduler.Run(); err != nil {
			m.logger.Error("asynq scheduler stopped with error", "error", err)
		}
	}()
	return nil
}

// Shutdown はスケジューラ・サーバー・クライアントを閉じます。
// 実行中のタスクの終了待ちが ctx の期限を超えた場合は ctx.Err() を返します。
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		m.scheduler.Shutdown()
		m.server.Shutdown()
		done <- m.client.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PruneNow は掃除タスクを即時にキューへ投入し、投入済みとして記録します。
func (m *Manager) PruneNow(ctx context.Context) (string, error) {
	info, err := m.client.EnqueueContext(ctx, newPruneTask())
	if err != nil {
		return "", err
	}
	m.record(ctx, &Run{
		TaskID:    info.ID,
		Status:    StatusQueued,
		StartedAt: m.now().UTC(),
	})
	return info.ID, nil
}

// LastRun は直近の掃除ジョブの記録を返します。
func (m *Manager) LastRun(ctx context.Context) (*Run, error) {
	if m.runs == nil {
		return nil, nil
	}
	return m.runs.Last(ctx)
}
