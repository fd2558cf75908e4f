package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

func (m *Manager) handlePruneTask(ctx context.Context, task *asynq.Task) error {
	taskID, _ := asynq.GetTaskID(ctx)
	run := &Run{
		TaskID:    taskID,
		Status:    StatusRunning,
		StartedAt: m.now().UTC(),
	}
	m.record(ctx, run)

	pruned, err := m.pruner.PruneExpired(ctx, m.now())
	run.FinishedAt = m.now().UTC()
	if err != nil {
		run.Status = StatusFailed
		run.Error = &ErrorInfo{Code: "PRUNE_FAILED", Message: err.Error()}
		m.record(ctx, run)
		m.logger.ErrorContext(ctx, "failed to prune expired sessions", "task_id", taskID, "error", err)
		return err
	}

	run.Status = StatusSucceeded
	run.Pruned = pruned
	m.record(ctx, run)
	m.metrics.SessionsPruned(pruned)
	m.logger.InfoContext(ctx, "pruned expired sessions", "task_id", taskID, "count", pruned)
	return nil
}

// record は実行記録を保存します。記録の失敗でタスク自体は失敗させない。
func (m *Manager) record(ctx context.Context, run *Run) {
	if m.runs == nil {
		return
	}
	if err := m.runs.Save(ctx, run); err != nil {
		m.logger.WarnContext(ctx, "failed to save prune run", "error", err)
	}
}
