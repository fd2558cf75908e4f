package jobs

import "time"

// Status は掃除ジョブの実行状態を表します。
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "done"
	StatusFailed    Status = "error"
)

// ErrorInfo はジョブ失敗時のエラー情報を保持します。
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run は期限切れセッション掃除の1回分の記録です。
type Run struct {
	TaskID     string     `json:"taskId"`
	Status     Status     `json:"status"`
	Pruned     int64      `json:"pruned"`
	Error      *ErrorInfo `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"` // queued の場合は投入時刻
	FinishedAt time.Time  `json:"finishedAt,omitempty"`
}
