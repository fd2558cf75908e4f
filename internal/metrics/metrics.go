// Package metrics は認証・セッション関連の Prometheus メトリクスを提供します。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session_auth"

// Metrics は各コンポーネントが記録するメトリクスの集合です。
// nil のままでも各メソッドは安全に呼び出せます。
type Metrics struct {
	loginAttempts       *prometheus.CounterVec
	signups             *prometheus.CounterVec
	sessionSaveFailures prometheus.Counter
	unknownPrincipals   prometheus.Counter
	prunedSessions      prometheus.Counter
	hashDuration        *prometheus.HistogramVec
}

// New は reg にメトリクスを登録して Metrics を返します。
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),

		signups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Signup attempts by result",
		}, []string{"result"}),

		sessionSaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_save_failures_total",
			Help:      "Session writes that failed to persist",
		}),

		unknownPrincipals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_principals_total",
			Help:      "Sessions whose principal no longer maps to a user",
		}),

		prunedSessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_sessions_total",
			Help:      "Expired sessions removed by the pruning job",
		}),

		hashDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "password_hash_duration_seconds",
			Help:      "Time spent in bcrypt hash/verify",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"op"}),
	}
}

// ObserveLogin はログイン結果を記録します。
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// ObserveSignup はサインアップ結果を記録します。
func (m *Metrics) ObserveSignup(result string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(result).Inc()
}

// SessionSaveFailed はセッション保存失敗を記録します。
func (m *Metrics) SessionSaveFailed() {
	if m == nil {
		return
	}
	m.sessionSaveFailures.Inc()
}

// UnknownPrincipal は存在しないユーザーを指すセッションを記録します。
func (m *Metrics) UnknownPrincipal() {
	if m == nil {
		return
	}
	m.unknownPrincipals.Inc()
}

// SessionsPruned は掃除したセッション数を加算します。
func (m *Metrics) SessionsPruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.prunedSessions.Add(float64(n))
}

// ObserveHash はハッシュ処理の所要時間を記録します。
func (m *Metrics) ObserveHash(op string, seconds float64) {
	if m == nil {
		return
	}
	m.hashDuration.WithLabelValues(op).Observe(seconds)
}
