// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

// バックエンド種別
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// MinPasswordHashCost は本番環境で許可する bcrypt コストの下限です。
const MinPasswordHashCost = 15

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッション設定
	SessionSecret           string // セッションIDクッキー署名用の秘密鍵
	GeneratedSessionSecret  bool   // SESSION_SECRET 未設定のため起動時に生成した鍵を使っているか
	SessionBackend          string // postgres / redis / memory
	SessionRedisURL         string // Redisセッションストアの接続URL
	SessionTTLHours         int    // セッションの有効期間（時間）
	UnauthenticatedRedirect string // 未ログイン時のリダイレクト先

	// ユーザーストア設定
	UserStore string // postgres / memory

	// データベース設定
	DBUser             string
	DBPassword         string
	DBHost             string
	DBName             string
	DBPort             string
	DBMaxConns         int // 最大接続数
	DBIdleTimeoutMS    int // アイドル接続を閉じるまでの時間（ミリ秒）
	DBConnectTimeoutMS int // 接続タイムアウト（ミリ秒）

	// パスワードハッシュ設定
	PasswordHashCost int // bcrypt のコスト
	HashConcurrency  int // 同時に実行するハッシュ計算の上限

	// ジョブ/キュー設定
	QueueRedisURL               string // Asynq用Redis接続URL（空なら期限切れセッションの掃除を行わない）
	SessionPruneIntervalMinutes int    // 期限切れセッションの掃除間隔（分）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "3000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		// セッション設定
		SessionSecret:           getEnv("SESSION_SECRET", ""),
		SessionBackend:          getEnv("SESSION_BACKEND", BackendPostgres),
		SessionRedisURL:         getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/1"),
		SessionTTLHours:         getEnvAsInt("SESSION_TTL_HOURS", 24),
		UnauthenticatedRedirect: getEnv("UNAUTHENTICATED_REDIRECT", "/"),

		// ユーザーストア設定
		UserStore: getEnv("USER_STORE", BackendPostgres),

		// データベース設定
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBName:             getEnv("DB_NAME", "postgres"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBMaxConns:         getEnvAsInt("DB_MAX_CONNS", 20),
		DBIdleTimeoutMS:    getEnvAsInt("DB_IDLE_TIMEOUT_MS", 30000),
		DBConnectTimeoutMS: getEnvAsInt("DB_CONNECT_TIMEOUT_MS", 2000),

		// パスワードハッシュ設定
		PasswordHashCost: getEnvAsInt("PASSWORD_HASH_COST", MinPasswordHashCost),
		HashConcurrency:  getEnvAsInt("HASH_CONCURRENCY", 4),

		// ジョブ/キュー設定
		QueueRedisURL:               getEnv("QUEUE_REDIS_URL", ""),
		SessionPruneIntervalMinutes: getEnvAsInt("SESSION_PRUNE_INTERVAL_MINUTES", 15),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := config.ensureSessionSecret(); err != nil {
		return nil, err
	}

	return config, nil
}

// ensureSessionSecret は SESSION_SECRET が未設定の場合に署名鍵を生成します。
// 生成した鍵はプロセス内でのみ有効なので、再起動すると既存のセッションは無効になります。
// release モードでは Validate が未設定を拒否するため、ここには来ません。
func (c *Config) ensureSessionSecret() error {
	if c.SessionSecret != "" {
		return nil
	}
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return fmt.Errorf("failed to generate session secret")
	}
	c.SessionSecret = string(key)
	c.GeneratedSessionSecret = true
	return nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of postgres, redis, memory: %q", c.SessionBackend)
	}
	switch c.UserStore {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("USER_STORE must be one of postgres, memory: %q", c.UserStore)
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	// ローカル開発ではセッション鍵とハッシュコストは緩めてよい
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.PasswordHashCost < MinPasswordHashCost {
			return fmt.Errorf("PASSWORD_HASH_COST must be at least %d in release mode", MinPasswordHashCost)
		}
		if c.UserStore == BackendMemory || c.SessionBackend == BackendMemory {
			return fmt.Errorf("memory stores are not allowed in release mode")
		}
	}

	return nil
}

// SessionTTL はセッションの有効期間を返します。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// SessionPruneInterval は期限切れセッションの掃除間隔を返します。
func (c *Config) SessionPruneInterval() time.Duration {
	if c.SessionPruneIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.SessionPruneIntervalMinutes) * time.Minute
}

// DatabaseURL は pgx 用の接続文字列を組み立てます。
func (c *Config) DatabaseURL() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	if c.DBPassword != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	} else {
		u.User = url.User(c.DBUser)
	}
	q := url.Values{}
	if c.DBConnectTimeoutMS > 0 {
		// connect_timeout は秒単位なので切り上げる
		q.Set("connect_timeout", strconv.Itoa((c.DBConnectTimeoutMS+999)/1000))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
