package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/yourusername/session-auth/internal/metrics"
)

// DefaultHashCost は bcrypt の既定コストです。
const DefaultHashCost = 15

// bcrypt は先頭72バイトしか使わないため、それを超える入力は受け付けない
const maxPasswordBytes = 72

// PasswordHasher はパスワードの一方向ハッシュと照合を行います。
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// Hasher は bcrypt による PasswordHasher 実装です。
// 計算はリクエスト処理とは別の goroutine で行い、同時実行数をセマフォで制限します。
type Hasher struct {
	cost    int
	sem     *semaphore.Weighted
	metrics *metrics.Metrics
}

// NewHasher は Hasher を作成します。concurrency <= 0 の場合は CPU 数を使います。
func NewHasher(cost, concurrency int, m *metrics.Metrics) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d: %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Hasher{
		cost:    cost,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		metrics: m,
	}, nil
}

// Hash は plaintext をソルト付きでハッシュ化します。
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", errPasswordTooLong
	}

	var hashed []byte
	err := h.run(ctx, "hash", func() error {
		out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrHashing, err)
		}
		hashed = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify は plaintext が hash と一致するかを返します。
// 不一致は (false, nil)、ハッシュが壊れている場合は ErrHashing です。
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var matched bool
	err := h.run(ctx, "verify", func() error {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		switch {
		case err == nil:
			matched = true
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return nil
		default:
			return fmt.Errorf("%w: %v", ErrHashing, err)
		}
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

// run は fn を別 goroutine で実行し、完了か ctx の終了のどちらか早い方で戻ります。
// fn が書き込む値は done を受信した後にだけ読むこと。
func (h *Hasher) run(ctx context.Context, op string, fn func() error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer h.sem.Release(1)
		start := time.Now()
		done <- fn()
		h.metrics.ObserveHash(op, time.Since(start).Seconds())
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
