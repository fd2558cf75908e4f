package auth

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/session-auth/internal/users"
)

var errBoom = errors.New("boom")

// newTestHasher は最小コストの Hasher を返します。
func newTestHasher() *Hasher {
	h, err := NewHasher(bcrypt.MinCost, 2, nil)
	if err != nil {
		panic(err)
	}
	return h
}

// countingHasher は呼び出し回数を数える PasswordHasher です。
type countingHasher struct {
	inner     PasswordHasher
	hashes    atomic.Int32
	verifies  atomic.Int32
	verifyErr error
}

func (h *countingHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	h.hashes.Add(1)
	return h.inner.Hash(ctx, plaintext)
}

func (h *countingHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	h.verifies.Add(1)
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return h.inner.Verify(ctx, plaintext, hash)
}

// failingStore は常にエラーを返す users.Store です。
type failingStore struct {
	err error
}

func (s failingStore) Create(ctx context.Context, user *users.User) (*users.User, error) {
	return nil, s.err
}

func (s failingStore) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return nil, s.err
}

func (s failingStore) FindByID(ctx context.Context, id string) (*users.User, error) {
	return nil, s.err
}
