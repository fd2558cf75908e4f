package users

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore はプロセス内に保持する Store 実装です（ローカル開発・テスト用）。
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]string
}

// NewMemoryStore は空の MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*User),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}
	if user.ID == "" {
		return nil, fmt.Errorf("user.ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return nil, ErrDuplicateUsername
	}
	if _, ok := s.byID[user.ID]; ok {
		return nil, fmt.Errorf("duplicate id: %s", user.ID)
	}

	stored := *user
	stored.CreatedAt = time.Now().UTC()
	s.byID[stored.ID] = &stored
	s.byUsername[stored.Username] = stored.ID

	out := stored
	return &out, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &User{ID: user.ID, Username: user.Username}, nil
}

// Len は保存済みユーザー数を返します。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
