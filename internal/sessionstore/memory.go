package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend はプロセス内の map に保存する Backend です。
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryBackend は空の MemoryBackend を作成します。
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (b *MemoryBackend) Load(ctx context.Context, id string) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[id]
	if !ok || rec.Expired(b.now()) {
		return nil, ErrNotFound
	}
	return cloneRecord(&rec), nil
}

func (b *MemoryBackend) Save(ctx context.Context, record *Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with id is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[record.ID] = *cloneRecord(record)
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, id)
	return nil
}

// PruneExpired は期限切れのセッションを削除し、削除件数を返します。
func (b *MemoryBackend) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for id, rec := range b.records {
		if rec.Expired(now) {
			delete(b.records, id)
			n++
		}
	}
	return n, nil
}

// Len は保存中のセッション数を返します。
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

func cloneRecord(r *Record) *Record {
	out := *r
	if r.Messages != nil {
		out.Messages = append([]string(nil), r.Messages...)
	}
	return &out
}
