package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lastRunKey = "jobs:sessions-prune:last"
)

// RunStore は直近の掃除ジョブの記録を Redis に保存します。
type RunStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRunStore は RunStore を作成します。
func NewRunStore(rdb redis.Cmdable, ttl time.Duration) *RunStore {
	return &RunStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// Last は直近の記録を返します。まだ一度も実行していない場合は nil です。
func (s *RunStore) Last(ctx context.Context) (*Run, error) {
	data, err := s.rdb.Get(ctx, lastRunKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Save は記録を上書き保存します。
func (s *RunStore) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run is nil")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, lastRunKey, payload, s.ttl).Err()
}
