package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/session-auth/internal/dbx"
)

// PostgresBackend は sessions テーブルに保存する Backend です。
type PostgresBackend struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresBackend は PostgresBackend を作成します。
func NewPostgresBackend(db dbx.DBTX) *PostgresBackend {
	return &PostgresBackend{
		db:  db,
		now: time.Now,
	}
}

func (b *PostgresBackend) Load(ctx context.Context, id string) (*Record, error) {
	query :=
		`SELECT payload, expiry FROM sessions
		 WHERE session_id = $1 AND expiry > $2
		 `

	var (
		payload []byte
		expiry  time.Time
	)
	err := b.db.QueryRowContext(ctx, query, id, b.now().UTC()).Scan(&payload, &expiry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	record.ID = id
	record.ExpiresAt = expiry
	return &record, nil
}

func (b *PostgresBackend) Save(ctx context.Context, record *Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with id is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO sessions (session_id, payload, expiry)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE
		 SET payload = EXCLUDED.payload, expiry = EXCLUDED.expiry
		 `

	if _, err := b.db.ExecContext(ctx, query, record.ID, payload, record.ExpiresAt.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// PruneExpired は期限切れの行を削除し、削除件数を返します。
func (b *PostgresBackend) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE expiry <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
