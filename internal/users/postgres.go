package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/session-auth/internal/dbx"
)

const uniqueViolation = "23505"

// PostgresStore は users テーブルを使う Store 実装です。
type PostgresStore struct {
	db dbx.DBTX
}

// NewPostgresStore は PostgresStore を作成します。
func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}

	query :=
		`INSERT INTO users (id, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username
		 `

	created := &User{PasswordHash: user.PasswordHash}
	err := s.db.QueryRowContext(ctx, query, user.ID, user.Username, user.PasswordHash).
		Scan(&created.ID, &created.Username)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query :=
		`SELECT id, username, password_hash FROM users
		 WHERE username = $1
		 `

	user := &User{}
	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*User, error) {
	query :=
		`SELECT id, username FROM users
		 WHERE id = $1
		 `

	user := &User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
