package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	selectSessionQuery = `(?s)^SELECT\s+payload,\s*expiry\s+FROM\s+sessions\s+WHERE\s+session_id\s*=\s*\$1\s+AND\s+expiry\s*>\s*\$2\s*$`
	upsertSessionQuery = `(?s)^INSERT\s+INTO\s+sessions\s*\(session_id,\s*payload,\s*expiry\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(session_id\)\s*DO\s+UPDATE\s+SET\s+payload\s*=\s*EXCLUDED\.payload,\s*expiry\s*=\s*EXCLUDED\.expiry\s*$`
	deleteSessionQuery = `^DELETE\s+FROM\s+sessions\s+WHERE\s+session_id\s*=\s*\$1$`
	pruneSessionsQuery = `^DELETE\s+FROM\s+sessions\s+WHERE\s+expiry\s*<=\s*\$1$`
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPostgresBackendWithMock(t *testing.T) (*PostgresBackend, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	b := NewPostgresBackend(db)
	b.now = func() time.Time { return fixedNow }
	return b, mock, db
}

func TestPostgresLoad_Found(t *testing.T) {
	b, mock, db := newPostgresBackendWithMock(t)
	defer db.Close()

	expiry := fixedNow.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"payload", "expiry"}).
		AddRow([]byte(`{"principalId":"user-1","messages":["hi"]}`), expiry)
	mock.ExpectQuery(selectSessionQuery).WithArgs("sid-1", fixedNow).WillReturnRows(rows)

	got, err := b.Load(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.ID != "sid-1" || got.PrincipalID != "user-1" || len(got.Messages) != 1 || !got.ExpiresAt.Equal(expiry) {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestPostgresLoad_NotFound(t *testing.T) {
	b, mock, db := newPostgresBackendWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectSessionQuery).WithArgs("sid-x", fixedNow).WillReturnError(sql.ErrNoRows)

	if _, err := b.Load(context.Background(), "sid-x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPostgresSave_Upserts(t *testing.T) {
	b, mock, db := newPostgresBackendWithMock(t)
	defer db.Close()

	expiry := fixedNow.Add(24 * time.Hour)
	mock.ExpectExec(upsertSessionQuery).
		WithArgs("sid-1", sqlmock.AnyArg(), expiry).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := b.Save(context.Background(), &Record{ID: "sid-1", PrincipalID: "user-1", ExpiresAt: expiry})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSave_DBError(t *testing.T) {
	b, mock, db := newPostgresBackendWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertSessionQuery).WillReturnError(errors.New("db down"))

	err := b.Save(context.Background(), &Record{ID: "sid-1", ExpiresAt: fixedNow.Add(time.Hour)})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresDeleteAndPrune(t *testing.T) {
	b, mock, db := newPostgresBackendWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteSessionQuery).WithArgs("sid-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(pruneSessionsQuery).WithArgs(fixedNow).WillReturnResult(sqlmock.NewResult(0, 3))

	if err := b.Delete(context.Background(), "sid-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	n, err := b.PruneExpired(context.Background(), fixedNow)
	if err != nil {
		t.Fatalf("PruneExpired error: %v", err)
	}
	if n != 3 {
		t.Fatalf("pruned %d, want 3", n)
	}
}
