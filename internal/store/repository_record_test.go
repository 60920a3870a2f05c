package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fetchRecordsSQL = `SELECT id, user_id, payload, created_at, updated_at, deleted FROM records WHERE user_id = $1 AND tbl = $2 ORDER BY updated_at DESC`
	fetchSinceSQL   = `SELECT id, user_id, payload, created_at, updated_at, deleted FROM records WHERE user_id = $1 AND tbl = $2 AND updated_at > $3 ORDER BY updated_at DESC`
	upsertRecordSQL = `INSERT INTO records (user_id,tbl,id,payload,created_at,updated_at,deleted) VALUES ($1,$2,$3,$4,$5,now(),$6) ON CONFLICT (user_id, tbl, id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now(), deleted = EXCLUDED.deleted RETURNING id, user_id, payload, created_at, updated_at, deleted`
	deleteRecordSQL = `UPDATE records SET deleted = $1, updated_at = now() WHERE user_id = $2 AND tbl = $3 AND id = $4`
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:                 db,
		errorClassificator: NewPostgresErrorClassifier(),
		logger:             logger.Nop(),
	}
}

func newTestRecordRepo(t *testing.T, db *sql.DB) RecordRepository {
	t.Helper()
	return NewRecordRepository(newDBFromSQL(db), logger.Nop())
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

var recordColumns = []string{"id", "user_id", "payload", "created_at", "updated_at", "deleted"}

type recordRow struct {
	id        string
	userID    int64
	payload   []byte
	createdAt time.Time
	updatedAt time.Time
	deleted   bool
}

func (r recordRow) toArgs() []driver.Value {
	return []driver.Value{r.id, r.userID, r.payload, r.createdAt, r.updatedAt, r.deleted}
}

func TestRecordRepositoryFetchSince(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	earlier := now.Add(-time.Hour)

	type mockSetup struct {
		query    string
		args     []driver.Value
		rows     []recordRow
		queryErr error
	}

	type want struct {
		errIs error
		ids   []string
	}

	tests := []struct {
		name   string
		userID int64
		table  string
		since  *time.Time
		mock   mockSetup
		want   want
	}{
		{
			name:   "success: full fetch without bound",
			userID: 42,
			table:  models.TableQuests,
			mock: mockSetup{
				query: fetchRecordsSQL,
				args:  []driver.Value{int64(42), models.TableQuests},
				rows: []recordRow{
					{id: "q-2", userID: 42, payload: []byte(`{"title":"later"}`), createdAt: earlier, updatedAt: now},
					{id: "q-1", userID: 42, payload: []byte(`{"title":"earlier"}`), createdAt: earlier, updatedAt: earlier},
				},
			},
			want: want{ids: []string{"q-2", "q-1"}},
		},
		{
			name:   "success: incremental fetch with bound",
			userID: 42,
			table:  models.TableCheckins,
			since:  &earlier,
			mock: mockSetup{
				query: fetchSinceSQL,
				args:  []driver.Value{int64(42), models.TableCheckins, earlier},
				rows: []recordRow{
					{id: "c-1", userID: 42, payload: []byte(`{}`), createdAt: now, updatedAt: now},
				},
			},
			want: want{ids: []string{"c-1"}},
		},
		{
			name:   "success: no changes since bound",
			userID: 7,
			table:  models.TableCharacters,
			since:  &now,
			mock: mockSetup{
				query: fetchSinceSQL,
				args:  []driver.Value{int64(7), models.TableCharacters, now},
			},
			want: want{ids: []string{}},
		},
		{
			name:   "error: query execution fails",
			userID: 42,
			table:  models.TableQuests,
			mock: mockSetup{
				query:    fetchRecordsSQL,
				args:     []driver.Value{int64(42), models.TableQuests},
				queryErr: errors.New("connection refused"),
			},
			want: want{errIs: ErrExecutingQuery},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newTestDB(t)
			repo := newTestRecordRepo(t, db)

			exp := mock.ExpectQuery(regexp.QuoteMeta(tt.mock.query)).WithArgs(tt.mock.args...)
			if tt.mock.queryErr != nil {
				exp.WillReturnError(tt.mock.queryErr)
			} else {
				rows := sqlmock.NewRows(recordColumns)
				for _, r := range tt.mock.rows {
					rows.AddRow(r.toArgs()...)
				}
				exp.WillReturnRows(rows)
			}

			got, err := repo.FetchSince(testContext(), tt.userID, tt.table, tt.since)

			if tt.want.errIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.want.errIs)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				ids := make([]string, 0, len(got))
				for _, rec := range got {
					ids = append(ids, rec.ID)
				}
				assert.Equal(t, tt.want.ids, ids)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepositoryUpsert(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	serverNow := now.Add(time.Second)
	payload := json.RawMessage(`{"title":"slay the inbox","xp":25}`)

	t.Run("success: server stamps updated_at", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRecordRepo(t, db)

		rec := models.Record{ID: "q-1", Payload: payload, CreatedAt: now, UpdatedAt: now}
		mock.ExpectQuery(regexp.QuoteMeta(upsertRecordSQL)).
			WithArgs(int64(42), models.TableQuests, "q-1", []byte(payload), now, false).
			WillReturnRows(sqlmock.NewRows(recordColumns).
				AddRow("q-1", int64(42), []byte(payload), now, serverNow, false))

		got, err := repo.Upsert(testContext(), 42, models.TableQuests, rec)
		require.NoError(t, err)
		assert.Equal(t, "q-1", got.ID)
		assert.Equal(t, int64(42), got.UserID)
		assert.Equal(t, payload, got.Payload)
		assert.True(t, got.UpdatedAt.After(rec.UpdatedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success: tombstone upsert keeps deleted flag", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRecordRepo(t, db)

		rec := models.Record{ID: "q-9", Payload: payload, CreatedAt: now, UpdatedAt: now, Deleted: true}
		mock.ExpectQuery(regexp.QuoteMeta(upsertRecordSQL)).
			WithArgs(int64(42), models.TableQuests, "q-9", []byte(payload), now, true).
			WillReturnRows(sqlmock.NewRows(recordColumns).
				AddRow("q-9", int64(42), []byte(payload), now, serverNow, true))

		got, err := repo.Upsert(testContext(), 42, models.TableQuests, rec)
		require.NoError(t, err)
		assert.True(t, got.Deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: database failure", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRecordRepo(t, db)

		rec := models.Record{ID: "q-1", Payload: payload, CreatedAt: now, UpdatedAt: now}
		mock.ExpectQuery(regexp.QuoteMeta(upsertRecordSQL)).
			WithArgs(int64(42), models.TableQuests, "q-1", []byte(payload), now, false).
			WillReturnError(errors.New("deadlock detected"))

		_, err := repo.Upsert(testContext(), 42, models.TableQuests, rec)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExecutingQuery)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordRepositoryDelete(t *testing.T) {
	t.Run("success: existing row soft-deleted", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRecordRepo(t, db)

		mock.ExpectExec(regexp.QuoteMeta(deleteRecordSQL)).
			WithArgs(true, int64(42), models.TableStudySessions, "s-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Delete(testContext(), 42, models.TableStudySessions, "s-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success: absent row is still a success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRecordRepo(t, db)

		mock.ExpectExec(regexp.QuoteMeta(deleteRecordSQL)).
			WithArgs(true, int64(42), models.TableStudySessions, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Delete(testContext(), 42, models.TableStudySessions, "missing")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: database failure", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRecordRepo(t, db)

		mock.ExpectExec(regexp.QuoteMeta(deleteRecordSQL)).
			WithArgs(true, int64(42), models.TableStudySessions, "s-1").
			WillReturnError(errors.New("connection reset"))

		ok, err := repo.Delete(testContext(), 42, models.TableStudySessions, "s-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExecutingQuery)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
