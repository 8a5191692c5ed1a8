package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/resumeforge/internal/model"
)

func newMockStore(t *testing.T, timeout time.Duration) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_records_user_id").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_records_session_id").WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := newStore(db, Options{Timeout: timeout})
	require.NoError(t, err)
	return s, mock
}

func TestMock_SaveInsertFailureIsStorageError(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	mock.ExpectExec("INSERT INTO records").
		WithArgs(sqlmock.AnyArg(), "u1", "s1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))

	_, err := s.Save(context.Background(), model.Fields{"user_id": "u1", "session_id": "s1"})
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
	assert.NotEmpty(t, se.ID)
	assert.False(t, se.Timeout)
	assert.False(t, model.IsNotFound(err))
	assert.False(t, model.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_RetrieveEngineFailure(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	mock.ExpectQuery(`SELECT fields, created_at, updated_at FROM records WHERE id = \?`).
		WithArgs("rec-1").
		WillReturnError(errors.New("disk I/O error"))

	_, err := s.Retrieve(context.Background(), "rec-1")
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "rec-1", se.ID)
	assert.Contains(t, err.Error(), "retrieve rec-1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_RetrieveCorruptFields(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	rows := sqlmock.NewRows([]string{"fields", "created_at", "updated_at"}).
		AddRow("{not json", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z")
	mock.ExpectQuery("SELECT fields, created_at, updated_at FROM records").
		WithArgs("rec-2").
		WillReturnRows(rows)

	_, err := s.Retrieve(context.Background(), "rec-2")
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "corrupt fields")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_RetrieveCorruptTimestamp(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	rows := sqlmock.NewRows([]string{"fields", "created_at", "updated_at"}).
		AddRow(`{"k":"v"}`, "yesterday", "2026-01-01T00:00:00Z")
	mock.ExpectQuery("SELECT fields, created_at, updated_at FROM records").
		WithArgs("rec-3").
		WillReturnRows(rows)

	_, err := s.Retrieve(context.Background(), "rec-3")
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "corrupt created_at")
}

func TestMock_SlowQueryTimesOut(t *testing.T) {
	s, mock := newMockStore(t, 20*time.Millisecond)

	rows := sqlmock.NewRows([]string{"fields", "created_at", "updated_at"}).
		AddRow(`{"k":"v"}`, "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z")
	mock.ExpectQuery("SELECT fields, created_at, updated_at FROM records").
		WithArgs("slow").
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(rows)

	start := time.Now()
	_, err := s.Retrieve(context.Background(), "slow")
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Timeout, "expected timeout flag, got %v", err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestMock_UpdateBeginFailure(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := s.Update(context.Background(), "rec-4", model.Fields{"k": "v"})
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "update", se.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_UpdateMissingRowRollsBack(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT fields FROM records WHERE id").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"fields"}))
	mock.ExpectRollback()

	err := s.Update(context.Background(), "gone", model.Fields{"k": "v"})
	assert.True(t, model.IsNotFound(err), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_DeleteEngineFailure(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	mock.ExpectExec("DELETE FROM records WHERE id").
		WithArgs("rec-5").
		WillReturnError(errors.New("readonly database"))

	err := s.Delete(context.Background(), "rec-5")
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "delete", se.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_ListEngineFailure(t *testing.T) {
	s, mock := newMockStore(t, time.Second)

	mock.ExpectQuery("SELECT id, fields, created_at, updated_at FROM records WHERE user_id = \\? ORDER BY seq").
		WithArgs("u1").
		WillReturnError(errors.New("no such table: records"))

	_, err := s.List(context.Background(), model.Fields{"user_id": "u1"})
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list", se.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}
