package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/resumeforge/internal/model"
)

// Ensure SQLiteStore implements model.RecordStore.
var _ model.RecordStore = (*SQLiteStore)(nil)

// DefaultTimeout bounds each storage call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		user_id    TEXT,
		session_id TEXT,
		fields     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_user_id ON records(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_session_id ON records(session_id)`,
}

// Options configures a SQLiteStore.
type Options struct {
	// RequiredFields must be present in every saved record.
	RequiredFields []string
	// Timeout bounds each storage call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// SQLiteStore persists Records in a single SQLite table keyed by a generated id.
// user_id and session_id are mirrored into indexed columns for List.
type SQLiteStore struct {
	db       *sql.DB
	required []string
	timeout  time.Duration
	locks    *idLocks
	now      func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creating parent
// directories as needed, and ensures the records table exists.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && !strings.HasPrefix(dbPath, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath, opts.Timeout))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s, err := newStore(db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// dsn appends a busy_timeout pragma so writers in other processes are waited
// on for up to timeout instead of failing with SQLITE_BUSY.
func dsn(dbPath string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dbPath, sep, timeout.Milliseconds())
}

// newStore wraps an already-open handle. SQLite allows one writer, so the pool
// is pinned to a single connection and callers queue on it under their timeout.
func newStore(db *sql.DB, opts Options) (*SQLiteStore, error) {
	db.SetMaxOpenConns(1)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &SQLiteStore{
		db:       db,
		required: append([]string(nil), opts.RequiredFields...),
		timeout:  timeout,
		locks:    newIDLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating records schema: %w", err)
		}
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save validates fields, assigns a new id, stamps created_at and updated_at,
// and stores the record.
func (s *SQLiteStore) Save(ctx context.Context, fields model.Fields) (string, error) {
	const op = "save"
	if len(fields) == 0 {
		return "", &model.ValidationError{Op: op, Reason: "no fields given"}
	}
	for _, name := range s.required {
		if _, ok := fields[name]; !ok {
			return "", &model.ValidationError{Op: op, Field: name, Reason: "required field missing"}
		}
	}
	if err := validateFields(op, fields); err != nil {
		return "", err
	}
	normalized, err := normalize(fields)
	if err != nil {
		return "", &model.ValidationError{Op: op, Reason: err.Error()}
	}
	blob, err := json.Marshal(normalized)
	if err != nil {
		return "", &model.ValidationError{Op: op, Reason: err.Error()}
	}

	id := uuid.NewString()
	unlock := s.locks.lock(id)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := formatTime(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, user_id, session_id, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, indexValue(normalized, model.FieldUserID), indexValue(normalized, model.FieldSessionID), string(blob), now, now,
	)
	if err != nil {
		return "", storageErr(ctx, op, id, err)
	}
	return id, nil
}

// Retrieve returns the record stored under id.
func (s *SQLiteStore) Retrieve(ctx context.Context, id string) (model.Record, error) {
	const op = "retrieve"
	unlock := s.locks.lock(id)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT fields, created_at, updated_at FROM records WHERE id = ?`, id)
	rec, err := scanRecord(id, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, &model.NotFoundError{Op: op, ID: id}
	}
	if err != nil {
		return model.Record{}, storageErr(ctx, op, id, err)
	}
	return rec, nil
}

// List returns every record whose fields equal each filter value, in insertion
// order. An empty filter returns all records.
func (s *SQLiteStore) List(ctx context.Context, filter model.Fields) ([]model.Record, error) {
	const op = "list"
	want, err := normalize(filter)
	if err != nil {
		return nil, &model.ValidationError{Op: op, Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Indexed columns narrow the scan; everything else is matched after decode.
	query := `SELECT id, fields, created_at, updated_at FROM records`
	var where []string
	var args []any
	for _, col := range []string{model.FieldUserID, model.FieldSessionID} {
		if v, ok := want[col].(string); ok {
			where = append(where, col+" = ?")
			args = append(args, v)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(ctx, op, "", err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var id string
		rec, err := scanRecord("", func(dest ...any) error {
			return rows.Scan(append([]any{&id}, dest...)...)
		})
		if err != nil {
			return nil, storageErr(ctx, op, id, err)
		}
		rec.ID = id
		if matches(rec.Fields, want) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(ctx, op, "", err)
	}
	return out, nil
}

// Update merges partial into the stored record, replacing whole values, and
// refreshes updated_at. Fields not named in partial keep their prior values.
func (s *SQLiteStore) Update(ctx context.Context, id string, partial model.Fields) error {
	const op = "update"
	if err := validateFields(op, partial); err != nil {
		return err
	}
	normalized, err := normalize(partial)
	if err != nil {
		return &model.ValidationError{Op: op, Reason: err.Error()}
	}

	unlock := s.locks.lock(id)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	defer tx.Rollback()

	var blob string
	err = tx.QueryRowContext(ctx, `SELECT fields FROM records WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Op: op, ID: id}
	}
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	current, err := decodeFields(blob)
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	for k, v := range normalized {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return storageErr(ctx, op, id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE records SET user_id = ?, session_id = ?, fields = ?, updated_at = ? WHERE id = ?`,
		indexValue(current, model.FieldUserID), indexValue(current, model.FieldSessionID), string(merged), formatTime(s.now()), id,
	)
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr(ctx, op, id, err)
	}
	return nil
}

// Delete removes the record stored under id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	const op = "delete"
	unlock := s.locks.lock(id)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(ctx, op, id, err)
	}
	if n == 0 {
		return &model.NotFoundError{Op: op, ID: id}
	}
	return nil
}

func scanRecord(id string, scan func(dest ...any) error) (model.Record, error) {
	var blob, created, updated string
	if err := scan(&blob, &created, &updated); err != nil {
		return model.Record{}, err
	}
	fields, err := decodeFields(blob)
	if err != nil {
		return model.Record{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return model.Record{}, fmt.Errorf("corrupt created_at %q: %w", created, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return model.Record{}, fmt.Errorf("corrupt updated_at %q: %w", updated, err)
	}
	return model.Record{ID: id, Fields: fields, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

func decodeFields(blob string) (model.Fields, error) {
	var f model.Fields
	if err := json.Unmarshal([]byte(blob), &f); err != nil {
		return nil, fmt.Errorf("corrupt fields: %w", err)
	}
	if f == nil {
		f = model.Fields{}
	}
	return f, nil
}

// validateFields rejects store-owned keys, empty names, and non-string index columns.
func validateFields(op string, fields model.Fields) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "":
			return &model.ValidationError{Op: op, Field: k, Reason: "empty field name"}
		case model.FieldID, model.FieldCreatedAt, model.FieldUpdatedAt:
			return &model.ValidationError{Op: op, Field: k, Reason: "set by the store"}
		case model.FieldUserID, model.FieldSessionID:
			if _, ok := fields[k].(string); !ok {
				return &model.ValidationError{Op: op, Field: k, Reason: "must be a string"}
			}
		}
	}
	return nil
}

// normalize round-trips values through JSON so stored and compared values share
// one representation (numbers become float64).
func normalize(fields model.Fields) (model.Fields, error) {
	if len(fields) == 0 {
		return model.Fields{}, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	var out model.Fields
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	return out, nil
}

func matches(fields, want model.Fields) bool {
	for k, v := range want {
		got, ok := fields[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

func indexValue(fields model.Fields, name string) any {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// storageErr wraps err as a StorageError, marking it as a timeout when the
// operation's deadline has passed.
func storageErr(ctx context.Context, op, id string, err error) error {
	return &model.StorageError{
		Op:      op,
		ID:      id,
		Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Err:     err,
	}
}
