package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens path and brings its schema up to date.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// LoadToken returns "" when no session is stored.
func (r *SQLiteRepository) LoadToken(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM session WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (r *SQLiteRepository) SaveToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return r.ClearToken(ctx)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, token, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at`,
		token, mustTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearToken(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage: preference key is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) DeletePreference(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListPreferences(ctx context.Context) ([]Preference, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM preferences ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Preference, 0)
	for rows.Next() {
		item, scanErr := scanPreference(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) RecordReminder(ctx context.Context, in FiredReminder) error {
	if in.TaskID == "" {
		return errors.New("storage: reminder task id is required")
	}
	firedAt := in.FiredAt
	if firedAt.IsZero() {
		firedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fired_reminders (task_id, due_at, fired_at) VALUES (?, ?, ?)
		ON CONFLICT(task_id, due_at) DO UPDATE SET fired_at = excluded.fired_at`,
		in.TaskID, mustTime(in.DueAt), mustTime(firedAt),
	)
	return err
}

func (r *SQLiteRepository) ReminderFired(ctx context.Context, taskID string, dueAt time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM fired_reminders WHERE task_id = ? AND due_at = ?`,
		taskID, mustTime(dueAt),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PruneReminders forgets reminders delivered before firedBefore.
func (r *SQLiteRepository) PruneReminders(ctx context.Context, firedBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fired_reminders WHERE fired_at < ?`, mustTime(firedBefore))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreference(s scanner) (Preference, error) {
	var out Preference
	var updated string
	if err := s.Scan(&out.Key, &out.Value, &updated); err != nil {
		return Preference{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Preference{}, err
	}
	out.UpdatedAt = updatedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
