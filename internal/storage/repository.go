package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// Repository is the local state kept between runs. Tasks themselves live on
// the server; only the session, UI preferences and reminder bookkeeping are
// stored here.
type Repository interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error

	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
	DeletePreference(ctx context.Context, key string) error
	ListPreferences(ctx context.Context) ([]Preference, error)

	RecordReminder(ctx context.Context, in FiredReminder) error
	ReminderFired(ctx context.Context, taskID string, dueAt time.Time) (bool, error)
	PruneReminders(ctx context.Context, firedBefore time.Time) (int64, error)
}
