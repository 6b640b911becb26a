package storage

import "time"

type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// FiredReminder marks a due-date reminder as delivered so it is not repeated
// after a restart. A changed due date is a new reminder.
type FiredReminder struct {
	TaskID  string
	DueAt   time.Time
	FiredAt time.Time
}

// Preference keys written by the UI.
const (
	PrefView         = "ui.view"
	PrefCalendarMode = "ui.calendar_mode"
	PrefDateFilter   = "ui.date_filter"
	PrefStatusFilter = "ui.status_filter"
	PrefUserEmail    = "session.email"
)
