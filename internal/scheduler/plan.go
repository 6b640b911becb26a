package scheduler

import (
	"sort"
	"time"

	"github.com/sandeepkv93/listo/internal/model"
)

// Plan builds one reminder per unfinished task due after now, lead before its
// due time. A reminder whose lead window has already opened fires at now.
// skip reports reminders that were delivered before.
func Plan(tasks []model.Task, now time.Time, lead time.Duration, skip func(taskID string, dueAt time.Time) bool) []ReminderEvent {
	out := make([]ReminderEvent, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == model.StatusDone || !t.HasDueDate() {
			continue
		}
		due := t.DueDate.UTC()
		if !due.After(now) {
			continue
		}
		if skip != nil && skip(t.ID, due) {
			continue
		}
		trigger := due.Add(-lead)
		if trigger.Before(now) {
			trigger = now
		}
		out = append(out, ReminderEvent{
			ID:        EventID(t.ID, due),
			TaskID:    t.ID,
			Title:     t.Title,
			DueAt:     due,
			TriggerAt: trigger,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out
}

// EventID identifies the reminder for one task at one due time.
func EventID(taskID string, dueAt time.Time) string {
	return taskID + "@" + dueAt.UTC().Format(time.RFC3339)
}
