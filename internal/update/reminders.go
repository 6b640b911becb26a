package update

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/scheduler"
	"github.com/sandeepkv93/listo/internal/storage"
	"github.com/sandeepkv93/listo/internal/store"
)

const (
	reminderLogLimit = 20
	// Fired reminders older than this are forgotten at startup.
	reminderRetention = 30 * 24 * time.Hour
)

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

// resetReminders replans every reminder from the current task list, leaving
// out the ones already delivered.
func (m *Model) resetReminders() {
	if m.scheduler == nil {
		return
	}
	events := scheduler.Plan(m.tasks.Tasks(), m.now(), m.cfg.ReminderLead, m.reminderFired)
	if err := m.scheduler.Reset(events); err != nil {
		log.Warn().Err(err).Msg("reset reminders")
	}
}

func (m Model) reminderFired(taskID string, dueAt time.Time) bool {
	if m.repo == nil {
		return false
	}
	fired, err := m.repo.ReminderFired(context.Background(), taskID, dueAt)
	if err != nil {
		log.Warn().Err(err).Str("task", taskID).Msg("check reminder")
		return false
	}
	return fired
}

// onReminder tells the user about a task coming due. A reminder for a task
// that was finished, deleted or moved since it was planned is dropped.
func (m *Model) onReminder(ev scheduler.ReminderEvent) {
	task, ok := m.tasks.Task(ev.TaskID)
	if !ok || task.Status == model.StatusDone || !task.HasDueDate() || !task.DueDate.Equal(ev.DueAt) {
		return
	}
	m.ReminderLog = append(m.ReminderLog, ev)
	if len(m.ReminderLog) > reminderLogLimit {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-reminderLogLimit:]
	}
	due := ev.DueAt.In(m.client.Location()).Format("15:04")
	m.notify(store.LevelWarn, "Reminder", fmt.Sprintf("%s is due at %s", task.Title, due))
	m.Status = StatusBar{Text: fmt.Sprintf("reminder: %s due %s", task.Title, due)}

	if m.repo == nil {
		return
	}
	err := m.repo.RecordReminder(context.Background(), storage.FiredReminder{
		TaskID:  ev.TaskID,
		DueAt:   ev.DueAt,
		FiredAt: m.now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("task", ev.TaskID).Msg("record reminder")
	}
}

func (m Model) pruneReminders() {
	if m.repo == nil {
		return
	}
	n, err := m.repo.PruneReminders(context.Background(), m.now().Add(-reminderRetention))
	if err != nil {
		log.Warn().Err(err).Msg("prune reminders")
		return
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("pruned fired reminders")
	}
}
