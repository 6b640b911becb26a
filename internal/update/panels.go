package update

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/views"
)

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Title", Width: 22},
		{Title: "Status", Width: 11},
		{Title: "Prio", Width: 6},
		{Title: "Due", Width: 10},
	}
	m.taskTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(12))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.loginInputs = newLoginInputs()
	m.passwordInputs = newPasswordInputs()

	m.notesArea = textarea.New()
	m.notesArea.SetWidth(54)
	m.notesArea.SetHeight(8)
	m.notesArea.ShowLineNumbers = false
	m.notesArea.Placeholder = "Task notes (markdown)"

	m.completionBar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	m.subtaskBar = progress.New(progress.WithSolidFill("10"), progress.WithWidth(20))

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(54, 10)
}

// syncBubbleData copies store state into the widgets after every update.
func (m *Model) syncBubbleData() {
	visible := m.visibleTasks()
	clock := m.clock()
	rows := make([]table.Row, 0, len(visible))
	cursor := 0
	for i, t := range visible {
		due := ""
		if t.HasDueDate() {
			due = t.DueDate.In(m.client.Location()).Format("Jan 02")
		}
		status := t.Status.Label()
		if projection.IsOverdue(t, clock) {
			status = "! " + status
		}
		rows = append(rows, table.Row{t.ID, t.Title, status, string(t.Priority), due})
		if t.ID == m.SelectedTaskID {
			cursor = i
		}
	}
	m.taskTable.SetRows(rows)
	if len(rows) > 0 {
		m.taskTable.SetCursor(cursor)
	}

	if task, ok := m.selectedTask(); ok {
		m.detailViewport.SetContent(views.RenderMarkdown(task.Description))
	} else {
		m.detailViewport.SetContent("")
	}
}

func (m *Model) notify(level store.Level, title, body string) {
	m.notes.Notify(store.Notification{Level: level, Title: title, Body: body, At: m.now().UTC()})
}

// flushNotifications forwards notifications queued since the last update,
// including those raised by the stores, to the desktop.
func (m *Model) flushNotifications() {
	pending := m.notes.Drain()
	if !m.cfg.DesktopNotifications || m.desktop == nil {
		return
	}
	for _, n := range pending {
		if err := m.desktop.Send(n); err != nil {
			log.Debug().Err(err).Str("title", n.Title).Msg("desktop notification")
		}
	}
}

func (m Model) renderNotificationsView() string {
	n, ok := m.notes.Last()
	if !ok {
		return ""
	}
	return views.RenderNotification(string(n.Level), n.Title, n.Body)
}
