package update

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/views"
)

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.scheduler != nil {
		cmds = append(cmds, waitForReminderCmd(m.scheduler.C()))
	}
	if m.CurrentView != ViewLogin {
		cmds = append(cmds, m.loadUserCmd(), m.startLoad())
	}
	return tea.Batch(cmds...)
}

// Update handles msg and then hands queued notifications to the desktop
// notifier and refreshes the widgets.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.flushNotifications()
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		m.spinnerActive = m.tasks.Phase() == store.PhaseLoading
		if m.spinnerActive {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) && (typed.View == ViewLogin || m.client.Session().Authenticated()) {
			m.enterView(typed.View)
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify(store.LevelError, "Error", typed.Err.Error())
		}
		return m, nil
	case SessionExpiredMsg:
		if m.CurrentView != ViewLogin {
			m.signOut("Your session has expired. Please sign in again.")
		}
		return m, nil
	case NetworkStatusMsg:
		m.applyNetwork(typed.Online)
		return m, nil
	case tasksLoadedMsg:
		return m.onTasksLoaded(typed)
	case mutationSettledMsg:
		return m.onMutationSettled(typed)
	case authDoneMsg:
		return m.onAuthDone(typed)
	case userLoadedMsg:
		m.applyNetwork(m.client.Online())
		if typed.err != nil {
			if errors.Is(typed.err, apiclient.ErrUnauthorized) {
				m.signOut("Your session has expired. Please sign in again.")
				return m, nil
			}
			log.Warn().Err(typed.err).Msg("load profile")
			return m, nil
		}
		m.User = typed.user
		m.savePreference(preferenceEmail, typed.user.Email)
		return m, nil
	case profileSavedMsg:
		return m.onProfileSaved(typed)
	case passwordChangedMsg:
		return m.onPasswordChanged(typed)
	case exportDoneMsg:
		if typed.err != nil {
			m.Status = StatusBar{Text: typed.err.Error(), IsError: true}
			m.notify(store.LevelError, "Failed to export tasks", typed.err.Error())
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("exported %d task(s) to %s", typed.count, typed.path)}
		m.notify(store.LevelInfo, "Export complete", typed.path)
		return m, nil
	case ReminderDueMsg:
		m.onReminder(typed.Event)
		if m.scheduler != nil {
			return m, waitForReminderCmd(m.scheduler.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	if m.CurrentView == ViewLogin {
		return m.handleLoginKey(msg)
	}
	if m.PasswordForm.Active {
		return m.handlePasswordKey(msg)
	}
	if m.Detail.Editing {
		return m.handleEditorKey(msg)
	}

	switch keyStr {
	case "/":
		m.openPalette("")
		return m, nil
	case m.Keys.Dashboard:
		m.enterView(ViewDashboard)
		return m, nil
	case m.Keys.Tasks:
		m.enterView(ViewTasks)
		return m, nil
	case m.Keys.Calendar:
		m.enterView(ViewCalendar)
		return m, nil
	case m.Keys.Settings:
		m.enterView(ViewSettings)
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
		return m, nil
	case "r":
		m.Status = StatusBar{Text: "reloading tasks"}
		cmd := m.startLoad()
		return m, cmd
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewTasks:
		return m.handleTasksKey(msg)
	case ViewCalendar:
		return m.handleCalendarKey(msg), nil
	case ViewSettings:
		if keyStr == "p" {
			m.openPasswordForm()
			return m, nil
		}
	}
	return m, nil
}

// enterView switches screens and tells the session which route is showing.
func (m *Model) enterView(v View) {
	m.CurrentView = v
	m.client.Session().SetRoute(viewRoutes[v])
	if v == ViewLogin {
		m.focusLoginField(fieldEmail)
		return
	}
	m.Detail = DetailState{}
	if v != ViewSettings {
		m.closePasswordForm()
	}
	m.savePreference(preferenceView, string(v))
}

func (m *Model) signOut(reason string) {
	if err := m.client.Session().Invalidate(context.Background()); err != nil {
		log.Warn().Err(err).Msg("clear session")
	}
	if m.scheduler != nil {
		if err := m.scheduler.Reset(nil); err != nil {
			log.Warn().Err(err).Msg("clear reminders")
		}
	}
	m.User = apiclient.User{}
	m.SelectedTaskID = ""
	m.Palette = CommandPaletteState{}
	m.closePasswordForm()
	m.Login = LoginState{Error: reason}
	m.clearLoginInputs()
	m.enterView(ViewLogin)
	m.notify(store.LevelWarn, "Signed out", reason)
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewLogin:
		leftPane = m.renderLoginView()
	case ViewDashboard:
		leftPane = m.renderDashboardView()
	case ViewTasks:
		leftPane = m.renderTaskListView()
		rightPane = m.renderTaskDetailView()
	case ViewCalendar:
		leftPane = m.renderCalendarView()
	case ViewSettings:
		leftPane = m.renderSettingsView()
	}
	if extra := strings.TrimSpace(m.renderCommandPalette() + "\n" + m.renderHelpIfVisible()); extra != "" {
		rightPane = strings.TrimSpace(rightPane + "\n\n" + extra)
	}

	header := fmt.Sprintf("listo | view: %s", m.CurrentView)
	if m.User.FullName != "" {
		header += " | " + m.User.FullName
	}
	if m.SelectedTaskID != "" && m.CurrentView == ViewTasks {
		header += " | selected: #" + m.SelectedTaskID
	}
	banner := ""
	if !m.Online {
		banner = offlineMessage
	}

	return views.RenderApp(views.AppData{
		Header:       header,
		Banner:       banner,
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: %s dashboard | %s tasks | %s calendar | %s settings | / cmd | %s help | %s quit",
			m.Keys.Dashboard, m.Keys.Tasks, m.Keys.Calendar, m.Keys.Settings, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	_, ok := viewRoutes[v]
	return ok
}
