package update

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/config"
	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/optimistic"
	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/scheduler"
	"github.com/sandeepkv93/listo/internal/storage"
	"github.com/sandeepkv93/listo/internal/store"
)

type View string

const (
	ViewLogin     View = "Login"
	ViewDashboard View = "Dashboard"
	ViewTasks     View = "Tasks"
	ViewCalendar  View = "Calendar"
	ViewSettings  View = "Settings"
)

// Routes reported to the session so a 401 on a public screen does not sign
// the user out again.
var viewRoutes = map[View]string{
	ViewLogin:     apiclient.RouteLogin,
	ViewDashboard: "/dashboard",
	ViewTasks:     "/tasks",
	ViewCalendar:  "/calendar",
	ViewSettings:  "/settings",
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Dashboard string
	Tasks     string
	Calendar  string
	Settings  string
	Help      string
	Quit      string
}

type CalendarState struct {
	Mode      projection.Granularity
	FocusDate time.Time
}

// Login field order; the name and confirmation fields only show in sign-up
// mode.
const (
	fieldFullName = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

type LoginState struct {
	SignUp  bool
	Focus   int
	Error   string
	Pending bool
}

// DetailState is the subtask pane of the tasks view.
type DetailState struct {
	Focused bool
	Cursor  int
	Editing bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Deps are the collaborators the model drives. Repo, Scheduler and Desktop
// may be nil.
type Deps struct {
	Config    config.RuntimeConfig
	Client    *apiclient.Client
	Tasks     *store.TaskStore
	Notes     *store.Log
	Scheduler *scheduler.Engine
	Repo      storage.Repository
	Desktop   DesktopNotifier
	Now       func() time.Time
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Criteria       projection.Criteria
	Calendar       CalendarState
	Login          LoginState
	Detail         DetailState
	PasswordForm   PasswordFormState
	User           apiclient.User
	Online         bool
	Palette        CommandPaletteState
	HelpVisible    bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	ReminderLog    []scheduler.ReminderEvent

	cfg       config.RuntimeConfig
	client    *apiclient.Client
	tasks     *store.TaskStore
	notes     *store.Log
	scheduler *scheduler.Engine
	repo      storage.Repository
	desktop   DesktopNotifier
	now       func() time.Time

	spinnerActive bool

	taskTable      table.Model
	commandInput   textinput.Model
	loginInputs    []textinput.Model
	passwordInputs []textinput.Model
	notesArea      textarea.Model
	completionBar  progress.Model
	subtaskBar     progress.Model
	loadSpinner    spinner.Model
	helpModel      help.Model
	detailViewport viewport.Model
}

type DesktopNotifier interface {
	Send(store.Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(store.Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n store.Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// SessionExpiredMsg is sent when the API rejected the stored token.
type SessionExpiredMsg struct{}

type NetworkStatusMsg struct {
	Online bool
}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

type tasksLoadedMsg struct {
	ticket store.LoadTicket
	tasks  []model.Task
	err    error
}

type mutationSettledMsg struct {
	pending *optimistic.Pending
	err     error
	success string
}

type authDoneMsg struct {
	err error
}

type userLoadedMsg struct {
	user apiclient.User
	err  error
}

type profileSavedMsg struct {
	user         apiclient.User
	emailChanged bool
	err          error
}

type passwordChangedMsg struct {
	err error
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

func NewModel(deps Deps) Model {
	m := Model{
		CurrentView: ViewLogin,
		Calendar:    CalendarState{Mode: projection.GranularityMonth},
		Online:      true,
		Keys: GlobalKeyMap{
			Dashboard: "1",
			Tasks:     "2",
			Calendar:  "3",
			Settings:  "4",
			Help:      "?",
			Quit:      "q",
		},
		cfg:       deps.Config,
		client:    deps.Client,
		tasks:     deps.Tasks,
		notes:     deps.Notes,
		scheduler: deps.Scheduler,
		repo:      deps.Repo,
		desktop:   deps.Desktop,
		now:       deps.Now,
	}
	if m.client == nil {
		m.client = apiclient.New(nil, apiclient.Options{BaseURL: m.cfg.APIBaseURL, Timeout: m.cfg.RequestTimeout})
	}
	if m.notes == nil {
		m.notes = store.NewLog(store.DefaultLogLimit)
	}
	if m.tasks == nil {
		m.tasks = store.NewTaskStore(m.client, m.notes)
	}
	if m.desktop == nil {
		m.desktop = NoopDesktopNotifier{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.Calendar.FocusDate = m.clock().Today()
	m.Online = m.client.Online()

	m.initBubbleComponents()
	m.restorePreferences()

	session := m.client.Session()
	switch {
	case !session.Authenticated():
		m.CurrentView = ViewLogin
	case session.Expired(m.now()):
		if err := session.Invalidate(context.Background()); err != nil {
			log.Warn().Err(err).Msg("clear expired token")
		}
		m.CurrentView = ViewLogin
		m.Login.Error = "Your session has expired. Please sign in again."
	default:
		if m.CurrentView == ViewLogin {
			m.CurrentView = ViewDashboard
		}
	}
	m.enterView(m.CurrentView)
	m.syncBubbleData()
	return m
}

func (m Model) clock() projection.Clock {
	return projection.NewClock(m.now(), m.client.Location(), m.cfg.WeekStart)
}

// visibleTasks is the filtered list shown by the tasks view.
func (m Model) visibleTasks() []model.Task {
	return projection.Filter(m.tasks.Tasks(), m.Criteria, m.clock())
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.SelectedTaskID == "" {
		return model.Task{}, false
	}
	return m.tasks.Task(m.SelectedTaskID)
}
