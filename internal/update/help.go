package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/listo/internal/commands"
	"github.com/sandeepkv93/listo/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	global := m.globalBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		Commands:    commands.Usage(),
		HelpView: m.helpModel.View(helpKeyMap{
			short: toKeyBindings(global),
			full:  [][]key.Binding{toKeyBindings(global)},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Dashboard, Action: "dashboard"},
		{Key: m.Keys.Tasks, Action: "tasks"},
		{Key: m.Keys.Calendar, Action: "calendar"},
		{Key: m.Keys.Settings, Action: "settings"},
		{Key: "/", Action: "command palette"},
		{Key: "r", Action: "reload"},
		{Key: m.Keys.Help, Action: "help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewTasks:
		if m.Detail.Focused {
			return []KeyBinding{
				{Key: "j/k", Action: "move subtask cursor"},
				{Key: "space", Action: "toggle subtask"},
				{Key: "x", Action: "remove subtask"},
				{Key: "a", Action: "add subtask"},
				{Key: "esc", Action: "back to list"},
			}
		}
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "a", Action: "add task"},
			{Key: "s", Action: "cycle status"},
			{Key: "e", Action: "edit notes"},
			{Key: "x", Action: "delete task"},
			{Key: "enter", Action: "subtasks"},
		}
	case ViewCalendar:
		return []KeyBinding{
			{Key: "d/w/m", Action: "day/week/month"},
			{Key: "h/l", Action: "previous/next period"},
			{Key: "t", Action: "jump to today"},
		}
	case ViewSettings:
		if m.PasswordForm.Active {
			return []KeyBinding{
				{Key: "tab", Action: "next field"},
				{Key: "enter", Action: "update password"},
				{Key: "esc", Action: "cancel"},
			}
		}
		return []KeyBinding{{Key: "p", Action: "change password"}}
	case ViewLogin:
		return []KeyBinding{
			{Key: "tab", Action: "next field"},
			{Key: "enter", Action: "submit"},
			{Key: "ctrl+t", Action: "switch sign in / sign up"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func toKeyBindings(in []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(in))
	for _, kb := range in {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
