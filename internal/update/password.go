package update

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/views"
)

// Change-password field order.
const (
	passwordCurrent = iota
	passwordNew
	passwordConfirm
	passwordFieldCount
)

const minPasswordLength = 8

var passwordLabels = [passwordFieldCount]string{"Current password", "New password", "Confirm password"}

// PasswordFormState is the masked change-password form on the settings view.
type PasswordFormState struct {
	Active  bool
	Focus   int
	Error   string
	Pending bool
}

func newPasswordInputs() []textinput.Model {
	inputs := make([]textinput.Model, passwordFieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 128
		in.Width = 32
		in.Prompt = ""
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '*'
		inputs[i] = in
	}
	return inputs
}

func (m *Model) openPasswordForm() {
	if m.CurrentView != ViewSettings {
		m.enterView(ViewSettings)
	}
	m.PasswordForm = PasswordFormState{Active: true}
	m.clearPasswordInputs()
	m.focusPasswordField(passwordCurrent)
}

func (m *Model) closePasswordForm() {
	m.PasswordForm = PasswordFormState{}
	m.clearPasswordInputs()
	for i := range m.passwordInputs {
		m.passwordInputs[i].Blur()
	}
}

func (m *Model) clearPasswordInputs() {
	for i := range m.passwordInputs {
		m.passwordInputs[i].SetValue("")
	}
}

func (m *Model) focusPasswordField(field int) {
	m.PasswordForm.Focus = field
	for i := range m.passwordInputs {
		if i == field {
			m.passwordInputs[i].Focus()
		} else {
			m.passwordInputs[i].Blur()
		}
	}
}

func (m Model) handlePasswordKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.PasswordForm.Pending {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.closePasswordForm()
		m.Status = StatusBar{Text: "password change cancelled"}
		return m, nil
	case "tab", "down":
		m.focusPasswordField((m.PasswordForm.Focus + 1) % passwordFieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusPasswordField((m.PasswordForm.Focus + passwordFieldCount - 1) % passwordFieldCount)
		return m, nil
	case "enter":
		return m.submitPasswordForm()
	}
	var cmd tea.Cmd
	focus := m.PasswordForm.Focus
	m.passwordInputs[focus], cmd = m.passwordInputs[focus].Update(msg)
	return m, cmd
}

func (m Model) submitPasswordForm() (Model, tea.Cmd) {
	current := m.passwordInputs[passwordCurrent].Value()
	next := m.passwordInputs[passwordNew].Value()
	confirm := m.passwordInputs[passwordConfirm].Value()
	switch {
	case current == "":
		m.PasswordForm.Error = "Current password is required."
	case len(next) < minPasswordLength:
		m.PasswordForm.Error = "Password must be at least 8 characters."
	case next != confirm:
		m.PasswordForm.Error = "Passwords do not match."
	default:
		m.PasswordForm.Error = ""
		m.PasswordForm.Pending = true
		m.Status = StatusBar{Text: "changing password"}
		return m, m.changePasswordCmd(current, next, confirm)
	}
	return m, nil
}

func (m Model) changePasswordCmd(current, next, confirm string) tea.Cmd {
	client := m.client
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		return passwordChangedMsg{err: client.ChangePassword(ctx, current, next, confirm)}
	}
}

// onPasswordChanged keeps the form open on failure so the user can retry.
func (m Model) onPasswordChanged(msg passwordChangedMsg) (Model, tea.Cmd) {
	m.PasswordForm.Pending = false
	m.applyNetwork(m.client.Online())
	if msg.err != nil {
		if errors.Is(msg.err, apiclient.ErrUnauthorized) {
			m.signOut("Your session has expired. Please sign in again.")
			return m, nil
		}
		m.PasswordForm.Error = msg.err.Error()
		m.Status = StatusBar{Text: msg.err.Error(), IsError: true}
		m.notify(store.LevelError, "Failed to change password", msg.err.Error())
		return m, nil
	}
	m.closePasswordForm()
	m.Status = StatusBar{Text: "password changed"}
	m.notify(store.LevelInfo, "Password changed", "")
	return m, nil
}

func (m Model) passwordFormData() *views.PasswordFormData {
	if !m.PasswordForm.Active {
		return nil
	}
	fields := make([]views.FieldData, 0, passwordFieldCount)
	for i := 0; i < passwordFieldCount; i++ {
		fields = append(fields, views.FieldData{
			Label:   passwordLabels[i],
			View:    m.passwordInputs[i].View(),
			Focused: m.PasswordForm.Focus == i,
		})
	}
	return &views.PasswordFormData{
		Fields:  fields,
		Error:   m.PasswordForm.Error,
		Pending: m.PasswordForm.Pending,
	}
}
