package update

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/views"
)

var loginLabels = [fieldCount]string{"Full name", "Email", "Password", "Confirm password"}

func newLoginInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 128
		in.Width = 32
		in.Prompt = ""
		inputs[i] = in
	}
	inputs[fieldEmail].Placeholder = "you@example.com"
	for _, i := range []int{fieldPassword, fieldConfirm} {
		inputs[i].EchoMode = textinput.EchoPassword
		inputs[i].EchoCharacter = '*'
	}
	return inputs
}

// loginFields lists the inputs shown in the current mode.
func (m Model) loginFields() []int {
	if m.Login.SignUp {
		return []int{fieldFullName, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []int{fieldEmail, fieldPassword}
}

func (m *Model) focusLoginField(field int) {
	m.Login.Focus = field
	for i := range m.loginInputs {
		if i == field {
			m.loginInputs[i].Focus()
		} else {
			m.loginInputs[i].Blur()
		}
	}
}

func (m *Model) clearLoginInputs() {
	for i := range m.loginInputs {
		m.loginInputs[i].SetValue("")
	}
}

func (m Model) loginValue(field int) string {
	return m.loginInputs[field].Value()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Login.Pending {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.Quitting = true
		return m, tea.Quit
	case "ctrl+t":
		m.Login.SignUp = !m.Login.SignUp
		m.Login.Error = ""
		if m.Login.SignUp {
			m.client.Session().SetRoute(apiclient.RouteSignup)
			m.focusLoginField(fieldFullName)
		} else {
			m.client.Session().SetRoute(apiclient.RouteLogin)
			m.focusLoginField(fieldEmail)
		}
		return m, nil
	case "tab", "down":
		m.moveLoginFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveLoginFocus(-1)
		return m, nil
	case "enter":
		return m.submitLogin()
	}
	var cmd tea.Cmd
	m.loginInputs[m.Login.Focus], cmd = m.loginInputs[m.Login.Focus].Update(msg)
	return m, cmd
}

func (m *Model) moveLoginFocus(delta int) {
	fields := m.loginFields()
	pos := 0
	for i, f := range fields {
		if f == m.Login.Focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	m.focusLoginField(fields[pos])
}

func (m Model) submitLogin() (Model, tea.Cmd) {
	email := strings.TrimSpace(m.loginValue(fieldEmail))
	password := m.loginValue(fieldPassword)
	if email == "" || password == "" {
		m.Login.Error = "Email and password are required."
		return m, nil
	}
	client := m.client
	timeout := m.cfg.RequestTimeout
	m.Login.Error = ""
	m.Login.Pending = true

	if !m.Login.SignUp {
		return m, func() tea.Msg {
			ctx, cancel := requestContext(timeout)
			defer cancel()
			return authDoneMsg{err: client.Authenticate(ctx, email, password)}
		}
	}

	req := apiclient.RegisterRequest{
		FullName:        strings.TrimSpace(m.loginValue(fieldFullName)),
		Email:           email,
		Password:        password,
		ConfirmPassword: m.loginValue(fieldConfirm),
	}
	if len(req.FullName) < 2 {
		m.Login.Pending = false
		m.Login.Error = "Full name must be at least 2 characters."
		return m, nil
	}
	if req.Password != req.ConfirmPassword {
		m.Login.Pending = false
		m.Login.Error = "Passwords do not match."
		return m, nil
	}
	return m, func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		return authDoneMsg{err: client.Register(ctx, req)}
	}
}

func (m Model) onAuthDone(msg authDoneMsg) (Model, tea.Cmd) {
	m.Login.Pending = false
	m.applyNetwork(m.client.Online())
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, apiclient.ErrUnauthorized):
			m.Login.Error = "Invalid email or password."
		case apiclient.IsOffline(msg.err):
			m.Login.Error = "Cannot reach the server."
		default:
			m.Login.Error = msg.err.Error()
		}
		return m, nil
	}
	signUp := m.Login.SignUp
	m.Login = LoginState{}
	m.clearLoginInputs()
	m.enterView(m.landingView())
	if signUp {
		m.Status = StatusBar{Text: "account created"}
	} else {
		m.Status = StatusBar{Text: "signed in"}
	}
	load := m.startLoad()
	return m, tea.Batch(m.loadUserCmd(), load)
}

func (m Model) renderLoginView() string {
	fields := make([]views.FieldData, 0, fieldCount)
	for _, f := range m.loginFields() {
		fields = append(fields, views.FieldData{
			Label:   loginLabels[f],
			View:    m.loginInputs[f].View(),
			Focused: m.Login.Focus == f,
		})
	}
	return views.RenderLogin(views.LoginData{
		SignUp:  m.Login.SignUp,
		Fields:  fields,
		Error:   m.Login.Error,
		Pending: m.Login.Pending,
	})
}
