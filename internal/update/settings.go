package update

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/commands"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/views"
)

func (m Model) updateProfileCmd(a commands.ProfileArgs) tea.Cmd {
	client := m.client
	timeout := m.cfg.RequestTimeout
	current := m.User
	fullName := strings.TrimSpace(a.FullName)
	if fullName == "" {
		fullName = current.FullName
	}
	email := strings.TrimSpace(a.Email)
	if email == "" {
		email = current.Email
	}
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		u, changed, err := client.UpdateProfile(ctx, current, fullName, email)
		return profileSavedMsg{user: u, emailChanged: changed, err: err}
	}
}

// onProfileSaved applies a profile change. The token is bound to the email,
// so changing it ends the session.
func (m Model) onProfileSaved(msg profileSavedMsg) (Model, tea.Cmd) {
	m.applyNetwork(m.client.Online())
	if msg.err != nil {
		if errors.Is(msg.err, apiclient.ErrUnauthorized) {
			m.signOut("Your session has expired. Please sign in again.")
			return m, nil
		}
		m.Status = StatusBar{Text: msg.err.Error(), IsError: true}
		m.notify(store.LevelError, "Failed to update profile", msg.err.Error())
		return m, nil
	}
	m.User = msg.user
	if msg.emailChanged {
		m.signOut("Your email changed. Please sign in with the new address.")
		return m, nil
	}
	m.Status = StatusBar{Text: "profile updated"}
	m.notify(store.LevelInfo, "Profile updated", "")
	return m, nil
}

func (m Model) renderSettingsView() string {
	data := views.SettingsData{
		FullName: m.User.FullName,
		Email:    m.User.Email,
		Role:     m.User.Role,
		Online:   m.Online,
		Commands: []string{
			"profile <full name> [email:<address>]",
			"password",
			"logout",
		},
		Password: m.passwordFormData(),
	}
	if exp, ok := m.client.Session().ExpiresAt(); ok {
		data.SessionExpiry = exp.In(m.client.Location()).Format(dueLayout)
	}
	return views.RenderSettings(data)
}
