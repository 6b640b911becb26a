package update

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/optimistic"
	"github.com/sandeepkv93/listo/internal/store"
)

const (
	offlineMessage = "You are offline. Changes may not be saved."
	onlineMessage  = "You are back online!"
)

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// startLoad issues a load ticket now and fetches in the returned command.
func (m *Model) startLoad() tea.Cmd {
	tasks := m.tasks
	timeout := m.cfg.RequestTimeout
	ticket := tasks.BeginLoad()
	load := func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		list, err := tasks.Fetch(ctx)
		return tasksLoadedMsg{ticket: ticket, tasks: list, err: err}
	}
	if m.spinnerActive {
		return load
	}
	m.spinnerActive = true
	return tea.Batch(load, m.loadSpinner.Tick)
}

func (m Model) onTasksLoaded(msg tasksLoadedMsg) (Model, tea.Cmd) {
	err := m.tasks.FinishLoad(msg.ticket, msg.tasks, msg.err)
	if m.tasks.Phase() != store.PhaseLoading {
		m.spinnerActive = false
	}
	m.applyNetwork(m.client.Online())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			m.signOut("Your session has expired. Please sign in again.")
			return m, nil
		}
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.ensureSelection()
	m.resetReminders()
	return m, nil
}

// runPending performs the remote half of p in a command; the result settles
// back on the update loop.
func (m Model) runPending(p *optimistic.Pending, success string) tea.Cmd {
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		return mutationSettledMsg{pending: p, err: p.Remote(ctx), success: success}
	}
}

func (m Model) onMutationSettled(msg mutationSettledMsg) (Model, tea.Cmd) {
	reload, err := m.tasks.Settle(msg.pending, msg.err)
	m.applyNetwork(m.client.Online())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			m.signOut("Your session has expired. Please sign in again.")
			return m, nil
		}
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else if msg.success != "" {
		m.Status = StatusBar{Text: msg.success}
	}
	m.ensureSelection()
	if reload {
		cmd := m.startLoad()
		return m, cmd
	}
	m.resetReminders()
	return m, nil
}

func (m Model) loadUserCmd() tea.Cmd {
	client := m.client
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		u, err := client.Me(ctx)
		return userLoadedMsg{user: u, err: err}
	}
}

// applyNetwork records a connectivity change and tells the user once per
// transition.
func (m *Model) applyNetwork(online bool) {
	if m.Online == online {
		return
	}
	m.Online = online
	if online {
		log.Info().Msg("connection restored")
		m.notify(store.LevelInfo, onlineMessage, "")
		return
	}
	log.Warn().Msg("connection lost")
	m.notify(store.LevelWarn, offlineMessage, "")
}
