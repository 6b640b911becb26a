package update

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/listo/internal/commands"
	"github.com/sandeepkv93/listo/internal/export"
	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/views"
)

var errNoSelection = &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}

func (m *Model) openPalette(prefill string) {
	m.Palette.Active = true
	m.Palette.Input = prefill
	m.commandInput.SetValue(prefill)
	m.commandInput.CursorEnd()
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	if msg.Type == tea.KeyRunes {
		m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
		m.commandInput.CursorEnd()
		m.Palette.Input = m.commandInput.Value()
		return m, nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	parsed, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var cmds []tea.Cmd
	mutate := func(p pendingResult, err error) error {
		if err != nil {
			return err
		}
		cmds = append(cmds, m.runPending(p.pending, p.success))
		return nil
	}

	res, err := commands.Execute(parsed, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			draft := model.NewDraft(a.Title)
			draft.Subject = a.Subject
			if a.Priority != "" {
				draft.Priority = a.Priority
			}
			if a.Due != "" {
				due, err := commands.ParseWhen(a.Due, m.localNow())
				if err != nil {
					return commands.Result{}, err
				}
				draft.DueDate = &due
			}
			p, err := m.tasks.BeginCreate(draft)
			if err := mutate(pendingResult{p, "task created: " + draft.Title}, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "creating task: " + draft.Title}, nil
		},
		Status: func(a commands.StatusArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			p, err := m.tasks.BeginUpdateStatus(id, a.Status)
			if err := mutate(pendingResult{p, ""}, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("#%s status: %s", id, a.Status.Label())}, nil
		},
		Priority: func(a commands.PriorityArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			priority := a.Priority
			p, err := m.tasks.BeginUpdate(id, model.Patch{Priority: &priority})
			if err := mutate(pendingResult{p, ""}, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("#%s priority: %s", id, strings.ToLower(string(priority)))}, nil
		},
		Due: func(a commands.DueArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			due, err := commands.ParseWhen(a.When, m.localNow())
			if err != nil {
				return commands.Result{}, err
			}
			p, err := m.tasks.BeginUpdate(id, model.Patch{DueDate: &due})
			if err := mutate(pendingResult{p, ""}, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("#%s due %s", id, due.Format(dueLayout))}, nil
		},
		Rename: func(a commands.RenameArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			title := a.Title
			p, err := m.tasks.BeginUpdate(id, model.Patch{Title: &title})
			if err := mutate(pendingResult{p, ""}, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("#%s renamed", id)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			p, err := m.tasks.BeginRemove(id)
			if err := mutate(pendingResult{p, ""}, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleting #%s", id)}, nil
		},
		Search: func(a commands.SearchArgs) (commands.Result, error) {
			m.Criteria.Search = a.Term
			m.enterView(ViewTasks)
			if strings.TrimSpace(a.Term) == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("searching %q", a.Term)}, nil
		},
		Filter: func(a commands.FilterArgs) (commands.Result, error) {
			if err := m.applyFilter(a); err != nil {
				return commands.Result{}, err
			}
			m.enterView(ViewTasks)
			summary := m.filterSummary()
			if summary == "" {
				summary = "none"
			}
			return commands.Result{Message: "filter: " + summary}, nil
		},
		Subtask: func(a commands.SubtaskArgs) (commands.Result, error) {
			task, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			subs := m.tasks.Subtasks(task.ID)
			if a.Action == commands.SubtaskAdd {
				p, err := subs.BeginAdd(a.Title)
				if err := mutate(pendingResult{p, ""}, err); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "adding subtask: " + a.Title}, nil
			}
			list := subs.List()
			if a.Position > len(list) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("task has %d subtask(s)", len(list))}
			}
			id := list[a.Position-1].ID
			var p pendingResult
			var err error
			switch a.Action {
			case commands.SubtaskDone:
				p.pending, err = subs.BeginToggleCompleted(id)
			case commands.SubtaskRename:
				p.pending, err = subs.BeginRename(id, a.Title)
			case commands.SubtaskRemove:
				p.pending, err = subs.BeginRemove(id)
			}
			if err := mutate(p, err); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("subtask %d: %s", a.Position, a.Action)}, nil
		},
		Export: func(a commands.ExportArgs) (commands.Result, error) {
			cmds = append(cmds, m.exportCmd(a.Path))
			return commands.Result{Message: "exporting tasks"}, nil
		},
		Profile: func(a commands.ProfileArgs) (commands.Result, error) {
			cmds = append(cmds, m.updateProfileCmd(a))
			return commands.Result{Message: "saving profile"}, nil
		},
		Password: func() (commands.Result, error) {
			m.openPasswordForm()
			return commands.Result{Message: "change password"}, nil
		},
		Logout: func() (commands.Result, error) {
			m.signOut("You have been signed out.")
			return commands.Result{Message: "signed out"}, nil
		},
		Refresh: func() (commands.Result, error) {
			cmds = append(cmds, m.startLoad())
			return commands.Result{Message: "reloading tasks"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		var cmdErr *commands.CommandError
		if !errors.As(err, &cmdErr) {
			m.notify(store.LevelError, "Command failed", err.Error())
		}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.ensureSelection()
	return m, tea.Batch(cmds...)
}

// resolveTarget maps an empty target to the selection and checks that an
// explicit id exists.
func (m Model) resolveTarget(target commands.Target) (string, error) {
	if target.IsSelected() {
		if m.SelectedTaskID == "" {
			return "", errNoSelection
		}
		return m.SelectedTaskID, nil
	}
	id := string(target)
	if _, ok := m.tasks.Task(id); !ok {
		return "", fmt.Errorf("%w: #%s", store.ErrTaskNotFound, id)
	}
	return id, nil
}

func (m *Model) applyFilter(a commands.FilterArgs) error {
	if a.Clear {
		m.Criteria = projection.Criteria{}
	}
	if a.Date != nil {
		date, err := projection.ParseDateFilter(*a.Date)
		if err != nil {
			return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
		}
		m.Criteria.Date = date
	}
	if a.Status != nil {
		m.Criteria.Status = *a.Status
	}
	if a.Priority != nil {
		m.Criteria.Priority = *a.Priority
	}
	m.savePreference(preferenceDateFilter, string(m.Criteria.Date))
	m.savePreference(preferenceStatusFilter, string(m.Criteria.Status))
	return nil
}

// exportCmd writes the filtered list as it is now; later edits do not leak
// into a running export.
func (m Model) exportCmd(path string) tea.Cmd {
	tasks := m.visibleTasks()
	clock := m.clock()
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(m.cfg.ExportDir, export.DefaultFileName(clock.Now.In(m.client.Location())))
	}
	return func() tea.Msg {
		abs, err := export.WriteFile(path, tasks, clock)
		return exportDoneMsg{path: abs, count: len(tasks), err: err}
	}
}

func (m Model) localNow() time.Time {
	return m.now().In(m.client.Location())
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}
