package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/optimistic"
	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/store"
	"github.com/sandeepkv93/listo/internal/views"
)

const dueLayout = "Mon Jan 2 15:04"

// nextStatus is the order the status key cycles through.
var nextStatus = map[model.Status]model.Status{
	model.StatusTodo:       model.StatusInProgress,
	model.StatusInProgress: model.StatusDone,
	model.StatusDone:       model.StatusTodo,
}

func (m Model) handleTasksKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Detail.Focused {
		return m.handleSubtaskKey(msg)
	}
	switch msg.String() {
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "a":
		m.openPalette("add ")
	case "s":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m.beginMutation(func() (pendingResult, error) {
			p, err := m.tasks.BeginUpdateStatus(task.ID, nextStatus[task.Status])
			return pendingResult{p, "status: " + nextStatus[task.Status].Label()}, err
		})
	case "x":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m.beginMutation(func() (pendingResult, error) {
			p, err := m.tasks.BeginRemove(task.ID)
			return pendingResult{p, ""}, err
		})
	case "enter":
		if _, ok := m.selectedTask(); ok {
			m.Detail = DetailState{Focused: true}
		}
	case "e":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.Detail.Editing = true
		m.notesArea.SetValue(task.Description)
		m.notesArea.Focus()
	}
	return m, nil
}

func (m Model) handleSubtaskKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.Detail = DetailState{}
		return m, nil
	}
	subs := m.tasks.Subtasks(task.ID)
	list := subs.List()
	switch msg.String() {
	case "esc":
		m.Detail = DetailState{}
	case "up", "k":
		if m.Detail.Cursor > 0 {
			m.Detail.Cursor--
		}
	case "down", "j":
		if m.Detail.Cursor < len(list)-1 {
			m.Detail.Cursor++
		}
	case " ", "space":
		if m.Detail.Cursor < len(list) {
			id := list[m.Detail.Cursor].ID
			return m.beginMutation(func() (pendingResult, error) {
				p, err := subs.BeginToggleCompleted(id)
				return pendingResult{p, ""}, err
			})
		}
	case "x":
		if m.Detail.Cursor < len(list) {
			id := list[m.Detail.Cursor].ID
			return m.beginMutation(func() (pendingResult, error) {
				p, err := subs.BeginRemove(id)
				return pendingResult{p, "subtask removed"}, err
			})
		}
	case "a":
		m.openPalette("subtask add ")
	}
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Detail.Editing = false
		m.notesArea.Blur()
		m.Status = StatusBar{Text: "edit cancelled"}
		return m, nil
	case "ctrl+s":
		m.Detail.Editing = false
		m.notesArea.Blur()
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		desc := strings.TrimSpace(m.notesArea.Value())
		if desc == task.Description {
			return m, nil
		}
		return m.beginMutation(func() (pendingResult, error) {
			p, err := m.tasks.BeginUpdate(task.ID, model.Patch{Description: &desc})
			return pendingResult{p, "notes saved"}, err
		})
	}
	var cmd tea.Cmd
	m.notesArea, cmd = m.notesArea.Update(msg)
	return m, cmd
}

type pendingResult struct {
	pending *optimistic.Pending
	success string
}

// beginMutation applies a local change and schedules its remote half. A
// change rejected before it starts (validation, unknown id) only sets the
// status line.
func (m Model) beginMutation(begin func() (pendingResult, error)) (Model, tea.Cmd) {
	res, err := begin()
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.ensureSelection()
	return m, m.runPending(res.pending, res.success)
}

func (m *Model) moveSelection(delta int) {
	visible := m.visibleTasks()
	if len(visible) == 0 {
		m.SelectedTaskID = ""
		return
	}
	idx := indexOfTask(visible, m.SelectedTaskID)
	idx = max(0, min(len(visible)-1, idx+delta))
	m.SelectedTaskID = visible[idx].ID
}

// ensureSelection keeps the selection on a visible task.
func (m *Model) ensureSelection() {
	visible := m.visibleTasks()
	if len(visible) == 0 {
		m.SelectedTaskID = ""
		m.Detail = DetailState{}
		return
	}
	if indexOfTask(visible, m.SelectedTaskID) < 0 {
		m.SelectedTaskID = visible[0].ID
		m.Detail = DetailState{}
	}
	if task, ok := m.selectedTask(); ok && m.Detail.Cursor >= len(task.Subtasks) {
		m.Detail.Cursor = max(0, len(task.Subtasks)-1)
	}
}

func indexOfTask(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) taskLine(t model.Task, clock projection.Clock) views.TaskLine {
	line := views.TaskLine{
		ID:       t.ID,
		Title:    t.Title,
		Subject:  t.Subject,
		Status:   t.Status.Label(),
		Priority: string(t.Priority),
		Overdue:  projection.IsOverdue(t, clock),
	}
	if t.HasDueDate() {
		line.Due = t.DueDate.In(m.client.Location()).Format(dueLayout)
	}
	return line
}

func (m Model) filterSummary() string {
	c := m.Criteria
	if c.IsZero() {
		return ""
	}
	parts := []string{c.Date.Label()}
	if c.Status != "" {
		parts = append(parts, "status "+c.Status.Label())
	}
	if c.Priority != "" {
		parts = append(parts, "priority "+strings.ToLower(string(c.Priority)))
	}
	if term := strings.TrimSpace(c.Search); term != "" {
		parts = append(parts, fmt.Sprintf("search %q", term))
	}
	return strings.Join(parts, ", ")
}

func (m Model) renderTaskListView() string {
	data := views.TaskListData{
		FilterSummary: m.filterSummary(),
		TableView:     m.taskTable.View(),
		Shown:         len(m.visibleTasks()),
		Total:         m.tasks.Len(),
	}
	switch m.tasks.Phase() {
	case store.PhaseLoading:
		data.Loading = m.loadSpinner.View() + " loading"
	case store.PhaseError:
		if err := m.tasks.LastError(); err != nil {
			data.LoadError = err.Error()
		}
	}
	return views.RenderTaskList(data)
}

func (m Model) renderTaskDetailView() string {
	task, ok := m.selectedTask()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{})
	}
	line := m.taskLine(task, m.clock())
	subs := make([]views.SubtaskLine, 0, len(task.Subtasks))
	for i, st := range task.Subtasks {
		subs = append(subs, views.SubtaskLine{
			Title:    st.Title,
			Done:     st.Completed,
			Unsaved:  st.IsPlaceholder(),
			Selected: i == m.Detail.Cursor,
		})
	}
	data := views.TaskDetailData{
		Task:         &line,
		Subtasks:     subs,
		ProgressView: m.subtaskBar.ViewAs(task.Progress()),
		ProgressPct:  int(task.Progress()*100 + 0.5),
		Focused:      m.Detail.Focused,
	}
	if m.Detail.Editing {
		data.EditorView = m.notesArea.View()
	} else if strings.TrimSpace(task.Description) != "" {
		data.DescriptionView = m.detailViewport.View()
	}
	return views.RenderTaskDetail(data)
}
