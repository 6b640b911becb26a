package store

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/apiclient/apitest"
	"github.com/sandeepkv93/listo/internal/model"
)

// fakeAPI keeps tasks in memory and fails the named operations.
type fakeAPI struct {
	mu     sync.Mutex
	tasks  []model.Task
	fail   map[string]error
	calls  map[string]int
	nextID int
}

func newFakeAPI(tasks ...model.Task) *fakeAPI {
	return &fakeAPI{tasks: tasks, fail: map[string]error{}, calls: map[string]int{}, nextID: 100}
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) ListTasks(context.Context) ([]model.Task, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, d model.Draft) (model.Task, error) {
	if err := f.record("create"); err != nil {
		return model.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := model.Task{ID: strconv.Itoa(f.nextID), Title: d.Title, Status: d.Status, Priority: d.Priority, DueDate: d.DueDate}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, p model.Patch) error {
	if err := f.record("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i] = p.Apply(f.tasks[i])
		}
	}
	return nil
}

func (f *fakeAPI) DeleteTask(context.Context, string) error { return f.record("delete") }

func (f *fakeAPI) CreateSubtask(_ context.Context, taskID, title string) error {
	if err := f.record("subtask.create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == taskID {
			f.nextID++
			f.tasks[i].Subtasks = append(f.tasks[i].Subtasks, model.Subtask{ID: strconv.Itoa(f.nextID), Title: title})
		}
	}
	return nil
}

func (f *fakeAPI) UpdateSubtask(_ context.Context, id string, p model.SubtaskPatch) error {
	if err := f.record("subtask.update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		for j := range f.tasks[i].Subtasks {
			st := &f.tasks[i].Subtasks[j]
			if st.ID != id {
				continue
			}
			if p.Completed != nil {
				st.Completed = *p.Completed
			}
			if p.Title != nil {
				st.Title = *p.Title
			}
		}
	}
	return nil
}

func (f *fakeAPI) DeleteSubtask(context.Context, string) error { return f.record("subtask.delete") }

func seedTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Essay", Status: model.StatusTodo, Priority: model.PriorityHigh,
			Subtasks: []model.Subtask{{ID: "11", Title: "Outline"}, {ID: "12", Title: "Draft", Completed: true}}},
		{ID: "2", Title: "Problem set", Status: model.StatusInProgress, Priority: model.PriorityMedium},
		{ID: "3", Title: "Flashcards", Status: model.StatusDone, Priority: model.PriorityLow},
	}
}

func loadedStore(t *testing.T, api *fakeAPI) (*TaskStore, *Log) {
	t.Helper()
	notes := NewLog(0)
	s := NewTaskStore(api, notes)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, PhaseLoaded, s.Phase())
	return s, notes
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, notes := loadedStore(t, api)

	api.fail["list"] = errors.New("connection reset")
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseError, s.Phase())
	assert.Len(t, s.Tasks(), 3)

	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Failed to load tasks", got[0].Title)
	assert.Equal(t, LevelError, got[0].Level)
}

func TestFirstLoadFailureLeavesStoreEmpty(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["list"] = errors.New("boom")
	s := NewTaskStore(api, nil)
	require.Error(t, s.Load(context.Background()))
	assert.Empty(t, s.Tasks())
}

func TestStaleLoadIsDropped(t *testing.T) {
	s := NewTaskStore(newFakeAPI(), nil)
	older := s.BeginLoad()
	newer := s.BeginLoad()
	require.NoError(t, s.FinishLoad(newer, seedTasks(), nil))
	require.NoError(t, s.FinishLoad(older, nil, nil))
	assert.Len(t, s.Tasks(), 3)
}

func TestTasksReturnsCopies(t *testing.T) {
	s, _ := loadedStore(t, newFakeAPI(seedTasks()...))
	tasks := s.Tasks()
	tasks[0].Title = "mutated"
	tasks[0].Subtasks[0].Title = "mutated"
	got, ok := s.Task("1")
	require.True(t, ok)
	assert.Equal(t, "Essay", got.Title)
	assert.Equal(t, "Outline", got.Subtasks[0].Title)
}

func TestCreateRejectsEmptyTitleBeforeNetwork(t *testing.T) {
	api := newFakeAPI()
	s, notes := loadedStore(t, api)
	err := s.Create(context.Background(), model.NewDraft("  "))
	require.ErrorIs(t, err, model.ErrTitleRequired)
	assert.Zero(t, api.count("create"))
	assert.Empty(t, notes.Drain())
}

func TestCreateReloadsOnSuccess(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, _ := loadedStore(t, api)
	require.NoError(t, s.Create(context.Background(), model.NewDraft("Read paper")))
	assert.Equal(t, 2, api.count("list"))
	assert.Len(t, s.Tasks(), 4)
	assert.Equal(t, "Read paper", s.Tasks()[3].Title)
}

func TestCreateFailureChangesNothing(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["create"] = errors.New("500")
	s, notes := loadedStore(t, api)

	err := s.Create(context.Background(), model.NewDraft("Read paper"))
	require.Error(t, err)
	assert.Len(t, s.Tasks(), 3)
	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Failed to create task", got[0].Title)
}

func TestUpdateFailureRevertsStatus(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["update"] = errors.New("503")
	s, notes := loadedStore(t, api)

	err := s.Update(context.Background(), "1", model.StatusPatch(model.StatusDone))
	require.Error(t, err)

	got, _ := s.Task("1")
	assert.Equal(t, model.StatusTodo, got.Status)
	drained := notes.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "Failed to update status", drained[0].Title)
}

func TestUpdateFailureKeepsSettledSubtaskChange(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, _ := loadedStore(t, api)

	pending, err := s.BeginUpdateStatus("1", model.StatusDone)
	require.NoError(t, err)
	require.NoError(t, s.Subtasks("1").ToggleCompleted(context.Background(), "11"))

	_, err = s.Settle(pending, errors.New("boom"))
	require.Error(t, err)

	got, _ := s.Task("1")
	assert.Equal(t, model.StatusTodo, got.Status)
	assert.True(t, got.Subtasks[0].Completed, "toggle saved on the server must survive the task rollback")

	remote, err := api.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remote[0].Subtasks, got.Subtasks)
}

func TestPendingUpdateIsVisibleBeforeSettle(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, notes := loadedStore(t, api)
	title := "Essay v2"
	p, err := s.BeginUpdate("1", model.Patch{Title: &title})
	require.NoError(t, err)

	got, _ := s.Task("1")
	assert.Equal(t, "Essay v2", got.Title)

	reload, err := s.Settle(p, errors.New("timeout"))
	require.Error(t, err)
	assert.False(t, reload)
	got, _ = s.Task("1")
	assert.Equal(t, "Essay", got.Title)

	_, again := s.Settle(p, errors.New("timeout"))
	require.Error(t, again)
	assert.Len(t, notes.Drain(), 1)
}

func TestUnauthorizedRollbackIsSilent(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["update"] = &apiclient.StatusError{Code: http.StatusUnauthorized}
	s, notes := loadedStore(t, api)

	err := s.UpdateStatus(context.Background(), "2", model.StatusDone)
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	got, _ := s.Task("2")
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Empty(t, notes.Drain())
}

func TestUpdateUnknownTask(t *testing.T) {
	s, _ := loadedStore(t, newFakeAPI(seedTasks()...))
	_, err := s.BeginUpdateStatus("404", model.StatusDone)
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.BeginUpdate("1", model.Patch{})
	require.ErrorIs(t, err, ErrEmptyPatch)
}

func TestRemoveFailureReinsertsAtOldIndex(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["delete"] = errors.New("500")
	s, notes := loadedStore(t, api)

	p, err := s.BeginRemove("2")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = s.Settle(p, p.Remote(context.Background()))
	require.Error(t, err)
	tasks := s.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, "2", tasks[1].ID)
	assert.Equal(t, "Failed to delete task", notes.Drain()[0].Title)
}

func TestRemoveClampsReinsertIndex(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, _ := loadedStore(t, api)

	p, err := s.BeginRemove("3")
	require.NoError(t, err)
	other, err := s.BeginRemove("2")
	require.NoError(t, err)

	_, err = s.Settle(p, errors.New("500"))
	require.Error(t, err)
	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "3", tasks[1].ID)

	_, err = s.Settle(other, nil)
	require.NoError(t, err)
}

func TestRemoveSuccessNotifiesInfo(t *testing.T) {
	s, notes := loadedStore(t, newFakeAPI(seedTasks()...))
	require.NoError(t, s.Remove(context.Background(), "1"))
	assert.Equal(t, 2, s.Len())
	got := notes.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, LevelInfo, got[0].Level)
	assert.Equal(t, "Task deleted", got[0].Title)
}

func TestAddSubtaskBlankTitleIsNoOp(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, notes := loadedStore(t, api)
	subtasks := s.Subtasks("1")

	for _, title := range []string{"", "   "} {
		err := subtasks.Add(context.Background(), title)
		require.ErrorIs(t, err, model.ErrTitleRequired)
	}
	assert.Len(t, subtasks.List(), 2)
	assert.Zero(t, api.count("subtask.create"))
	assert.Empty(t, notes.Drain())
}

func TestAddSubtaskShowsPlaceholderThenReloads(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, _ := loadedStore(t, api)
	subtasks := s.Subtasks("1")

	p, err := subtasks.BeginAdd("  Bibliography ")
	require.NoError(t, err)
	list := subtasks.List()
	require.Len(t, list, 3)
	assert.True(t, list[2].IsPlaceholder())
	assert.Equal(t, "Bibliography", list[2].Title)
	assert.False(t, list[2].Completed)

	_, err = subtasks.BeginToggleCompleted(list[2].ID)
	require.ErrorIs(t, err, ErrPlaceholder)

	reload, err := s.Settle(p, p.Remote(context.Background()))
	require.NoError(t, err)
	require.True(t, reload)
	require.NoError(t, s.Load(context.Background()))

	list = subtasks.List()
	require.Len(t, list, 3)
	assert.False(t, list[2].IsPlaceholder())
}

func TestAddSubtaskFailureRemovesPlaceholder(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["subtask.create"] = errors.New("500")
	s, notes := loadedStore(t, api)

	err := s.Subtasks("1").Add(context.Background(), "Bibliography")
	require.Error(t, err)
	assert.Len(t, s.Subtasks("1").List(), 2)
	assert.Equal(t, "Failed to add subtask", notes.Drain()[0].Title)
}

func TestToggleTwiceRestoresOriginal(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	s, _ := loadedStore(t, api)
	subtasks := s.Subtasks("1")

	require.NoError(t, subtasks.ToggleCompleted(context.Background(), "11"))
	assert.True(t, subtasks.List()[0].Completed)
	assert.InDelta(t, 1.0, subtasks.Progress(), 1e-9)

	require.NoError(t, subtasks.ToggleCompleted(context.Background(), "11"))
	assert.False(t, subtasks.List()[0].Completed)
	assert.InDelta(t, 0.5, subtasks.Progress(), 1e-9)
	assert.Equal(t, 1, api.count("list"))
}

func TestToggleFailureRollsBackEntryOnly(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["subtask.update"] = errors.New("500")
	s, notes := loadedStore(t, api)

	err := s.Subtasks("1").ToggleCompleted(context.Background(), "12")
	require.Error(t, err)
	list := s.Subtasks("1").List()
	assert.False(t, list[0].Completed)
	assert.True(t, list[1].Completed)
	assert.Equal(t, "Failed to update subtask", notes.Drain()[0].Title)
}

func TestRenameFailureRestoresTitle(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["subtask.update"] = errors.New("500")
	s, _ := loadedStore(t, api)

	require.ErrorIs(t, s.Subtasks("1").Rename(context.Background(), "11", " "), model.ErrTitleRequired)
	require.Error(t, s.Subtasks("1").Rename(context.Background(), "11", "Plan"))
	assert.Equal(t, "Outline", s.Subtasks("1").List()[0].Title)
}

func TestRemoveSubtaskFailureReinserts(t *testing.T) {
	api := newFakeAPI(seedTasks()...)
	api.fail["subtask.delete"] = errors.New("500")
	s, notes := loadedStore(t, api)

	require.Error(t, s.Subtasks("1").Remove(context.Background(), "11"))
	list := s.Subtasks("1").List()
	require.Len(t, list, 2)
	assert.Equal(t, "11", list[0].ID)
	assert.Equal(t, "Failed to delete subtask", notes.Drain()[0].Title)
}

func TestProgressWithoutSubtasks(t *testing.T) {
	s, _ := loadedStore(t, newFakeAPI(seedTasks()...))
	assert.Zero(t, s.Subtasks("2").Progress())
	assert.Zero(t, s.Subtasks("missing").Progress())
}

func TestLogIsBounded(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Notify(Notification{Title: strconv.Itoa(i), At: time.Date(2026, 2, 9, 9, i, 0, 0, time.UTC)})
	}
	history := l.History()
	require.Len(t, history, 3)
	assert.Equal(t, "2", history[0].Title)
	assert.Len(t, l.Drain(), 3)
	assert.Empty(t, l.Drain())
	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "4", last.Title)
}

func TestCreateThenLoadAgainstServer(t *testing.T) {
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	session := apiclient.NewSession(nil)
	require.NoError(t, session.SetToken(context.Background(), srv.AddUser("Ada", "ada@example.com", "secret1")))
	client := apiclient.New(session, apiclient.Options{BaseURL: srv.BaseURL(), Location: time.UTC})

	s := NewTaskStore(client, NewLog(0))
	require.NoError(t, s.Load(context.Background()))

	due := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	draft := model.NewDraft("Revise notes")
	draft.Subject = "Biology"
	draft.Priority = model.PriorityHigh
	draft.DueDate = &due
	require.NoError(t, s.Create(context.Background(), draft))

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	got := tasks[0]
	assert.Equal(t, "Revise notes", got.Title)
	assert.Equal(t, "Biology", got.Subject)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Equal(t, model.StatusTodo, got.Status)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))

	require.NoError(t, s.Subtasks(got.ID).Add(context.Background(), "Chapter 3"))
	list := s.Subtasks(got.ID).List()
	require.Len(t, list, 1)
	assert.False(t, list[0].IsPlaceholder())
}
