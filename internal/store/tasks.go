// Package store keeps the client-side copy of the user's tasks and applies
// changes optimistically against the remote API.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/listo/internal/apiclient"
	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/optimistic"
)

var (
	ErrTaskNotFound    = errors.New("store: task not found")
	ErrSubtaskNotFound = errors.New("store: subtask not found")
	ErrEmptyPatch      = errors.New("store: nothing to update")
	// ErrPlaceholder rejects operations on a subtask the server has not
	// confirmed yet.
	ErrPlaceholder = errors.New("store: subtask is not saved yet")
)

// API is the part of the remote client the stores depend on.
type API interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, draft model.Draft) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.Patch) error
	DeleteTask(ctx context.Context, id string) error
	CreateSubtask(ctx context.Context, taskID, title string) error
	UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) error
	DeleteSubtask(ctx context.Context, id string) error
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

const (
	actionLoad         = "load tasks"
	actionCreate       = "create task"
	actionUpdate       = "update task"
	actionUpdateStatus = "update status"
	actionDelete       = "delete task"
)

// LoadTicket orders concurrent loads; a response older than the last applied
// one is dropped.
type LoadTicket uint64

// TaskStore is the ordered collection of tasks shown by every view.
type TaskStore struct {
	api      API
	notifier Notifier

	mu      sync.Mutex
	tasks   []model.Task
	phase   Phase
	lastErr error
	issued  LoadTicket
	applied LoadTicket
}

func NewTaskStore(api API, notifier Notifier) *TaskStore {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &TaskStore{api: api, notifier: notifier}
}

func (s *TaskStore) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// LastError is the error of the most recent failed load.
func (s *TaskStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *TaskStore) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Load fetches every task and replaces the local state.
func (s *TaskStore) Load(ctx context.Context) error {
	ticket := s.BeginLoad()
	tasks, err := s.Fetch(ctx)
	return s.FinishLoad(ticket, tasks, err)
}

func (s *TaskStore) BeginLoad() LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.phase = PhaseLoading
	return s.issued
}

// Fetch performs the remote read without touching local state.
func (s *TaskStore) Fetch(ctx context.Context) ([]model.Task, error) {
	return s.api.ListTasks(ctx)
}

// FinishLoad applies the outcome of a load. On failure the previous tasks are
// kept and the user is told.
func (s *TaskStore) FinishLoad(ticket LoadTicket, tasks []model.Task, err error) error {
	s.mu.Lock()
	if ticket < s.applied {
		s.mu.Unlock()
		log.Debug().Uint64("ticket", uint64(ticket)).Msg("dropping stale task load")
		return nil
	}
	s.applied = ticket
	if err != nil {
		s.phase = PhaseError
		s.lastErr = err
		s.mu.Unlock()
		log.Warn().Err(err).Msg("load tasks")
		s.notifyFailure(actionLoad, err)
		return err
	}
	next := make([]model.Task, len(tasks))
	for i, t := range tasks {
		next[i] = t.Clone()
	}
	s.tasks = next
	s.phase = PhaseLoaded
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Create validates the draft, posts it, and reloads on success.
func (s *TaskStore) Create(ctx context.Context, draft model.Draft) error {
	p, err := s.BeginCreate(draft)
	if err != nil {
		return err
	}
	return s.run(ctx, p)
}

// BeginCreate inserts nothing locally; the server assigns the id, so the new
// task appears with the reload that follows success.
func (s *TaskStore) BeginCreate(draft model.Draft) (*optimistic.Pending, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return optimistic.Begin(optimistic.Mutation{
		Action: actionCreate,
		Remote: func(ctx context.Context) error {
			_, err := s.api.CreateTask(ctx, draft)
			return err
		},
		Reload: true,
	}), nil
}

func (s *TaskStore) Update(ctx context.Context, id string, patch model.Patch) error {
	p, err := s.BeginUpdate(id, patch)
	if err != nil {
		return err
	}
	return s.run(ctx, p)
}

// BeginUpdate applies patch locally and returns the pending remote update.
func (s *TaskStore) BeginUpdate(id string, patch model.Patch) (*optimistic.Pending, error) {
	action := actionUpdate
	if patch.Status != nil && patch.Title == nil && patch.Description == nil &&
		patch.Subject == nil && patch.Priority == nil && patch.DueDate == nil {
		action = actionUpdateStatus
	}
	return s.beginUpdate(action, id, patch)
}

func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	p, err := s.BeginUpdateStatus(id, status)
	if err != nil {
		return err
	}
	return s.run(ctx, p)
}

func (s *TaskStore) BeginUpdateStatus(id string, status model.Status) (*optimistic.Pending, error) {
	return s.beginUpdate(actionUpdateStatus, id, model.StatusPatch(status))
}

func (s *TaskStore) beginUpdate(action, id string, patch model.Patch) (*optimistic.Pending, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	snapshot, ok := s.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return optimistic.Begin(optimistic.Mutation{
		Action: action,
		Apply: func() {
			s.withTask(id, func(t *model.Task) { *t = patch.Apply(*t) })
		},
		Remote: func(ctx context.Context) error {
			return s.api.UpdateTask(ctx, id, patch)
		},
		Restore: func() {
			s.withTask(id, func(t *model.Task) { *t = patch.Revert(*t, snapshot) })
		},
	}), nil
}

func (s *TaskStore) Remove(ctx context.Context, id string) error {
	p, err := s.BeginRemove(id)
	if err != nil {
		return err
	}
	return s.run(ctx, p)
}

// BeginRemove drops the task locally. A failed delete puts it back at its old
// position, or at the end if the list has shrunk since.
func (s *TaskStore) BeginRemove(id string) (*optimistic.Pending, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	snapshot := s.tasks[idx].Clone()
	s.mu.Unlock()

	return optimistic.Begin(optimistic.Mutation{
		Action: actionDelete,
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if i := s.indexLocked(id); i >= 0 {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			}
		},
		Remote: func(ctx context.Context) error {
			return s.api.DeleteTask(ctx, id)
		},
		Restore: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.indexLocked(id) >= 0 {
				return
			}
			s.tasks = insertAt(s.tasks, idx, snapshot)
		},
		Commit: func() {
			s.notifier.Notify(Notification{Level: LevelInfo, Title: "Task deleted", Body: snapshot.Title})
		},
	}), nil
}

// Settle completes a pending mutation on the caller's goroutine. A failure is
// rolled back and reported once; an authorization failure is not reported
// since the forced sign-out already tells the user. The bool asks the caller
// to reload.
func (s *TaskStore) Settle(p *optimistic.Pending, remoteErr error) (bool, error) {
	if p == nil {
		return false, nil
	}
	if p.Settled() {
		return false, p.Settle(nil)
	}
	err := p.Settle(remoteErr)
	if err != nil {
		log.Info().Err(remoteErr).Str("action", p.Action()).Msg("rolled back optimistic change")
		s.notifyFailure(p.Action(), remoteErr)
		return false, err
	}
	return p.NeedsReload(), nil
}

func (s *TaskStore) run(ctx context.Context, p *optimistic.Pending) error {
	reload, err := s.Settle(p, p.Remote(ctx))
	if err != nil {
		return err
	}
	if reload {
		return s.Load(ctx)
	}
	return nil
}

func (s *TaskStore) notifyFailure(action string, err error) {
	if errors.Is(err, apiclient.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return
	}
	body := "Please try again."
	if err != nil {
		body = err.Error()
	}
	s.notifier.Notify(Notification{Level: LevelError, Title: FailureTitle(action), Body: body})
}

// FailureTitle is the headline shown when action fails, e.g. "Failed to
// delete task".
func FailureTitle(action string) string {
	return "Failed to " + action
}

// withTask runs fn on the task with id, if it is still present.
func (s *TaskStore) withTask(id string, fn func(*model.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	fn(&s.tasks[idx])
	return true
}

func (s *TaskStore) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func insertAt[T any](list []T, idx int, v T) []T {
	if idx < 0 {
		idx = 0
	}
	if idx > len(list) {
		idx = len(list)
	}
	list = append(list, v)
	copy(list[idx+1:], list[idx:])
	list[idx] = v
	return list
}
