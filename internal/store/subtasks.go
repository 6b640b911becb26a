package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/optimistic"
)

const (
	actionAddSubtask    = "add subtask"
	actionUpdateSubtask = "update subtask"
	actionDeleteSubtask = "delete subtask"
)

// SubtaskStore edits the subtasks of one task. It holds no state of its own:
// the owning TaskStore is the single source of truth, so a reload replaces
// placeholders with the server's records.
type SubtaskStore struct {
	tasks  *TaskStore
	taskID string
}

func (s *TaskStore) Subtasks(taskID string) *SubtaskStore {
	return &SubtaskStore{tasks: s, taskID: taskID}
}

func (ss *SubtaskStore) TaskID() string { return ss.taskID }

func (ss *SubtaskStore) List() []model.Subtask {
	t, ok := ss.tasks.Task(ss.taskID)
	if !ok {
		return nil
	}
	return t.Subtasks
}

// Progress is the completed fraction, 0 when there are no subtasks.
func (ss *SubtaskStore) Progress() float64 {
	t, ok := ss.tasks.Task(ss.taskID)
	if !ok {
		return 0
	}
	return t.Progress()
}

func (ss *SubtaskStore) Add(ctx context.Context, title string) error {
	p, err := ss.BeginAdd(title)
	if err != nil {
		return err
	}
	return ss.tasks.run(ctx, p)
}

// BeginAdd shows the new subtask at once under a placeholder id.
func (ss *SubtaskStore) BeginAdd(title string) (*optimistic.Pending, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	if _, ok := ss.tasks.Task(ss.taskID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, ss.taskID)
	}
	placeholder := model.Subtask{ID: model.PlaceholderID(uuid.NewString()), Title: title}
	return optimistic.Begin(optimistic.Mutation{
		Action: actionAddSubtask,
		Apply: func() {
			ss.tasks.withTask(ss.taskID, func(t *model.Task) {
				t.Subtasks = append(t.Subtasks, placeholder)
			})
		},
		Remote: func(ctx context.Context) error {
			return ss.tasks.api.CreateSubtask(ctx, ss.taskID, title)
		},
		Restore: func() {
			ss.tasks.withTask(ss.taskID, func(t *model.Task) {
				if i := subtaskIndex(t.Subtasks, placeholder.ID); i >= 0 {
					t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
				}
			})
		},
		Reload: true,
	}), nil
}

func (ss *SubtaskStore) ToggleCompleted(ctx context.Context, id string) error {
	p, err := ss.BeginToggleCompleted(id)
	if err != nil {
		return err
	}
	return ss.tasks.run(ctx, p)
}

// BeginToggleCompleted flips the completion flag and sends the new value.
// No reload follows; on failure only this entry is put back.
func (ss *SubtaskStore) BeginToggleCompleted(id string) (*optimistic.Pending, error) {
	current, err := ss.lookup(id)
	if err != nil {
		return nil, err
	}
	prev := current.Completed
	next := !prev
	return optimistic.Begin(optimistic.Mutation{
		Action: actionUpdateSubtask,
		Apply:  func() { ss.setCompleted(id, next) },
		Remote: func(ctx context.Context) error {
			return ss.tasks.api.UpdateSubtask(ctx, id, model.SubtaskPatch{Completed: &next})
		},
		Restore: func() { ss.setCompleted(id, prev) },
	}), nil
}

func (ss *SubtaskStore) Rename(ctx context.Context, id, title string) error {
	p, err := ss.BeginRename(id, title)
	if err != nil {
		return err
	}
	return ss.tasks.run(ctx, p)
}

// BeginRename shows the new title at once; a failure brings the old one back.
func (ss *SubtaskStore) BeginRename(id, title string) (*optimistic.Pending, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	current, err := ss.lookup(id)
	if err != nil {
		return nil, err
	}
	prev := current.Title
	return optimistic.Begin(optimistic.Mutation{
		Action: actionUpdateSubtask,
		Apply:  func() { ss.setTitle(id, title) },
		Remote: func(ctx context.Context) error {
			return ss.tasks.api.UpdateSubtask(ctx, id, model.SubtaskPatch{Title: &title})
		},
		Restore: func() { ss.setTitle(id, prev) },
		Reload:  true,
	}), nil
}

func (ss *SubtaskStore) Remove(ctx context.Context, id string) error {
	p, err := ss.BeginRemove(id)
	if err != nil {
		return err
	}
	return ss.tasks.run(ctx, p)
}

func (ss *SubtaskStore) BeginRemove(id string) (*optimistic.Pending, error) {
	snapshot, err := ss.lookup(id)
	if err != nil {
		return nil, err
	}
	idx := subtaskIndex(ss.List(), id)
	return optimistic.Begin(optimistic.Mutation{
		Action: actionDeleteSubtask,
		Apply: func() {
			ss.tasks.withTask(ss.taskID, func(t *model.Task) {
				if i := subtaskIndex(t.Subtasks, id); i >= 0 {
					t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
				}
			})
		},
		Remote: func(ctx context.Context) error {
			return ss.tasks.api.DeleteSubtask(ctx, id)
		},
		Restore: func() {
			ss.tasks.withTask(ss.taskID, func(t *model.Task) {
				if subtaskIndex(t.Subtasks, id) < 0 {
					t.Subtasks = insertAt(t.Subtasks, idx, snapshot)
				}
			})
		},
		Reload: true,
	}), nil
}

func (ss *SubtaskStore) lookup(id string) (model.Subtask, error) {
	t, ok := ss.tasks.Task(ss.taskID)
	if !ok {
		return model.Subtask{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ss.taskID)
	}
	i := subtaskIndex(t.Subtasks, id)
	if i < 0 {
		return model.Subtask{}, fmt.Errorf("%w: %s", ErrSubtaskNotFound, id)
	}
	if t.Subtasks[i].IsPlaceholder() {
		return model.Subtask{}, ErrPlaceholder
	}
	return t.Subtasks[i], nil
}

func (ss *SubtaskStore) setCompleted(id string, completed bool) {
	ss.tasks.withTask(ss.taskID, func(t *model.Task) {
		if i := subtaskIndex(t.Subtasks, id); i >= 0 {
			t.Subtasks[i].Completed = completed
		}
	})
}

func (ss *SubtaskStore) setTitle(id, title string) {
	ss.tasks.withTask(ss.taskID, func(t *model.Task) {
		if i := subtaskIndex(t.Subtasks, id); i >= 0 {
			t.Subtasks[i].Title = title
		}
	})
}

func subtaskIndex(list []model.Subtask, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
