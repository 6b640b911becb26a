package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sandeepkv93/listo/internal/model"
)

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var payload []taskDTO
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(payload))
	for _, dto := range payload {
		task, err := dto.toModel(c.loc)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, draft model.Draft) (model.Task, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return model.Task{}, err
	}
	var payload taskDTO
	if err := c.do(ctx, http.MethodPost, "/tasks", newCreateTaskRequest(draft, c.loc), &payload); err != nil {
		return model.Task{}, err
	}
	return payload.toModel(c.loc)
}

// UpdateTask sends a partial update; the response body is not needed.
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, taskPath(id), newUpdateTaskRequest(patch, c.loc), nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *Client) CreateSubtask(ctx context.Context, taskID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.ErrTitleRequired
	}
	path := taskPath(taskID) + "/subtasks"
	return c.do(ctx, http.MethodPost, path, createSubtaskRequest{Title: title}, nil)
}

func (c *Client) UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.ErrTitleRequired
	}
	return c.do(ctx, http.MethodPut, subtaskPath(id), updateSubtaskRequest{Title: patch.Title, Completed: patch.Completed}, nil)
}

func (c *Client) DeleteSubtask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, subtaskPath(id), nil, nil)
}

func taskPath(id string) string {
	return fmt.Sprintf("/tasks/%s", url.PathEscape(id))
}

func subtaskPath(id string) string {
	return fmt.Sprintf("/subtasks/%s", url.PathEscape(id))
}
