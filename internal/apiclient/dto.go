package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/listo/internal/model"
)

// wireLayout is Spring's LocalDateTime form.
const wireLayout = "2006-01-02T15:04:05"

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	wireLayout,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseWireTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

func formatWireTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(wireLayout)
}

// flexID accepts both string and numeric ids; older payloads number subtasks.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type subtaskDTO struct {
	ID        flexID `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type taskDTO struct {
	ID          flexID       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Subject     *string      `json:"subject"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	DueDate     *string      `json:"dueDate"`
	CreatedAt   *string      `json:"createdAt"`
	UpdatedAt   *string      `json:"updatedAt"`
	Subtasks    []subtaskDTO `json:"subtasks"`
}

func (d taskDTO) toModel(loc *time.Location) (model.Task, error) {
	out := model.Task{
		ID:       string(d.ID),
		Title:    d.Title,
		Status:   model.Status(d.Status),
		Priority: model.Priority(d.Priority),
		Subtasks: make([]model.Subtask, 0, len(d.Subtasks)),
	}
	if d.Description != nil {
		out.Description = *d.Description
	}
	if d.Subject != nil {
		out.Subject = *d.Subject
	}
	if d.DueDate != nil && strings.TrimSpace(*d.DueDate) != "" {
		due, err := parseWireTime(*d.DueDate, loc)
		if err != nil {
			return model.Task{}, fmt.Errorf("%w: task %s dueDate: %v", ErrMalformedResponse, d.ID, err)
		}
		out.DueDate = &due
	}
	if d.CreatedAt != nil && *d.CreatedAt != "" {
		if ts, err := parseWireTime(*d.CreatedAt, loc); err == nil {
			out.CreatedAt = ts
		}
	}
	if d.UpdatedAt != nil && *d.UpdatedAt != "" {
		if ts, err := parseWireTime(*d.UpdatedAt, loc); err == nil {
			out.UpdatedAt = ts
		}
	}
	for _, st := range d.Subtasks {
		out.Subtasks = append(out.Subtasks, st.toModel())
	}
	if err := out.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

func (d subtaskDTO) toModel() model.Subtask {
	return model.Subtask{ID: string(d.ID), Title: d.Title, Completed: d.Completed}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Subject     string  `json:"subject,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

func newCreateTaskRequest(d model.Draft, loc *time.Location) createTaskRequest {
	req := createTaskRequest{
		Title:       d.Title,
		Description: d.Description,
		Subject:     d.Subject,
		Status:      string(d.Status),
		Priority:    string(d.Priority),
	}
	if d.DueDate != nil {
		s := formatWireTime(*d.DueDate, loc)
		req.DueDate = &s
	}
	return req
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Subject     *string `json:"subject,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

func newUpdateTaskRequest(p model.Patch, loc *time.Location) updateTaskRequest {
	req := updateTaskRequest{
		Title:       p.Title,
		Description: p.Description,
		Subject:     p.Subject,
	}
	if p.Status != nil {
		s := string(*p.Status)
		req.Status = &s
	}
	if p.Priority != nil {
		s := string(*p.Priority)
		req.Priority = &s
	}
	if p.DueDate != nil {
		s := formatWireTime(*p.DueDate, loc)
		req.DueDate = &s
	}
	return req
}

type createSubtaskRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type updateSubtaskRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type authResponse struct {
	Token string `json:"token"`
}

// User is the signed-in profile.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
