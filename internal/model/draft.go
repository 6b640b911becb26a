package model

import (
	"fmt"
	"strings"
	"time"
)

// Draft is the payload of a task creation request.
type Draft struct {
	Title       string
	Description string
	Subject     string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// NewDraft returns a draft with the defaults the task form starts from.
func NewDraft(title string) Draft {
	return Draft{
		Title:    title,
		Status:   StatusTodo,
		Priority: PriorityMedium,
	}
}

// Normalize trims text fields and fills in the default status and priority.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Subject = strings.TrimSpace(d.Subject)
	if d.Status == "" {
		d.Status = StatusTodo
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.Status != "" && !d.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if d.Priority != "" && !d.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	return nil
}

// Patch is a partial task update. Nil fields are left untouched, matching the
// server which ignores absent properties.
type Patch struct {
	Title       *string
	Description *string
	Subject     *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Subject == nil &&
		p.Status == nil && p.Priority == nil && p.DueDate == nil
}

func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Status != nil && !p.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	return nil
}

// Apply returns a copy of t with the patch applied.
func (p Patch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Subject != nil {
		out.Subject = *p.Subject
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.DueDate != nil {
		due := *p.DueDate
		out.DueDate = &due
	}
	return out
}

// Revert undoes the fields p sets, taking their values from before. Fields p
// does not touch, subtasks included, keep their current values.
func (p Patch) Revert(current, before Task) Task {
	out := current.Clone()
	if p.Title != nil {
		out.Title = before.Title
	}
	if p.Description != nil {
		out.Description = before.Description
	}
	if p.Subject != nil {
		out.Subject = before.Subject
	}
	if p.Status != nil {
		out.Status = before.Status
	}
	if p.Priority != nil {
		out.Priority = before.Priority
	}
	if p.DueDate != nil {
		out.DueDate = nil
		if before.DueDate != nil {
			due := *before.DueDate
			out.DueDate = &due
		}
	}
	return out
}

// StatusPatch is the patch sent when only the status changes.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// SubtaskPatch is a partial subtask update.
type SubtaskPatch struct {
	Title     *string
	Completed *bool
}
