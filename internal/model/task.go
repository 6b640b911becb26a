package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIDRequired      = errors.New("model: id is required")
	ErrTitleRequired   = errors.New("model: title is required")
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Label is the human form used by the renderers.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus accepts the wire form as well as the loose spellings typed into
// the command palette ("todo", "in-progress", "done").
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if norm == "DOING" || norm == "PROGRESS" {
		norm = string(StatusInProgress)
	}
	s := Status(norm)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

// Priorities lists the priorities in display order.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

const placeholderPrefix = "tmp-"

type Subtask struct {
	ID        string
	Title     string
	Completed bool
}

// PlaceholderID marks a locally generated id as one the server has not
// confirmed yet.
func PlaceholderID(suffix string) string {
	return placeholderPrefix + suffix
}

func (s Subtask) IsPlaceholder() bool {
	return strings.HasPrefix(s.ID, placeholderPrefix)
}

func (s Subtask) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: subtask", ErrIDRequired)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: subtask %s", ErrTitleRequired, s.ID)
	}
	return nil
}

type Task struct {
	ID          string
	Title       string
	Description string
	Subject     string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Subtasks    []Subtask
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: task", ErrIDRequired)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: task %s", ErrTitleRequired, t.ID)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	for _, st := range t.Subtasks {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy so callers never alias a store's memory.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

func (t Task) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

func (t Task) CompletedSubtasks() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// Progress is completed/total over the subtasks, 0 when there are none.
func (t Task) Progress() float64 {
	if len(t.Subtasks) == 0 {
		return 0
	}
	return float64(t.CompletedSubtasks()) / float64(len(t.Subtasks))
}
