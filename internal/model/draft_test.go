package model

import (
	"errors"
	"testing"
	"time"
)

func TestDraftNormalizeDefaults(t *testing.T) {
	d := Draft{Title: "  Essay outline  ", Subject: " ENG "}.Normalize()
	if d.Title != "Essay outline" || d.Subject != "ENG" {
		t.Fatalf("unexpected trimmed draft: %+v", d)
	}
	if d.Status != StatusTodo || d.Priority != PriorityMedium {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestDraftValidateRejectsEmptyTitle(t *testing.T) {
	if err := NewDraft("  ").Validate(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestPatchApplyLeavesUnsetFields(t *testing.T) {
	due := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", Title: "Lab report", Description: "section 2", Status: StatusTodo, Priority: PriorityLow}

	title := "Lab report v2"
	done := StatusDone
	got := Patch{Title: &title, Status: &done, DueDate: &due}.Apply(task)

	if got.Title != "Lab report v2" || got.Status != StatusDone {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Description != "section 2" || got.Priority != PriorityLow {
		t.Fatalf("unset fields changed: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", got.DueDate)
	}
	if task.Status != StatusTodo {
		t.Fatal("apply mutated its input")
	}
}

func TestPatchRevertOnlyTouchesPatchedFields(t *testing.T) {
	due := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)
	before := Task{ID: "t1", Title: "Lab report", Status: StatusTodo, Priority: PriorityLow,
		Subtasks: []Subtask{{ID: "s1", Title: "Data"}}}

	title := "Lab report v2"
	done := StatusDone
	patch := Patch{Title: &title, Status: &done, DueDate: &due}
	current := patch.Apply(before)
	current.Subtasks[0].Completed = true
	current.Description = "edited elsewhere"

	got := patch.Revert(current, before)
	if got.Title != "Lab report" || got.Status != StatusTodo || got.DueDate != nil {
		t.Fatalf("patched fields not reverted: %+v", got)
	}
	if !got.Subtasks[0].Completed || got.Description != "edited elsewhere" {
		t.Fatalf("unpatched fields changed: %+v", got)
	}
}

func TestPatchValidate(t *testing.T) {
	empty := " "
	if err := (Patch{Title: &empty}).Validate(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	bad := Status("LATER")
	if err := StatusPatch(bad).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if !(Patch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
}
