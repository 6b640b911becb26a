package commands

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/listo/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add essay outline due:tomorrow", TypeAdd},
		{"status done", TypeStatus},
		{"priority #12 high", TypePriority},
		{"due fri 14:00", TypeDue},
		{"rename #3 Final essay", TypeRename},
		{"rm", TypeDelete},
		{"search calculus", TypeSearch},
		{"filter today", TypeFilter},
		{"subtask add Read chapter 2", TypeSubtask},
		{"export tasks.xlsx", TypeExport},
		{"profile Ada Lovelace email:ada@example.com", TypeProfile},
		{"password", TypePassword},
		{"logout", TypeLogout},
		{"reload", TypeRefresh},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParsePasswordRejectsArguments(t *testing.T) {
	_, err := Parse("password secret1 hunter22x hunter22x")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid args error, got %v", err)
	}
	if strings.Contains(err.Error(), "hunter22x") || strings.Contains(err.Error(), "secret1") {
		t.Fatalf("error echoes the typed password: %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestParseAddOptions(t *testing.T) {
	cmd, err := Parse("add Lab report p:high s:Chemistry due:2026-02-12")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Title != "Lab report" || a.Priority != model.PriorityHigh || a.Subject != "Chemistry" || a.Due != "2026-02-12" {
		t.Fatalf("unexpected add args: %#v", a)
	}
	if _, err := Parse("add p:high"); err == nil {
		t.Fatal("expected error for add without title")
	}
	if _, err := Parse("add Essay p:urgent"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestParseTargets(t *testing.T) {
	cmd, err := Parse("status #42 in progress")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Status.Target != "42" || cmd.Status.Status != model.StatusInProgress {
		t.Fatalf("unexpected status args: %#v", cmd.Status)
	}
	cmd, err = Parse("status todo")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !cmd.Status.Target.IsSelected() {
		t.Fatalf("expected selected target, got %q", cmd.Status.Target)
	}
	if _, err := Parse("delete #1 extra"); err == nil {
		t.Fatal("expected error for trailing delete args")
	}
}

func TestParseFilter(t *testing.T) {
	cmd, err := Parse("filter week status:done priority:any")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	f := cmd.Filter
	if f.Date == nil || *f.Date != "week" {
		t.Fatalf("unexpected date filter: %#v", f.Date)
	}
	if f.Status == nil || *f.Status != model.StatusDone {
		t.Fatalf("unexpected status filter: %#v", f.Status)
	}
	if f.Priority == nil || *f.Priority != "" {
		t.Fatalf("expected priority reset, got %#v", f.Priority)
	}
	cmd, err = Parse("filter clear")
	if err != nil || !cmd.Filter.Clear {
		t.Fatalf("expected clear filter, got %#v, %v", cmd.Filter, err)
	}
	if _, err := Parse("filter yesterday"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestParseSubtask(t *testing.T) {
	cmd, err := Parse("subtask rename 2 Collect sources")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Subtask.Action != SubtaskRename || cmd.Subtask.Position != 2 || cmd.Subtask.Title != "Collect sources" {
		t.Fatalf("unexpected subtask args: %#v", cmd.Subtask)
	}
	cmd, err = Parse("sub toggle #1")
	if err != nil || cmd.Subtask.Action != SubtaskDone || cmd.Subtask.Position != 1 {
		t.Fatalf("unexpected toggle parse: %#v, %v", cmd.Subtask, err)
	}
	for _, in := range []string{"subtask add", "subtask add   ", "subtask done", "subtask rm 0", "subtask rename 1", "subtask fly"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" {
				t.Fatalf("unexpected title: %q", a.Title)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteNoArgCommands(t *testing.T) {
	cmd, _ := Parse("logout")
	res, err := Execute(cmd, Handlers{Logout: func() (Result, error) { return Result{Message: "bye"}, nil }})
	if err != nil || res.Message != "bye" {
		t.Fatalf("unexpected logout result %+v, %v", res, err)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("search tasks")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2026, 2, 9, 10, 30, 0, 0, time.UTC) // Monday
	cases := map[string]time.Time{
		"today":            time.Date(2026, 2, 9, 23, 59, 0, 0, time.UTC),
		"tomorrow 08:15":   time.Date(2026, 2, 10, 8, 15, 0, 0, time.UTC),
		"+3d":              time.Date(2026, 2, 12, 23, 59, 0, 0, time.UTC),
		"fri":              time.Date(2026, 2, 13, 23, 59, 0, 0, time.UTC),
		"monday":           time.Date(2026, 2, 16, 23, 59, 0, 0, time.UTC),
		"2026-03-01 09:00": time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		"2026-03-01T17:45": time.Date(2026, 3, 1, 17, 45, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseWhen(in, now)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: got %s, want %s", in, got, want)
		}
	}
	for _, in := range []string{"", "someday", "2026-13-01", "today 25:00", "a b c"} {
		if _, err := ParseWhen(in, now); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
