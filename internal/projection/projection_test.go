package projection

import (
	"reflect"
	"testing"
	"time"

	"github.com/sandeepkv93/listo/internal/model"
)

var testNow = time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC) // Monday

func testClock() Clock {
	return NewClock(testNow, time.UTC, time.Sunday)
}

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Essay draft", Subject: "History", Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: at(2026, 2, 9, 17)},
		{ID: "2", Title: "Problem set", Description: "Chapter 5 integrals", Subject: "Calculus", Status: model.StatusInProgress, Priority: model.PriorityMedium, DueDate: at(2026, 2, 12, 9)},
		{ID: "3", Title: "Flashcards", Subject: "Spanish", Status: model.StatusDone, Priority: model.PriorityLow, DueDate: at(2026, 2, 2, 9)},
		{ID: "4", Title: "Read article", Status: model.StatusTodo, Priority: model.PriorityLow},
		{ID: "5", Title: "Lab report", Subject: "Chemistry", Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: at(2026, 2, 8, 23)},
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterIdentity(t *testing.T) {
	tasks := sampleTasks()
	got := Filter(tasks, Criteria{}, testClock())
	if !reflect.DeepEqual(got, tasks) {
		t.Fatalf("expected identity, got %v", ids(got))
	}
}

func TestFilterSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	tasks := sampleTasks()
	cases := map[string][]string{
		"ESSAY":     {"1"},
		"integrals": {"2"},
		"spanish":   {"3"},
		"re":        {"4", "5"},
	}
	for term, want := range cases {
		got := ids(Filter(tasks, Criteria{Search: term}, testClock()))
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("search %q: expected %v, got %v", term, want, got)
		}
	}
}

func TestFilterStatusAndPriority(t *testing.T) {
	got := ids(Filter(sampleTasks(), Criteria{Status: model.StatusTodo, Priority: model.PriorityHigh}, testClock()))
	if !reflect.DeepEqual(got, []string{"1", "5"}) {
		t.Fatalf("unexpected filter result %v", got)
	}
}

func TestFilterDates(t *testing.T) {
	clock := testClock()
	today := ids(Filter(sampleTasks(), Criteria{Date: DateToday}, clock))
	if !reflect.DeepEqual(today, []string{"1"}) {
		t.Fatalf("today: got %v", today)
	}
	week := ids(Filter(sampleTasks(), Criteria{Date: DateThisWeek}, clock))
	if !reflect.DeepEqual(week, []string{"1", "2", "5"}) {
		t.Fatalf("sunday week: got %v", week)
	}
	clock.WeekStart = time.Monday
	week = ids(Filter(sampleTasks(), Criteria{Date: DateThisWeek}, clock))
	if !reflect.DeepEqual(week, []string{"1", "2"}) {
		t.Fatalf("monday week: got %v", week)
	}
}

func TestFilterUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	clock := NewClock(testNow, loc, time.Sunday)
	// 03:00 UTC on the 10th is still the 9th at UTC-5.
	task := model.Task{ID: "1", Title: "late", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: at(2026, 2, 10, 3)}
	if !DueToday(task, clock) {
		t.Fatal("expected task to be due today in local time")
	}
}

func TestParseDateFilter(t *testing.T) {
	for raw, want := range map[string]DateFilter{"": DateAny, "ALL": DateAny, "today": DateToday, "week": DateThisWeek} {
		got, err := ParseDateFilter(raw)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %q, %v", raw, got, err)
		}
	}
	if _, err := ParseDateFilter("month"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestSummarizeCounts(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "a", Status: model.StatusDone, Priority: model.PriorityLow},
		{ID: "2", Title: "b", Status: model.StatusTodo, Priority: model.PriorityHigh},
		{ID: "3", Title: "c", Status: model.StatusInProgress, Priority: model.PriorityHigh},
	}
	s := Summarize(tasks, testClock())
	if s.Total != 3 || s.Completed != 1 || s.Pending != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if s.Todo != 1 || s.InProgress != 1 {
		t.Fatalf("unexpected status split %+v", s)
	}
	if s.ByPriority[model.PriorityHigh] != 2 || s.ByPriority[model.PriorityMedium] != 0 {
		t.Fatalf("unexpected priority breakdown %+v", s.ByPriority)
	}
	if rate := s.CompletionRate(); rate < 0.333 || rate > 0.334 {
		t.Fatalf("unexpected completion rate %f", rate)
	}
}

func TestSummarizeInvariantHolds(t *testing.T) {
	for n := 0; n <= len(sampleTasks()); n++ {
		s := Summarize(sampleTasks()[:n], testClock())
		if s.Completed+s.Pending != s.Total || s.Pending < 0 {
			t.Fatalf("invariant broken for %d tasks: %+v", n, s)
		}
	}
	if Summarize(nil, testClock()).CompletionRate() != 0 {
		t.Fatal("expected zero rate for empty list")
	}
}

func TestSummarizeDueCounters(t *testing.T) {
	s := Summarize(sampleTasks(), testClock())
	if s.Overdue != 1 {
		t.Fatalf("expected 1 overdue, got %d", s.Overdue)
	}
	if s.DueToday != 1 || s.DueThisWeek != 3 {
		t.Fatalf("unexpected due counters %+v", s)
	}
}

func TestOverdueDependsOnStatus(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	task := model.Task{ID: "1", Title: "x", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: &yesterday}
	if !IsOverdue(task, testClock()) {
		t.Fatal("expected TODO task due yesterday to be overdue")
	}
	task.Status = model.StatusDone
	if IsOverdue(task, testClock()) {
		t.Fatal("expected DONE task not to be overdue")
	}
	earlierToday := testNow.Add(-2 * time.Hour)
	task = model.Task{ID: "2", Title: "y", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: &earlierToday}
	if IsOverdue(task, testClock()) {
		t.Fatal("task due earlier today should not count as overdue")
	}
}

func TestRecentlyCompleted(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var tasks []model.Task
	for i := 0; i < 7; i++ {
		tasks = append(tasks, model.Task{
			ID: string(rune('a' + i)), Title: "t", Status: model.StatusDone, Priority: model.PriorityLow,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	tasks = append(tasks, model.Task{ID: "z", Title: "open", Status: model.StatusTodo, Priority: model.PriorityLow, UpdatedAt: base.AddDate(1, 0, 0)})
	tasks = append(tasks, model.Task{ID: "y", Title: "created only", Status: model.StatusDone, Priority: model.PriorityLow, CreatedAt: base.AddDate(0, 0, 3)})

	got := ids(RecentlyCompleted(tasks, 5))
	want := []string{"y", "g", "f", "e", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestUpcomingSkipsDoneAndPast(t *testing.T) {
	got := ids(Upcoming(sampleTasks(), testClock(), 10))
	if !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("unexpected upcoming %v", got)
	}
}

func TestMonthGridPadsToWholeWeeks(t *testing.T) {
	ref := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC) // April 1st is a Wednesday
	cases := []struct {
		weekStart time.Weekday
		first     time.Time
		last      time.Time
	}{
		{time.Sunday, time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
		{time.Monday, time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		r := VisibleRange(ref, GranularityMonth, tc.weekStart)
		if !r.Start.Equal(tc.first) {
			t.Fatalf("week start %s: expected first day %s, got %s", tc.weekStart, tc.first, r.Start)
		}
		lastDay := r.End.AddDate(0, 0, -1)
		if !lastDay.Equal(tc.last) {
			t.Fatalf("week start %s: expected last day %s, got %s", tc.weekStart, tc.last, lastDay)
		}
		if r.Days()%7 != 0 {
			t.Fatalf("expected whole weeks, got %d days", r.Days())
		}
		if r.Start.Weekday() != tc.weekStart {
			t.Fatalf("grid must begin on %s", tc.weekStart)
		}
	}
}

func TestWeekAndDayRanges(t *testing.T) {
	r := VisibleRange(testNow, GranularityWeek, time.Sunday)
	if r.Days() != 7 || !r.Start.Equal(time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week range %+v", r)
	}
	r = VisibleRange(testNow, GranularityDay, time.Sunday)
	if r.Days() != 1 || !r.Contains(testNow) {
		t.Fatalf("unexpected day range %+v", r)
	}
}

func TestBucketsOrderByDueTime(t *testing.T) {
	tasks := []model.Task{
		{ID: "late", Title: "late", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: at(2026, 2, 10, 18)},
		{ID: "none", Title: "none", Status: model.StatusTodo, Priority: model.PriorityLow},
		{ID: "early", Title: "early", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: at(2026, 2, 10, 8)},
		{ID: "outside", Title: "outside", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: at(2026, 3, 20, 8)},
	}
	buckets := Buckets(tasks, testNow, GranularityWeek, testClock())
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	tuesday := buckets[2]
	if !SameDay(tuesday.Date, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bucket date %s", tuesday.Date)
	}
	if got := ids(tuesday.Tasks); !reflect.DeepEqual(got, []string{"early", "late"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if !buckets[1].Today {
		t.Fatal("expected monday bucket to be today")
	}
	total := 0
	for _, b := range buckets {
		total += len(b.Tasks)
	}
	if total != 2 {
		t.Fatalf("expected 2 bucketed tasks, got %d", total)
	}
}

func TestMonthBucketsFlagPadding(t *testing.T) {
	buckets := Buckets(nil, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), GranularityMonth, testClock())
	if buckets[0].InPeriod || !buckets[3].InPeriod {
		t.Fatalf("expected padding before April 1st")
	}
	rows := Weeks(buckets)
	if len(rows) != 5 || len(rows[4]) != 7 {
		t.Fatalf("expected 5 full rows, got %d", len(rows))
	}
}

func TestShift(t *testing.T) {
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := Shift(jan31, GranularityMonth, 1); !got.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month shift: got %s", got)
	}
	if got := Shift(jan31, GranularityMonth, -2); !got.Equal(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month shift back: got %s", got)
	}
	if got := Shift(jan31, GranularityWeek, 1); !got.Equal(time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week shift: got %s", got)
	}
	if got := Shift(jan31, GranularityDay, -1); !got.Equal(time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day shift: got %s", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(testNow, GranularityWeek, time.Sunday); got != "Feb 8 - Feb 14, 2026" {
		t.Fatalf("unexpected week title %q", got)
	}
	if got := Title(testNow, GranularityMonth, time.Sunday); got != "February 2026" {
		t.Fatalf("unexpected month title %q", got)
	}
}
