package projection

import (
	"sort"
	"time"

	"github.com/sandeepkv93/listo/internal/model"
)

// Stats are the dashboard counters. Completed+Pending always equals Total.
type Stats struct {
	Total       int
	Completed   int
	Pending     int
	Todo        int
	InProgress  int
	Overdue     int
	DueToday    int
	DueThisWeek int
	ByPriority  map[model.Priority]int
}

// CompletionRate is Completed/Total, 0 for an empty list.
func (s Stats) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

func Summarize(tasks []model.Task, clock Clock) Stats {
	s := Stats{Total: len(tasks), ByPriority: make(map[model.Priority]int, 3)}
	for _, p := range model.Priorities() {
		s.ByPriority[p] = 0
	}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusDone:
			s.Completed++
		case model.StatusInProgress:
			s.InProgress++
		default:
			s.Todo++
		}
		if t.Priority.IsValid() {
			s.ByPriority[t.Priority]++
		}
		if IsOverdue(t, clock) {
			s.Overdue++
		}
		if DueToday(t, clock) {
			s.DueToday++
		}
		if DueThisWeek(t, clock) {
			s.DueThisWeek++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// IsOverdue is true for an unfinished task due before today. Tasks due later
// today are not overdue yet.
func IsOverdue(t model.Task, clock Clock) bool {
	if t.Status == model.StatusDone || !t.HasDueDate() {
		return false
	}
	return clock.local(*t.DueDate).Before(clock.Today())
}

// RecentlyCompleted returns up to n DONE tasks, most recently updated first.
func RecentlyCompleted(tasks []model.Task, n int) []model.Task {
	var done []model.Task
	for _, t := range tasks {
		if t.Status == model.StatusDone {
			done = append(done, t)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		return activityTime(done[i]).After(activityTime(done[j]))
	})
	if n >= 0 && len(done) > n {
		done = done[:n]
	}
	return done
}

// Upcoming returns unfinished tasks due from today on, soonest first.
func Upcoming(tasks []model.Task, clock Clock, n int) []model.Task {
	today := clock.Today()
	var out []model.Task
	for _, t := range tasks {
		if t.Status == model.StatusDone || !t.HasDueDate() {
			continue
		}
		if clock.local(*t.DueDate).Before(today) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func activityTime(t model.Task) time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}
